package main

import (
	"context"
	"fmt"
	"log"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/adapters/excel"
)

var readings = &sheetdb.Schema{
	Table:      "readings",
	Headers:    []string{"id", "group_id", "meter", "value", "tags", "created_at", "updated_at"},
	JSONFields: []string{"tags"},
}

func main() {
	// No authentication required; the workbook is created on first use
	transport, err := excel.New(&excel.Config{FilePath: "./example_data.xlsx"})
	if err != nil {
		log.Fatalf("Failed to create Excel transport: %v", err)
	}

	store := sheetdb.New(transport, excel.DefaultStoreConfig())
	defer store.Close()

	ctx := context.Background()
	table, err := store.Table(readings)
	if err != nil {
		log.Fatal(err)
	}

	// A batch shares one group id and is written in one append
	n, err := table.CreateBatch(ctx, []map[string]interface{}{
		{"group_id": "2024-03", "meter": "water", "value": 12.5, "tags": []string{"kitchen"}},
		{"group_id": "2024-03", "meter": "power", "value": 310},
		{"group_id": "2024-04", "meter": "water", "value": 11.0},
	})
	if err != nil {
		log.Fatalf("Failed to add readings: %v", err)
	}
	fmt.Printf("Added %d readings\n", n)

	high, err := table.List(ctx, &sheetdb.ListOptions{
		Query: sheetdb.Query{Conditions: []sheetdb.Condition{sheetdb.Where("value", sheetdb.OpGreater, 12)}},
		Sort:  []sheetdb.SortKey{{Column: "value", Desc: true, Kind: sheetdb.SortNumber}},
	})
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}
	for _, r := range high {
		fmt.Printf("  %s: %v\n", r.GetAsString("meter", ""), r.GetAsFloat64("value", 0))
	}

	// Rewrite one month, then drop it
	if _, err := table.UpdateGroup(ctx, "2024-03", map[string]interface{}{"tags": []string{"checked"}}); err != nil {
		log.Fatalf("Failed to update group: %v", err)
	}
	deleted, err := table.DeleteGroup(ctx, "2024-03")
	if err != nil {
		log.Fatalf("Failed to delete group: %v", err)
	}
	fmt.Printf("Deleted %d readings from 2024-03\n", deleted)
}
