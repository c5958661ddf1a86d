package main

import (
	"context"
	"fmt"
	"log"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/adapters/googlesheets"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

var tasks = &sheetdb.Schema{
	Table:      "tasks",
	Headers:    []string{"id", "group_id", "title", "owner", "done", "created_at", "updated_at"},
	BoolFields: []string{"done"},
}

func run() error {
	ctx := context.Background()

	// Initialize the Google Sheets transport with a service account key
	transport, err := googlesheets.NewWithJSONKeyFile(ctx, googlesheets.Config{
		SpreadsheetID: "your-spreadsheet-id",
	}, "./service-account.json")
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}

	// Recommended retry settings for the Sheets API quota
	store := sheetdb.New(transport, googlesheets.DefaultStoreConfig())
	defer store.Close()

	table, err := store.Table(tasks)
	if err != nil {
		return err
	}
	if err := store.Ensure(ctx, tasks); err != nil {
		return fmt.Errorf("failed to ensure table: %w", err)
	}

	rec, err := table.Create(ctx, map[string]interface{}{
		"title": "Renew insurance",
		"owner": "alice",
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	fmt.Printf("Created task %d at %s\n", rec.ID(), rec.GetAsString(sheetdb.ColumnCreatedAt, ""))

	if _, err := table.Update(ctx, rec.ID(), map[string]interface{}{"done": true}); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	open, err := table.List(ctx, &sheetdb.ListOptions{
		Query: sheetdb.Query{
			Conditions: []sheetdb.Condition{sheetdb.Where("owner", sheetdb.OpEqual, "alice")},
			Limit:      10,
		},
		Filter: func(r *sheetdb.Record) bool { return !r.GetAsBool("done", false) },
		Sort:   []sheetdb.SortKey{sheetdb.NewestFirst},
	})
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	fmt.Printf("alice has %d open tasks\n", len(open))
	for _, r := range open {
		fmt.Printf("  #%d %s\n", r.ID(), r.GetAsString("title", ""))
	}
	return nil
}
