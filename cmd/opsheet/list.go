package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sheetdb "github.com/ideamans/go-sheetdb"
)

func newListCmd(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "Print every row of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}

			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			table, ok := a.svc.Table(args[0])
			if !ok {
				return fmt.Errorf("unknown table %q", args[0])
			}
			records, err := table.List(cmd.Context(), &sheetdb.ListOptions{
				Sort: []sheetdb.SortKey{{Column: sheetdb.ColumnID, Kind: sheetdb.SortNumber}},
			})
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), records, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	return cmd
}

func writeRecords(w io.Writer, records []*sheetdb.Record, format string) error {
	rows := make([]map[string]interface{}, len(records))
	for i, r := range records {
		rows[i] = r.Values
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
