package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ideamans/go-sheetdb/internal/ops"
)

func newEnsureCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create missing tables and check every header row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.svc.Ensure(cmd.Context()); err != nil {
				return err
			}
			for _, s := range ops.Schemas() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", s.Table)
			}
			return nil
		},
	}
}
