// Command opsheet serves the operations tracker API backed by a spreadsheet.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/internal/backend"
	"github.com/ideamans/go-sheetdb/internal/config"
	"github.com/ideamans/go-sheetdb/internal/ops"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "opsheet",
		Short:        "Operations tracker stored in Google Sheets or Excel",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default ./opsheet.yaml)")

	root.AddCommand(
		newServeCmd(&configPath),
		newEnsureCmd(&configPath),
		newListCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

// app bundles what every command needs.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *sheetdb.Store
	svc   *ops.Service
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	transport, err := backend.Open(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	store := sheetdb.New(transport, cfg.StoreConfig(log))
	svc, err := ops.New(store, ops.Options{PrivilegedRole: cfg.PrivilegedRole})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &app{cfg: cfg, log: log, store: store, svc: svc}, nil
}

func (a *app) Close() error {
	err := a.store.Close()
	_ = a.log.Sync()
	return err
}
