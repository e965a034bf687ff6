// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canonical/rowgraph"
	"github.com/canonical/rowgraph/internal/config"
	"github.com/canonical/rowgraph/rowset"
)

func newGraphCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the record graph described by a config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := cfg.Log.Logger()
			if err != nil {
				return fmt.Errorf("cannot build logger: %w", err)
			}
			defer logger.Sync()
			return runGraph(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "graph.yaml", "graph description file")
	return cmd
}

func runGraph(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("cannot open %s database: %w", cfg.Driver, err)
	}
	defer db.Close()
	if cfg.Driver == "sqlite3" {
		// Every connection to an in-memory SQLite DSN gets its own database.
		db.SetMaxOpenConns(1)
	}

	for i, stmt := range cfg.Setup {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("cannot run setup statement %d: %w", i, err)
		}
	}

	sets, err := readTables(ctx, db, cfg.Tables, logger)
	if err != nil {
		return err
	}

	registry := rowgraph.NewRegistry(
		rowgraph.WithLogger(logger),
		rowgraph.WithLayoutCapacity(cfg.LayoutCapacity),
	)
	graph, err := registry.Graph(sets, cfg.Descriptors())
	if err != nil {
		return err
	}

	root := cfg.TableIndex(cfg.Root)
	newPrinter(out).records(cfg.Tables[root].Name, graph[root], "")
	logger.Debug("printed graph", zap.String("root", cfg.Root), zap.Any("stats", registry.Stats()))
	return nil
}

// readTables runs the query of every table and returns the results in
// table order.
func readTables(ctx context.Context, db *sql.DB, tables []config.Table, logger *zap.Logger) ([]*rowset.RowSet, error) {
	sets := make([]*rowset.RowSet, len(tables))
	for i, t := range tables {
		rows, err := db.QueryContext(ctx, t.Query)
		if err != nil {
			return nil, fmt.Errorf("cannot query table %q: %w", t.Name, err)
		}
		rs, err := rowset.FromRows(rows, t.Name)
		if err != nil {
			return nil, err
		}
		logger.Debug("read table", zap.String("table", t.Name), zap.Int("rows", rs.Len()))
		sets[i] = rs
	}
	return sets, nil
}
