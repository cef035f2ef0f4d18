package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/figure-planner/internal/config"
	"github.com/jonathan/figure-planner/internal/db"
	"github.com/jonathan/figure-planner/internal/store/dynamo"
)

// migrator applies or reverts the schema of a SQL backend.
type migrator interface {
	Migrate(ctx context.Context) error
	Rollback(ctx context.Context) error
}

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or roll back the record store schema",
		Long:      "For SQL backends apply (up) or roll back the latest (down) migration. For DynamoDB, up creates the table if it does not exist.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := root.cfg
			up := args[0] == "up"

			var m migrator
			switch cfg.StoreBackend {
			case config.BackendSQLite:
				s, err := db.OpenSQLite(cfg.SQLitePath)
				if err != nil {
					return err
				}
				defer s.Close()
				m = s
			case config.BackendPostgres:
				pg, err := db.Connect(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer pg.Close()
				m = pg
			case config.BackendDynamoDB:
				if !up {
					return fmt.Errorf("migrate down is not supported for dynamodb")
				}
				_, client, err := dynamo.Connect(ctx, dynamo.Config{
					Table:    cfg.TableName,
					Region:   cfg.AWSRegion,
					Endpoint: cfg.DynamoDBEndpoint,
				})
				if err != nil {
					return err
				}
				if err := dynamo.EnsureTable(ctx, client, cfg.TableName); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "table %s ready\n", cfg.TableName)
				return nil
			default:
				return fmt.Errorf("backend %s has no schema", cfg.StoreBackend)
			}

			if up {
				if err := m.Migrate(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			}
			if err := m.Rollback(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
			return nil
		},
	}
	return cmd
}
