// Package clidb holds the database flag and pool setup shared by the CLI commands.
package clidb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// DatabaseURLEnv is read when --database-url is not given.
const DatabaseURLEnv = "DATABASE_URL"

// AddFlag registers --database-url on cmd, defaulting to $DATABASE_URL.
func AddFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "database-url", os.Getenv(DatabaseURLEnv), "PostgreSQL connection string (defaults to $DATABASE_URL)")
}

// Open connects to the database.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("--database-url or DATABASE_URL is required")
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL, MaxConns: 2, ApplicationName: "posbill-cli"})
	if err != nil {
		return nil, fmt.Errorf("init pool: %w", err)
	}
	return pool, nil
}
