package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/report-export/pkg/store/duckdb"
	"github.com/rs/zerolog"
)

const DriverDuckDB = "duckdb"

// Open connects to a SQL source. DuckDB runs the init statements on every
// new connection; other drivers run them once on the pool.
func Open(ctx context.Context, driver, dsn string, initSQL []string) (*sql.DB, error) {
	logger := zerolog.Ctx(ctx)

	if driver == DriverDuckDB {
		db, err := duckdb.NewDB(duckdb.Settings{DbPath: dsn, BootQueries: initSQL})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		return db, nil
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	for _, query := range initSQL {
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init statement failed: %w", err)
		}
	}

	logger.Debug().Str("driver", driver).Int("init_statements", len(initSQL)).Msg("sql source opened")
	return db, nil
}
