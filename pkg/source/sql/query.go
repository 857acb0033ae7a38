package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/report-export/pkg/source"
	"github.com/rs/zerolog"
)

// Query runs a statement and collects its result set into a dataset.
// Driver byte slices are turned into strings so that type inference sees
// them the same way as file input.
func Query(ctx context.Context, db *sql.DB, name, query string, args ...any) (*source.Dataset, error) {
	logger := zerolog.Ctx(ctx)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", name, err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close query rows")
		}
	}(rows)

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	ds := &source.Dataset{Name: name, Headers: headers}
	for rows.Next() {
		values := make([]any, len(headers))
		ptrs := make([]any, len(headers))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(ds.Records)+1, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		ds.Records = append(ds.Records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	logger.Debug().
		Str("source", name).
		Int("rows", len(ds.Records)).
		Msg("query collected")
	return ds, nil
}
