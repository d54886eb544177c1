// Package schema: safe database initialization. Creates only missing tables
// and columns; never drops or overwrites.
package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// InitializeDatabase ensures every table exists, creating only the missing
// ones in dependency order, then adds complaint columns an older table lacks.
func InitializeDatabase(ctx context.Context, db *sqlx.DB, log zerolog.Logger) error {
	for _, t := range tables {
		exists, err := tableExists(ctx, db, t.name)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", t.name, err)
		}
		if exists {
			log.Debug().Str("table", t.name).Msg("table exists")
			continue
		}
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
		log.Info().Str("table", t.name).Msg("created table")
	}
	return EnsureComplaintColumns(ctx, db, log)
}

func tableExists(ctx context.Context, db *sqlx.DB, table string) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
		table,
	)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
