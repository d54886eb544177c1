package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type columnDef struct {
	name string
	ddl  string
}

// complaintColumns are added to a complaints table created before SLA
// tracking, escalation and approval existed.
var complaintColumns = []columnDef{
	{"sla_response_hours", "INT NULL"},
	{"sla_resolution_hours", "INT NULL"},
	{"first_response_at", "DATETIME NULL"},
	{"sla_response_breached", "BOOLEAN NOT NULL DEFAULT FALSE"},
	{"sla_resolution_breached", "BOOLEAN NOT NULL DEFAULT FALSE"},
	{"sla_breach_notified_at", "DATETIME NULL"},
	{"escalated", "BOOLEAN NOT NULL DEFAULT FALSE"},
	{"escalated_at", "DATETIME NULL"},
	{"escalated_to_id", "BIGINT NULL"},
	{"escalation_reason", "TEXT NULL"},
	{"escalation_level", "INT NOT NULL DEFAULT 0"},
	{"requires_approval", "BOOLEAN NOT NULL DEFAULT FALSE"},
	{"approved_by_id", "BIGINT NULL"},
	{"approved_at", "DATETIME NULL"},
	{"approval_notes", "TEXT NULL"},
	{"rejection_reason", "TEXT NULL"},
}

// EnsureComplaintColumns adds any missing SLA, escalation or approval column
// to complaints. Existing columns are left untouched.
func EnsureComplaintColumns(ctx context.Context, db *sqlx.DB, log zerolog.Logger) error {
	for _, col := range complaintColumns {
		if err := ensureColumn(ctx, db, "complaints", col, log); err != nil {
			return err
		}
	}
	return nil
}

func ensureColumn(ctx context.Context, db *sqlx.DB, table string, col columnDef, log zerolog.Logger) error {
	exists, err := columnExists(ctx, db, table, col.name)
	if err != nil {
		return fmt.Errorf("failed to check column %s.%s: %w", table, col.name, err)
	}
	if exists {
		return nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, col.name, col.ddl)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, col.name, err)
	}
	log.Info().Str("table", table).Str("column", col.name).Msg("added column")
	return nil
}
