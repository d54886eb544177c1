package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// RequiredColumn defines a required column for a table.
type RequiredColumn struct {
	Table  string
	Column string
}

// DefaultRequiredColumns are the complaint columns SLA tracking, escalation
// and approval read and write. The server must not start without them.
var DefaultRequiredColumns = []RequiredColumn{
	{Table: "complaints", Column: "sla_response_hours"},
	{Table: "complaints", Column: "sla_resolution_hours"},
	{Table: "complaints", Column: "first_response_at"},
	{Table: "complaints", Column: "sla_response_breached"},
	{Table: "complaints", Column: "sla_resolution_breached"},
	{Table: "complaints", Column: "sla_breach_notified_at"},
	{Table: "complaints", Column: "escalated"},
	{Table: "complaints", Column: "escalated_at"},
	{Table: "complaints", Column: "escalated_to_id"},
	{Table: "complaints", Column: "escalation_reason"},
	{Table: "complaints", Column: "escalation_level"},
	{Table: "complaints", Column: "requires_approval"},
	{Table: "complaints", Column: "approved_by_id"},
	{Table: "complaints", Column: "approved_at"},
	{Table: "complaints", Column: "approval_notes"},
	{Table: "complaints", Column: "rejection_reason"},
}

// ValidateRequiredColumns checks that all required columns exist and returns
// an error listing every missing one. An empty list checks the defaults.
func ValidateRequiredColumns(ctx context.Context, db *sqlx.DB, required []RequiredColumn, log zerolog.Logger) error {
	if len(required) == 0 {
		required = DefaultRequiredColumns
	}
	var missing []string
	for _, rc := range required {
		exists, err := columnExists(ctx, db, rc.Table, rc.Column)
		if err != nil {
			return fmt.Errorf("failed to check column %s.%s: %w", rc.Table, rc.Column, err)
		}
		if !exists {
			missing = append(missing, rc.Table+"."+rc.Column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns (run migrations to fix): %s", strings.Join(missing, ", "))
	}
	log.Info().Int("columns", len(required)).Msg("required columns verified")
	return nil
}

func columnExists(ctx context.Context, db *sqlx.DB, table, column string) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
		table, column,
	)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
