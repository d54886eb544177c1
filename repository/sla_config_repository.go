package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"complaintdesk/models"
)

// SLAConfigRepository reads SLA configurations
type SLAConfigRepository struct {
	db *sqlx.DB
}

// NewSLAConfigRepository creates a new SLA configuration repository
func NewSLAConfigRepository(db *sqlx.DB) *SLAConfigRepository {
	return &SLAConfigRepository{db: db}
}

// ListActiveByPriority returns every active configuration for a priority.
// Specificity ranking happens in the calculator.
func (r *SLAConfigRepository) ListActiveByPriority(ctx context.Context, priority models.Priority) ([]models.SLAConfiguration, error) {
	configs := []models.SLAConfiguration{}
	err := r.db.SelectContext(ctx, &configs, `
		SELECT config_id, name, priority, category_id, campus_id,
			response_time_hours, resolution_time_hours, is_active, created_at
		FROM sla_configurations
		WHERE priority = ? AND is_active = TRUE
		ORDER BY config_id`, string(priority))
	if err != nil {
		return nil, fmt.Errorf("failed to list SLA configurations: %w", err)
	}
	return configs, nil
}
