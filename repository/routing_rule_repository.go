package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"complaintdesk/models"
)

// RoutingRuleRepository reads routing rules
type RoutingRuleRepository struct {
	db *sqlx.DB
}

// NewRoutingRuleRepository creates a new routing rule repository
func NewRoutingRuleRepository(db *sqlx.DB) *RoutingRuleRepository {
	return &RoutingRuleRepository{db: db}
}

// ListActive returns active rules, highest priority first
func (r *RoutingRuleRepository) ListActive(ctx context.Context) ([]models.RoutingRule, error) {
	rules := []models.RoutingRule{}
	err := r.db.SelectContext(ctx, &rules, `
		SELECT rule_id, name, description, is_active, priority,
			category_id, sub_category_id, campus_id,
			assign_department_id, assign_user_id, set_priority,
			created_at, updated_at
		FROM routing_rules
		WHERE is_active = TRUE
		ORDER BY priority DESC, rule_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list routing rules: %w", err)
	}
	return rules, nil
}
