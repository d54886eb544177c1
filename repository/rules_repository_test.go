package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/models"
)

func TestListActiveRoutingRules(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutingRuleRepository(db)

	mock.ExpectQuery(`(?s)FROM routing_rules.*WHERE is_active = TRUE.*ORDER BY priority DESC, rule_id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"rule_id", "name", "is_active", "priority", "category_id", "assign_department_id", "set_priority"}).
			AddRow(2, "network", true, 10, 1, 100, "high").
			AddRow(1, "catch-all", true, 0, nil, 200, nil))

	rules, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, int64(1), rules[0].CategoryID.Int64)
	assert.Equal(t, "high", rules[0].SetPriority.String)
	assert.False(t, rules[1].CategoryID.Valid)
	assert.False(t, rules[1].SetPriority.Valid)
}

func TestListActiveSLAConfigurations(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSLAConfigRepository(db)

	mock.ExpectQuery(`(?s)FROM sla_configurations.*WHERE priority = \? AND is_active = TRUE`).
		WithArgs("critical").
		WillReturnRows(sqlmock.NewRows([]string{"config_id", "priority", "category_id", "campus_id", "response_time_hours", "resolution_time_hours", "is_active", "created_at"}).
			AddRow(1, "critical", nil, nil, 2, 24, true, created).
			AddRow(2, "critical", 1, 1, 1, 4, true, created))

	configs, err := repo.ListActiveByPriority(context.Background(), models.PriorityCritical)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, 0, configs[0].Specificity())
	assert.Equal(t, 3, configs[1].Specificity())
	assert.Equal(t, 4, configs[1].ResolutionTimeHours)
}

func TestGetSubCategoryNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryRepository(db)

	mock.ExpectQuery(`FROM sub_categories WHERE sub_category_id = \?`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"sub_category_id", "category_id", "name", "is_active"}))

	_, err := repo.GetSubCategory(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
