package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/models"
)

func slaConfig(id int64, p models.Priority, category, campus int64, response, resolution int) models.SLAConfiguration {
	c := models.SLAConfiguration{
		ConfigID:            id,
		Priority:            p,
		ResponseTimeHours:   response,
		ResolutionTimeHours: resolution,
		IsActive:            true,
		CreatedAt:           t0.Add(-time.Duration(id) * time.Hour),
	}
	if category != 0 {
		c.CategoryID = models.NullInt64(category)
	}
	if campus != 0 {
		c.CampusID = models.NullInt64(campus)
	}
	return c
}

func TestResolvePicksFullySpecificConfiguration(t *testing.T) {
	f := newFixture(t)
	f.store.AddSLAConfig(slaConfig(1, models.PriorityCritical, 0, 0, 2, 24))
	f.store.AddSLAConfig(slaConfig(2, models.PriorityCritical, categoryNetwork, campusMain, 1, 4))

	c := f.store.Complaint(f.openComplaint(func(c *models.Complaint) { c.Priority = models.PriorityCritical }))
	res, err := f.calculator.Resolve(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ResponseHours)
	assert.Equal(t, 4, res.ResolutionHours)
	require.NotNil(t, res.ConfigID)
	assert.Equal(t, int64(2), *res.ConfigID)
}

func TestResolveSpecificityOrder(t *testing.T) {
	configs := []models.SLAConfiguration{
		slaConfig(1, models.PriorityHigh, 0, 0, 10, 100),
		slaConfig(2, models.PriorityHigh, 0, campusMain, 9, 90),
		slaConfig(3, models.PriorityHigh, categoryNetwork, 0, 8, 80),
		slaConfig(4, models.PriorityHigh, categoryNetwork, campusMain, 7, 70),
	}
	c := &models.Complaint{
		Priority:   models.PriorityHigh,
		CategoryID: models.NullInt64(categoryNetwork),
		CampusID:   models.NullInt64(campusMain),
	}

	for want := int64(4); want >= 1; want-- {
		best := SelectSLAConfiguration(configs, c)
		require.NotNil(t, best)
		assert.Equal(t, want, best.ConfigID)
		configs = configs[:len(configs)-1]
	}
	assert.Nil(t, SelectSLAConfiguration(configs, c))
}

func TestResolveIgnoresNonApplicableConfigurations(t *testing.T) {
	configs := []models.SLAConfiguration{
		slaConfig(1, models.PriorityHigh, 0, campusNorth, 1, 1),
		slaConfig(2, models.PriorityHigh, categoryMisc, 0, 1, 1),
		slaConfig(3, models.PriorityLow, 0, 0, 1, 1),
		slaConfig(4, models.PriorityHigh, 0, 0, 6, 60),
	}
	inactive := slaConfig(5, models.PriorityHigh, categoryNetwork, campusMain, 1, 1)
	inactive.IsActive = false
	configs = append(configs, inactive)

	c := &models.Complaint{
		Priority:   models.PriorityHigh,
		CategoryID: models.NullInt64(categoryNetwork),
		CampusID:   models.NullInt64(campusMain),
	}
	best := SelectSLAConfiguration(configs, c)
	require.NotNil(t, best)
	assert.Equal(t, int64(4), best.ConfigID)
}

func TestResolveComplaintWithoutCampusOnlyMatchesWildcardCampus(t *testing.T) {
	configs := []models.SLAConfiguration{
		slaConfig(1, models.PriorityMedium, categoryNetwork, campusMain, 1, 1),
		slaConfig(2, models.PriorityMedium, categoryNetwork, 0, 3, 30),
	}
	c := &models.Complaint{Priority: models.PriorityMedium, CategoryID: models.NullInt64(categoryNetwork)}

	best := SelectSLAConfiguration(configs, c)
	require.NotNil(t, best)
	assert.Equal(t, int64(2), best.ConfigID)
}

func TestResolveTieBreaksOnNewestConfiguration(t *testing.T) {
	older := slaConfig(1, models.PriorityMedium, categoryNetwork, 0, 5, 50)
	newer := slaConfig(2, models.PriorityMedium, categoryNetwork, 0, 4, 40)
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)

	c := &models.Complaint{Priority: models.PriorityMedium, CategoryID: models.NullInt64(categoryNetwork)}
	best := SelectSLAConfiguration([]models.SLAConfiguration{newer, older}, c)
	require.NotNil(t, best)
	assert.Equal(t, int64(2), best.ConfigID)
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		priority   models.Priority
		response   int
		resolution int
	}{
		{models.PriorityCritical, 2, 24},
		{models.PriorityHigh, 8, 72},
		{models.PriorityMedium, 24, 168},
		{models.PriorityLow, 72, 720},
		{models.Priority("urgent"), 24, 168},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			res, err := f.calculator.Resolve(context.Background(), &models.Complaint{Priority: tt.priority})
			require.NoError(t, err)
			assert.Nil(t, res.ConfigID)
			assert.Equal(t, tt.response, res.ResponseHours)
			assert.Equal(t, tt.resolution, res.ResolutionHours)
		})
	}
}

func TestApplyStampsWithoutTouchingWorkflowState(t *testing.T) {
	f := newFixture(t)
	f.store.AddSLAConfig(slaConfig(1, models.PriorityMedium, categoryNetwork, campusMain, 3, 30))
	firstResponse := t0.Add(10 * time.Minute)
	id := f.openComplaint(withoutSLA, atLevel(models.LevelDeptHead), func(c *models.Complaint) {
		c.FirstResponseAt = models.NullTime(firstResponse)
		c.SLAResolutionBreached = true
		c.EscalatedToID = models.NullInt64(userHead)
	})

	c, err := f.calculator.Apply(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.SLAResponseHours.Int64)
	assert.Equal(t, int64(30), c.SLAResolutionHours.Int64)

	stored := f.store.Complaint(id)
	assert.Equal(t, firstResponse, stored.FirstResponseAt.Time)
	assert.True(t, stored.SLAResolutionBreached)
	assert.Equal(t, models.LevelDeptHead, stored.EscalationLevel)
	assert.Equal(t, userHead, stored.EscalatedToID.Int64)
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	id := f.openComplaint(withoutSLA)

	_, err := f.calculator.Apply(context.Background(), id)
	require.NoError(t, err)
	writes := f.store.Writes

	_, err = f.calculator.Apply(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, writes, f.store.Writes)
}

func TestApplyMissingComplaint(t *testing.T) {
	f := newFixture(t)
	_, err := f.calculator.Apply(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
