package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func TestEvaluateBreach(t *testing.T) {
	base := BreachInput{
		CreatedAt:       created,
		Status:          StatusInProgress,
		ResponseHours:   NullInt64(2),
		ResolutionHours: NullInt64(24),
	}

	tests := []struct {
		name       string
		mod        func(in *BreachInput)
		elapsed    time.Duration
		response   bool
		resolution bool
	}{
		{"within budget", nil, time.Hour, false, false},
		{"exactly at response budget", nil, 2 * time.Hour, false, false},
		{"just past response budget", nil, 2*time.Hour + time.Nanosecond, true, false},
		{"responded", func(in *BreachInput) { in.FirstResponseAt = NullTime(created) }, 3 * time.Hour, false, false},
		{"past both", nil, 25 * time.Hour, true, true},
		{"resolved stops resolution clock", func(in *BreachInput) { in.Status = StatusResolved }, 25 * time.Hour, true, false},
		{"closed stops resolution clock", func(in *BreachInput) { in.Status = StatusClosed }, 25 * time.Hour, true, false},
		{"no budgets", func(in *BreachInput) {
			in.ResponseHours = sql.NullInt64{}
			in.ResolutionHours = sql.NullInt64{}
		}, 1000 * time.Hour, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			if tt.mod != nil {
				tt.mod(&in)
			}
			got := EvaluateBreach(in, created.Add(tt.elapsed))
			assert.Equal(t, tt.response, got.ResponseBreached)
			assert.Equal(t, tt.resolution, got.ResolutionBreached)
			assert.Equal(t, tt.response || tt.resolution, got.Any())
		})
	}
}

func TestDefaultBudget(t *testing.T) {
	assert.Equal(t, SLABudget{ResponseHours: 2, ResolutionHours: 24}, DefaultBudget(PriorityCritical))
	assert.Equal(t, SLABudget{ResponseHours: 72, ResolutionHours: 720}, DefaultBudget(PriorityLow))
	assert.Equal(t, DefaultBudget(PriorityMedium), DefaultBudget(Priority("")))
}

func TestSpecificityAndApplies(t *testing.T) {
	cfg := SLAConfiguration{CategoryID: NullInt64(1), CampusID: NullInt64(2)}
	assert.Equal(t, 3, cfg.Specificity())
	assert.Equal(t, 0, (&SLAConfiguration{}).Specificity())

	assert.True(t, cfg.Applies(&Complaint{CategoryID: NullInt64(1), CampusID: NullInt64(2)}))
	assert.False(t, cfg.Applies(&Complaint{CategoryID: NullInt64(1)}))
	assert.False(t, cfg.Applies(&Complaint{CategoryID: NullInt64(1), CampusID: NullInt64(3)}))
	assert.True(t, (&SLAConfiguration{}).Applies(&Complaint{}))
}

func TestSLAStatusFor(t *testing.T) {
	c := &Complaint{
		ComplaintID:        7,
		CreatedAt:          created,
		Status:             StatusResolved,
		SLAResponseHours:   NullInt64(4),
		SLAResolutionHours: NullInt64(48),
		FirstResponseAt:    NullTime(created.Add(time.Hour)),
	}
	st := SLAStatusFor(c, created.Add(10*time.Hour))

	require.NotNil(t, st.ResponseDueAt)
	assert.Equal(t, created.Add(4*time.Hour), *st.ResponseDueAt)
	assert.Nil(t, st.ResponseRemaining)
	assert.Equal(t, created.Add(48*time.Hour), *st.ResolutionDueAt)
	assert.Nil(t, st.ResolutionRemaining)

	c.Status = StatusPending
	c.FirstResponseAt = sql.NullTime{}
	st = SLAStatusFor(c, created.Add(10*time.Hour))
	require.NotNil(t, st.ResponseRemaining)
	assert.InDelta(t, -6.0, *st.ResponseRemaining, 1e-9)
	assert.InDelta(t, 38.0, *st.ResolutionRemaining, 1e-9)
}
