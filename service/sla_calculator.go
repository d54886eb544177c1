package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"complaintdesk/models"
)

// SLACalculator resolves and stamps response/resolution budgets.
type SLACalculator struct {
	configs    SLAConfigStore
	complaints ComplaintStore
	log        zerolog.Logger
}

// NewSLACalculator creates a new SLA calculator
func NewSLACalculator(configs SLAConfigStore, complaints ComplaintStore, log zerolog.Logger) *SLACalculator {
	return &SLACalculator{
		configs:    configs,
		complaints: complaints,
		log:        log.With().Str("component", "sla_calculator").Logger(),
	}
}

// Resolve picks the most specific active configuration for the complaint's
// priority, or the built-in defaults when none applies.
func (s *SLACalculator) Resolve(ctx context.Context, c *models.Complaint) (models.SLAResolution, error) {
	configs, err := s.configs.ListActiveByPriority(ctx, c.Priority)
	if err != nil {
		return models.SLAResolution{}, fmt.Errorf("failed to load SLA configurations: %w", err)
	}

	best := SelectSLAConfiguration(configs, c)
	if best == nil {
		return models.SLAResolution{SLABudget: models.DefaultBudget(c.Priority)}, nil
	}
	id := best.ConfigID
	return models.SLAResolution{
		SLABudget: models.SLABudget{
			ResponseHours:   best.ResponseTimeHours,
			ResolutionHours: best.ResolutionTimeHours,
		},
		ConfigID: &id,
	}, nil
}

// SelectSLAConfiguration ranks applicable configurations by specificity
// (category 2, campus 1), then newest created_at, then highest id.
func SelectSLAConfiguration(configs []models.SLAConfiguration, c *models.Complaint) *models.SLAConfiguration {
	var best *models.SLAConfiguration
	for i := range configs {
		cfg := &configs[i]
		if !cfg.IsActive || cfg.Priority != c.Priority || !cfg.Applies(c) {
			continue
		}
		if best == nil || outranks(cfg, best) {
			best = cfg
		}
	}
	return best
}

func outranks(a, b *models.SLAConfiguration) bool {
	if a.Specificity() != b.Specificity() {
		return a.Specificity() > b.Specificity()
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ConfigID > b.ConfigID
}

// Stamp writes the budgets onto c and reports whether anything changed.
// Breach flags, first response and escalation state are left alone.
func Stamp(c *models.Complaint, res models.SLAResolution) bool {
	changed := false
	if !c.SLAResponseHours.Valid || c.SLAResponseHours.Int64 != int64(res.ResponseHours) {
		c.SLAResponseHours = models.NullInt64(int64(res.ResponseHours))
		changed = true
	}
	if !c.SLAResolutionHours.Valid || c.SLAResolutionHours.Int64 != int64(res.ResolutionHours) {
		c.SLAResolutionHours = models.NullInt64(int64(res.ResolutionHours))
		changed = true
	}
	return changed
}

// Apply recomputes and persists the budgets of a stored complaint.
func (s *SLACalculator) Apply(ctx context.Context, complaintID int64) (*models.Complaint, error) {
	var res models.SLAResolution
	c, err := s.complaints.Mutate(ctx, complaintID, func(c *models.Complaint) (bool, error) {
		var err error
		res, err = s.Resolve(ctx, c)
		if err != nil {
			return false, err
		}
		return Stamp(c, res), nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int64("complaint_id", c.ComplaintID).
		Int("response_hours", res.ResponseHours).
		Int("resolution_hours", res.ResolutionHours).
		Bool("configured", res.ConfigID != nil).
		Msg("SLA applied")
	return c, nil
}
