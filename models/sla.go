package models

import (
	"database/sql"
	"time"
)

// SLAConfiguration is a response/resolution budget keyed by priority, with optional category and campus.
type SLAConfiguration struct {
	ConfigID            int64         `db:"config_id" json:"config_id"`
	Name                string        `db:"name" json:"name"`
	Priority            Priority      `db:"priority" json:"priority"`
	CategoryID          sql.NullInt64 `db:"category_id" json:"category_id"`
	CampusID            sql.NullInt64 `db:"campus_id" json:"campus_id"`
	ResponseTimeHours   int           `db:"response_time_hours" json:"response_time_hours"`
	ResolutionTimeHours int           `db:"resolution_time_hours" json:"resolution_time_hours"`
	IsActive            bool          `db:"is_active" json:"is_active"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
}

// Specificity scores a configuration: 2 for a category, 1 for a campus.
func (c *SLAConfiguration) Specificity() int {
	score := 0
	if c.CategoryID.Valid {
		score += 2
	}
	if c.CampusID.Valid {
		score++
	}
	return score
}

// Applies reports whether the configuration covers the complaint's category and campus.
// A category- or campus-specific row never applies to a complaint lacking that field.
func (c *SLAConfiguration) Applies(complaint *Complaint) bool {
	if c.CategoryID.Valid && (!complaint.CategoryID.Valid || complaint.CategoryID.Int64 != c.CategoryID.Int64) {
		return false
	}
	if c.CampusID.Valid && (!complaint.CampusID.Valid || complaint.CampusID.Int64 != c.CampusID.Int64) {
		return false
	}
	return true
}

// SLABudget is a pair of hour budgets.
type SLABudget struct {
	ResponseHours   int `json:"response_hours"`
	ResolutionHours int `json:"resolution_hours"`
}

var defaultBudgets = map[Priority]SLABudget{
	PriorityCritical: {ResponseHours: 2, ResolutionHours: 24},
	PriorityHigh:     {ResponseHours: 8, ResolutionHours: 72},
	PriorityMedium:   {ResponseHours: 24, ResolutionHours: 168},
	PriorityLow:      {ResponseHours: 72, ResolutionHours: 720},
}

// DefaultBudget returns the built-in budget for a priority; unknown priorities use medium.
func DefaultBudget(p Priority) SLABudget {
	if b, ok := defaultBudgets[p]; ok {
		return b
	}
	return defaultBudgets[PriorityMedium]
}

// SLAResolution is the outcome of resolving budgets for a complaint.
type SLAResolution struct {
	SLABudget
	ConfigID *int64 `json:"config_id"` // nil when defaults were used
}

// BreachInput carries everything the breach evaluation reads.
type BreachInput struct {
	CreatedAt       time.Time
	FirstResponseAt sql.NullTime
	Status          ComplaintStatus
	ResponseHours   sql.NullInt64
	ResolutionHours sql.NullInt64
}

// BreachInputFor extracts the breach inputs from a complaint.
func BreachInputFor(c *Complaint) BreachInput {
	return BreachInput{
		CreatedAt:       c.CreatedAt,
		FirstResponseAt: c.FirstResponseAt,
		Status:          c.Status,
		ResponseHours:   c.SLAResponseHours,
		ResolutionHours: c.SLAResolutionHours,
	}
}

// BreachResult reports which SLA dimensions are over budget.
type BreachResult struct {
	ResponseBreached   bool
	ResolutionBreached bool
}

// Any reports whether either dimension is breached.
func (r BreachResult) Any() bool {
	return r.ResponseBreached || r.ResolutionBreached
}

// EvaluateBreach compares elapsed time since creation with the stamped budgets.
// Elapsed time must strictly exceed a budget to count as a breach.
func EvaluateBreach(in BreachInput, now time.Time) BreachResult {
	elapsed := now.Sub(in.CreatedAt)
	var res BreachResult
	if in.ResponseHours.Valid && !in.FirstResponseAt.Valid {
		res.ResponseBreached = elapsed > hours(in.ResponseHours.Int64)
	}
	if in.ResolutionHours.Valid && !in.Status.IsFinished() {
		res.ResolutionBreached = elapsed > hours(in.ResolutionHours.Int64)
	}
	return res
}

func hours(h int64) time.Duration {
	return time.Duration(h) * time.Hour
}

// SLAStatus is the read model served for a single complaint.
type SLAStatus struct {
	ComplaintID         int64           `json:"complaint_id"`
	ResponseHours       *int64          `json:"response_hours"`
	ResolutionHours     *int64          `json:"resolution_hours"`
	ResponseDueAt       *time.Time      `json:"response_due_at"`
	ResolutionDueAt     *time.Time      `json:"resolution_due_at"`
	ResponseRemaining   *float64        `json:"response_remaining_hours"`
	ResolutionRemaining *float64        `json:"resolution_remaining_hours"`
	FirstResponseAt     *time.Time      `json:"first_response_at"`
	ResponseBreached    bool            `json:"response_breached"`
	ResolutionBreached  bool            `json:"resolution_breached"`
	EscalationLevel     EscalationLevel `json:"escalation_level"`
}

// SLAStatusFor computes due times and remaining hours at now.
func SLAStatusFor(c *Complaint, now time.Time) SLAStatus {
	st := SLAStatus{
		ComplaintID:        c.ComplaintID,
		ResponseBreached:   c.SLAResponseBreached,
		ResolutionBreached: c.SLAResolutionBreached,
		EscalationLevel:    c.EscalationLevel,
	}
	if c.FirstResponseAt.Valid {
		t := c.FirstResponseAt.Time
		st.FirstResponseAt = &t
	}
	if c.SLAResponseHours.Valid {
		h := c.SLAResponseHours.Int64
		due := c.CreatedAt.Add(hours(h))
		st.ResponseHours = &h
		st.ResponseDueAt = &due
		if !c.FirstResponseAt.Valid {
			left := due.Sub(now).Hours()
			st.ResponseRemaining = &left
		}
	}
	if c.SLAResolutionHours.Valid {
		h := c.SLAResolutionHours.Int64
		due := c.CreatedAt.Add(hours(h))
		st.ResolutionHours = &h
		st.ResolutionDueAt = &due
		if !c.Status.IsFinished() {
			left := due.Sub(now).Hours()
			st.ResolutionRemaining = &left
		}
	}
	return st
}
