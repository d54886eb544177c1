package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"complaintdesk/metrics"
	"complaintdesk/models"
)

const noRoutingMatch = "No routing rules matched"

// routeResolver fills d from one source and reports whether it produced an owner.
type routeResolver func(ctx context.Context, c *models.Complaint, d *models.RoutingDecision) (bool, error)

// RoutingEngine assigns complaints to a department and/or user.
// Resolvers run in order: routing rules, category keywords, the complaint's own department.
type RoutingEngine struct {
	rules     RoutingRuleStore
	hierarchy HierarchyStore
	keywords  models.KeywordTable
	resolvers []routeResolver
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewRoutingEngine creates a routing engine. A nil keyword table uses DefaultKeywordTable.
func NewRoutingEngine(
	rules RoutingRuleStore,
	hierarchy HierarchyStore,
	keywords models.KeywordTable,
	m *metrics.Metrics,
	log zerolog.Logger,
) *RoutingEngine {
	if keywords == nil {
		keywords = models.DefaultKeywordTable()
	}
	e := &RoutingEngine{
		rules:     rules,
		hierarchy: hierarchy,
		keywords:  keywords,
		metrics:   m,
		log:       log.With().Str("component", "routing").Logger(),
	}
	e.resolvers = []routeResolver{
		e.byRule,
		e.byCategoryKeyword,
		e.byComplaintDepartment,
	}
	return e
}

// Route computes a decision for c. It has no side effects. A nil complaint
// or no match yields an empty decision; errors are reserved for store failures.
func (e *RoutingEngine) Route(ctx context.Context, c *models.Complaint) (*models.RoutingDecision, error) {
	d := &models.RoutingDecision{Source: models.RoutingSourceNone}
	if c == nil {
		d.Trace = []string{"No complaint provided"}
		d.Notes = d.Trace[0]
		return d, nil
	}

	for _, resolve := range e.resolvers {
		owned, err := resolve(ctx, c, d)
		if err != nil {
			return &models.RoutingDecision{Source: models.RoutingSourceNone}, err
		}
		if owned {
			break
		}
	}

	if len(d.Trace) == 0 {
		d.Trace = []string{noRoutingMatch}
	}
	d.Notes = strings.Join(d.Trace, "; ")
	e.metrics.RoutingDecision(string(d.Source))

	e.log.Debug().
		Int64("complaint_id", c.ComplaintID).
		Str("source", string(d.Source)).
		Str("notes", d.Notes).
		Msg("routing decision")
	return d, nil
}

// Suggest runs Route for manual review and grades the result.
func (e *RoutingEngine) Suggest(ctx context.Context, c *models.Complaint) (*models.RoutingSuggestion, error) {
	d, err := e.Route(ctx, c)
	if err != nil {
		return nil, err
	}
	confidence := "low"
	if d.HasOwner() {
		confidence = "high"
	}
	return &models.RoutingSuggestion{Decision: d, Confidence: confidence}, nil
}

// SortRules orders rules by priority descending, then rule id ascending.
func SortRules(rules []models.RoutingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].RuleID < rules[j].RuleID
	})
}

func (e *RoutingEngine) byRule(ctx context.Context, c *models.Complaint, d *models.RoutingDecision) (bool, error) {
	rules, err := e.rules.ListActive(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load routing rules: %w", err)
	}
	SortRules(rules)

	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive || !rule.Matches(c) {
			continue
		}

		ruleID := rule.RuleID
		d.RuleID = &ruleID
		d.Source = models.RoutingSourceRule
		d.Trace = append(d.Trace, fmt.Sprintf("Matched rule: %s (priority %d)", rule.Name, rule.Priority))

		if rule.AssignDepartmentID.Valid {
			deptID := rule.AssignDepartmentID.Int64
			d.DepartmentID = &deptID
			d.DepartmentName = e.departmentName(ctx, deptID)
			d.Trace = append(d.Trace, fmt.Sprintf("Assigned to department: %s", labelOr(d.DepartmentName, deptID)))
		}
		if rule.AssignUserID.Valid {
			userID := rule.AssignUserID.Int64
			d.UserID = &userID
			d.Trace = append(d.Trace, fmt.Sprintf("Assigned to user: %d", userID))
		}
		if rule.SetPriority.Valid && rule.SetPriority.String != "" {
			if p, ok := models.ParsePriority(rule.SetPriority.String); ok {
				d.Priority = &p
				d.Trace = append(d.Trace, fmt.Sprintf("Priority set to: %s", p))
			} else {
				e.log.Warn().Int64("rule_id", rule.RuleID).Str("set_priority", rule.SetPriority.String).
					Msg("ignoring unknown priority on routing rule")
			}
		}
		// First match wins even when it leaves ownership to the fallbacks.
		return d.HasOwner(), nil
	}
	return false, nil
}

func (e *RoutingEngine) byCategoryKeyword(ctx context.Context, c *models.Complaint, d *models.RoutingDecision) (bool, error) {
	if !c.CategoryName.Valid {
		return false, nil
	}
	for _, pattern := range e.keywords.Candidates(c.CategoryName.String) {
		dept, err := e.hierarchy.FindDepartmentByName(ctx, pattern)
		if err != nil {
			return false, fmt.Errorf("failed to look up department %q: %w", pattern, err)
		}
		if dept == nil {
			continue
		}
		id := dept.DepartmentID
		d.DepartmentID = &id
		d.DepartmentName = dept.Name
		d.Source = models.RoutingSourceCategoryKeyword
		d.Trace = append(d.Trace, fmt.Sprintf("Fallback routing by category to: %s", dept.Name))
		return true, nil
	}
	return false, nil
}

func (e *RoutingEngine) byComplaintDepartment(ctx context.Context, c *models.Complaint, d *models.RoutingDecision) (bool, error) {
	if !c.DepartmentID.Valid {
		return false, nil
	}
	id := c.DepartmentID.Int64
	d.DepartmentID = &id
	d.DepartmentName = e.departmentName(ctx, id)
	d.Source = models.RoutingSourceComplaintDepartment
	d.Trace = append(d.Trace, fmt.Sprintf("Fallback routing to complaint's department: %s", labelOr(d.DepartmentName, id)))
	return true, nil
}

func (e *RoutingEngine) departmentName(ctx context.Context, id int64) string {
	dept, err := e.hierarchy.GetDepartment(ctx, id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			e.log.Warn().Err(err).Int64("department_id", id).Msg("failed to load department name")
		}
		return ""
	}
	return dept.Name
}

func labelOr(name string, id int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
