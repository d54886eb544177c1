package models

import (
	"database/sql"
	"strings"
	"time"
)

// RoutingRule maps complaint attributes to an assignment. Absent conditions are wildcards.
type RoutingRule struct {
	RuleID             int64          `db:"rule_id" json:"rule_id"`
	Name               string         `db:"name" json:"name"`
	Description        string         `db:"description" json:"description"`
	IsActive           bool           `db:"is_active" json:"is_active"`
	Priority           int            `db:"priority" json:"priority"` // higher evaluated first
	CategoryID         sql.NullInt64  `db:"category_id" json:"category_id"`
	SubCategoryID      sql.NullInt64  `db:"sub_category_id" json:"sub_category_id"`
	CampusID           sql.NullInt64  `db:"campus_id" json:"campus_id"`
	AssignDepartmentID sql.NullInt64  `db:"assign_department_id" json:"assign_department_id"`
	AssignUserID       sql.NullInt64  `db:"assign_user_id" json:"assign_user_id"`
	SetPriority        sql.NullString `db:"set_priority" json:"set_priority"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          sql.NullTime   `db:"updated_at" json:"updated_at"`
}

// Matches reports whether every present condition equals the complaint's field.
func (r *RoutingRule) Matches(c *Complaint) bool {
	if r.CategoryID.Valid && (!c.CategoryID.Valid || c.CategoryID.Int64 != r.CategoryID.Int64) {
		return false
	}
	if r.SubCategoryID.Valid && (!c.SubCategoryID.Valid || c.SubCategoryID.Int64 != r.SubCategoryID.Int64) {
		return false
	}
	if r.CampusID.Valid && (!c.CampusID.Valid || c.CampusID.Int64 != r.CampusID.Int64) {
		return false
	}
	return true
}

// RoutingSource names the resolver that produced a decision.
type RoutingSource string

const (
	RoutingSourceRule                RoutingSource = "rule"
	RoutingSourceCategoryKeyword     RoutingSource = "category_keyword"
	RoutingSourceComplaintDepartment RoutingSource = "complaint_department"
	RoutingSourceNone                RoutingSource = "none"
)

// RoutingDecision is the output of the routing engine. All pointer fields nil means "leave unassigned".
type RoutingDecision struct {
	DepartmentID   *int64        `json:"department_id"`
	DepartmentName string        `json:"department_name,omitempty"`
	UserID         *int64        `json:"user_id"`
	Priority       *Priority     `json:"priority"` // override only
	RuleID         *int64        `json:"rule_id,omitempty"`
	Source         RoutingSource `json:"source"`
	Trace          []string      `json:"trace"`
	Notes          string        `json:"notes"`
}

// IsEmpty reports whether the decision assigns nothing and overrides nothing.
func (d *RoutingDecision) IsEmpty() bool {
	return d == nil || (d.DepartmentID == nil && d.UserID == nil && d.Priority == nil)
}

// HasOwner reports whether a department or user was produced.
func (d *RoutingDecision) HasOwner() bool {
	return d != nil && (d.DepartmentID != nil || d.UserID != nil)
}

// RoutingSuggestion wraps a decision for manual review.
type RoutingSuggestion struct {
	Decision   *RoutingDecision `json:"decision"`
	Confidence string           `json:"confidence"`
}

// KeywordMapping maps a lower-case category keyword to a department name pattern.
type KeywordMapping struct {
	Keyword        string
	DepartmentName string
}

// KeywordTable is an ordered keyword→department table; order decides partial-match ties.
type KeywordTable []KeywordMapping

// Candidates returns department name patterns for a category name in lookup
// order: exact keyword matches first, then keywords contained in the name.
func (t KeywordTable) Candidates(categoryName string) []string {
	name := strings.ToLower(strings.TrimSpace(categoryName))
	if name == "" {
		return nil
	}
	var out []string
	for _, m := range t {
		if name == m.Keyword {
			out = append(out, m.DepartmentName)
		}
	}
	for _, m := range t {
		if name != m.Keyword && strings.Contains(name, m.Keyword) {
			out = append(out, m.DepartmentName)
		}
	}
	return out
}

// DefaultKeywordTable returns the built-in category keyword table.
func DefaultKeywordTable() KeywordTable {
	return KeywordTable{
		{"academic", "Academic Affairs"},
		{"facilities", "Maintenance"},
		{"facility", "Maintenance"},
		{"infrastructure", "Maintenance"},
		{"broken", "Maintenance"},
		{"repair", "Maintenance"},
		{"it", "IT Services"},
		{"network", "IT Services"},
		{"wifi", "IT Services"},
		{"security", "Security"},
		{"theft", "Security"},
		{"safety", "Security"},
		{"administrative", "Administration"},
		{"finance", "Finance"},
		{"bursar", "Finance"},
		{"housing", "Housing"},
		{"accommodation", "Housing"},
		{"health", "Health Services"},
		{"medical", "Health Services"},
		{"library", "Library"},
		{"transport", "Transportation"},
		{"transportation", "Transportation"},
		{"hr", "Human Resources"},
	}
}
