package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"complaintdesk/models"
)

// HierarchyService resolves hierarchy occupants for escalation and approval.
// It never mutates anything.
type HierarchyService struct {
	store HierarchyStore
	log   zerolog.Logger
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(store HierarchyStore, log zerolog.Logger) *HierarchyService {
	return &HierarchyService{
		store: store,
		log:   log.With().Str("component", "hierarchy").Logger(),
	}
}

// ResolveTarget returns the user occupying the hierarchy slot for level:
// 1 department head, 2 college dean, 3 campus director, 4 and above the
// lowest-id active admin. It returns nil, nil when the slot is empty.
func (s *HierarchyService) ResolveTarget(ctx context.Context, c *models.Complaint, level models.EscalationLevel) (*models.User, error) {
	switch {
	case level <= models.LevelNone:
		return nil, nil
	case level == models.LevelDeptHead:
		dept, err := s.department(ctx, c)
		if err != nil || dept == nil {
			return nil, err
		}
		return s.occupant(ctx, dept.HeadID.Int64, dept.HeadID.Valid)
	case level == models.LevelDean:
		college, err := s.college(ctx, c)
		if err != nil || college == nil {
			return nil, err
		}
		return s.occupant(ctx, college.DeanID.Int64, college.DeanID.Valid)
	case level == models.LevelCampusDirector:
		if !c.CampusID.Valid {
			return nil, nil
		}
		campus, err := s.store.GetCampus(ctx, c.CampusID.Int64)
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load campus: %w", err)
		}
		return s.occupant(ctx, campus.DirectorID.Int64, campus.DirectorID.Valid)
	default:
		admin, err := s.store.FirstActiveAdmin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to find admin: %w", err)
		}
		return admin, nil
	}
}

// DetermineApprover picks who signs off on a complaint. Critical and high
// priority complaints go to the campus director, then the dean; everything
// falls through to the department head and finally an admin.
func (s *HierarchyService) DetermineApprover(ctx context.Context, c *models.Complaint) (*models.User, error) {
	var order []models.EscalationLevel
	if c.Priority == models.PriorityCritical || c.Priority == models.PriorityHigh {
		order = append(order, models.LevelCampusDirector, models.LevelDean)
	}
	order = append(order, models.LevelDeptHead, models.LevelAdmin)

	for _, level := range order {
		u, err := s.ResolveTarget(ctx, c, level)
		if err != nil {
			return nil, err
		}
		if u != nil {
			return u, nil
		}
	}
	return nil, nil
}

// ScopeFor locates a user in the hierarchy.
func (s *HierarchyService) ScopeFor(ctx context.Context, u *models.User) (models.OrgScope, error) {
	var scope models.OrgScope
	if u.CampusID.Valid {
		scope.CampusID = u.CampusID.Int64
	}
	if !u.DepartmentID.Valid {
		return scope, nil
	}
	scope.DepartmentID = u.DepartmentID.Int64
	dept, err := s.store.GetDepartment(ctx, u.DepartmentID.Int64)
	if errors.Is(err, models.ErrNotFound) {
		return scope, nil
	}
	if err != nil {
		return scope, fmt.Errorf("failed to load department: %w", err)
	}
	scope.CollegeID = dept.CollegeID
	return scope, nil
}

// ComplaintScope locates a complaint in the hierarchy.
func (s *HierarchyService) ComplaintScope(ctx context.Context, c *models.Complaint) (models.OrgScope, error) {
	var scope models.OrgScope
	if c.CampusID.Valid {
		scope.CampusID = c.CampusID.Int64
	}
	dept, err := s.department(ctx, c)
	if err != nil {
		return scope, err
	}
	if dept != nil {
		scope.DepartmentID = dept.DepartmentID
		scope.CollegeID = dept.CollegeID
	}
	return scope, nil
}

// CanApprove reports whether u may approve or reject c.
func (s *HierarchyService) CanApprove(ctx context.Context, u *models.User, c *models.Complaint) (bool, error) {
	if u == nil || !u.IsActive {
		return false, nil
	}
	caps := models.CapabilitiesFor(u.Role)
	if caps.ApprovalScope == models.ScopeNone {
		return false, nil
	}
	if caps.ApprovalScope == models.ScopeAll {
		return true, nil
	}
	userScope, err := s.ScopeFor(ctx, u)
	if err != nil {
		return false, err
	}
	complaintScope, err := s.ComplaintScope(ctx, c)
	if err != nil {
		return false, err
	}
	return models.CanApprove(u.Role, userScope, complaintScope), nil
}

// ApprovalFilter narrows the pending-approval queue to what u may approve.
func (s *HierarchyService) ApprovalFilter(ctx context.Context, u *models.User) (models.ApprovalQueueFilter, error) {
	none := models.ApprovalQueueFilter{None: true}
	if u == nil || !u.IsActive {
		return none, nil
	}
	scope, err := s.ScopeFor(ctx, u)
	if err != nil {
		return none, err
	}
	switch models.CapabilitiesFor(u.Role).ApprovalScope {
	case models.ScopeAll:
		return models.ApprovalQueueFilter{}, nil
	case models.ScopeDepartment:
		if scope.DepartmentID != 0 {
			return models.ApprovalQueueFilter{DepartmentID: &scope.DepartmentID}, nil
		}
	case models.ScopeCollege:
		if scope.CollegeID != 0 {
			return models.ApprovalQueueFilter{CollegeID: &scope.CollegeID}, nil
		}
	case models.ScopeCampus:
		if scope.CampusID != 0 {
			return models.ApprovalQueueFilter{CampusID: &scope.CampusID}, nil
		}
	}
	return none, nil
}

// TriageUsers lists active staff who can pick up unrouted complaints.
func (s *HierarchyService) TriageUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.ListActiveUsersByRoles(ctx, []models.Role{
		models.RoleAdmin,
		models.RoleSuperAdmin,
		models.RoleDeptHead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list triage users: %w", err)
	}
	return users, nil
}

// GetUser loads a user by id.
func (s *HierarchyService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *HierarchyService) department(ctx context.Context, c *models.Complaint) (*models.Department, error) {
	if !c.DepartmentID.Valid {
		return nil, nil
	}
	dept, err := s.store.GetDepartment(ctx, c.DepartmentID.Int64)
	if errors.Is(err, models.ErrNotFound) {
		s.log.Warn().Int64("complaint_id", c.ComplaintID).Int64("department_id", c.DepartmentID.Int64).
			Msg("complaint references missing department")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load department: %w", err)
	}
	return dept, nil
}

func (s *HierarchyService) college(ctx context.Context, c *models.Complaint) (*models.College, error) {
	dept, err := s.department(ctx, c)
	if err != nil || dept == nil {
		return nil, err
	}
	college, err := s.store.GetCollege(ctx, dept.CollegeID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load college: %w", err)
	}
	return college, nil
}

// occupant loads a slot holder; empty slots and inactive users resolve to nil.
func (s *HierarchyService) occupant(ctx context.Context, userID int64, set bool) (*models.User, error) {
	if !set {
		return nil, nil
	}
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.IsActive {
		return nil, nil
	}
	return u, nil
}
