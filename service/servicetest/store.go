// Package servicetest provides in-memory stores for exercising the service
// layer without a database.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"complaintdesk/models"
)

// Store implements every service store interface in memory.
type Store struct {
	mu sync.Mutex
	// rowMu serializes Mutate calls the way a row lock would.
	rowMu sync.Mutex

	complaints map[int64]*models.Complaint
	events     []models.ComplaintEvent
	campuses   map[int64]*models.Campus
	colleges   map[int64]*models.College
	depts      map[int64]*models.Department
	users      map[int64]*models.User
	categories map[int64]*models.Category
	subs       map[int64]*models.SubCategory
	rules      []models.RoutingRule
	slas       []models.SLAConfiguration

	nextComplaintID int64
	nextEventID     int64

	// Writes counts committed complaint writes (Create and changed Mutate calls).
	Writes int

	// Injected failures.
	FailRecord       error
	FailListOpen     error
	FailListBreached error
	FailRules        error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		complaints: map[int64]*models.Complaint{},
		campuses:   map[int64]*models.Campus{},
		colleges:   map[int64]*models.College{},
		depts:      map[int64]*models.Department{},
		users:      map[int64]*models.User{},
		categories: map[int64]*models.Category{},
		subs:       map[int64]*models.SubCategory{},
	}
}

// Seeding.

func (s *Store) AddCampus(c models.Campus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campuses[c.CampusID] = &c
}

func (s *Store) AddCollege(c models.College) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colleges[c.CollegeID] = &c
}

func (s *Store) AddDepartment(d models.Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depts[d.DepartmentID] = &d
}

func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UserID] = &u
}

func (s *Store) AddCategory(c models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.CategoryID] = &c
}

func (s *Store) AddSubCategory(c models.SubCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[c.SubCategoryID] = &c
}

func (s *Store) AddRule(r models.RoutingRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
}

func (s *Store) AddSLAConfig(c models.SLAConfiguration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slas = append(s.slas, c)
}

// PutComplaint stores c as-is, assigning an id when it has none.
func (s *Store) PutComplaint(c models.Complaint) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ComplaintID == 0 {
		s.nextComplaintID++
		c.ComplaintID = s.nextComplaintID
	} else if c.ComplaintID > s.nextComplaintID {
		s.nextComplaintID = c.ComplaintID
	}
	s.complaints[c.ComplaintID] = &c
	return c.ComplaintID
}

// Complaint returns a copy of the stored complaint, or nil.
func (s *Store) Complaint(id int64) *models.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// Events returns recorded events for a complaint, optionally filtered by type.
func (s *Store) Events(complaintID int64, types ...models.EventType) []models.ComplaintEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ComplaintEvent
	for _, e := range s.events {
		if e.ComplaintID != complaintID {
			continue
		}
		if len(types) > 0 && !containsType(types, e.EventType) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func containsType(types []models.EventType, t models.EventType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// ComplaintStore.

func (s *Store) Get(_ context.Context, id int64) (*models.Complaint, error) {
	if c := s.Complaint(id); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("complaint %d: %w", id, models.ErrNotFound)
}

func (s *Store) GetByTrackingID(_ context.Context, trackingID string) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.complaints {
		if c.TrackingID == trackingID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("complaint %s: %w", trackingID, models.ErrNotFound)
}

func (s *Store) Create(_ context.Context, c *models.Complaint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextComplaintID++
	cp := *c
	cp.ComplaintID = s.nextComplaintID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.complaints[cp.ComplaintID] = &cp
	s.Writes++
	return cp.ComplaintID, nil
}

func (s *Store) ListOpenIDs(context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailListOpen != nil {
		return nil, s.FailListOpen
	}
	var ids []int64
	for id, c := range s.complaints {
		if c.Status.IsOpen() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) ListBreachedBelowLevel(_ context.Context, level models.EscalationLevel) ([]models.EscalationCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailListBreached != nil {
		return nil, s.FailListBreached
	}
	out := []models.EscalationCandidate{}
	for id, c := range s.complaints {
		if !c.Status.IsOpen() || c.EscalationLevel >= level {
			continue
		}
		if c.SLAResponseBreached || c.SLAResolutionBreached {
			out = append(out, models.EscalationCandidate{ComplaintID: id, EscalationLevel: c.EscalationLevel})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComplaintID < out[j].ComplaintID })
	return out, nil
}

// Mutate serializes callers for the duration of fn, so concurrent callers
// see each other's committed writes. fn may read from the store.
func (s *Store) Mutate(_ context.Context, id int64, fn func(c *models.Complaint) (bool, error)) (*models.Complaint, error) {
	s.rowMu.Lock()
	defer s.rowMu.Unlock()

	working := s.Complaint(id)
	if working == nil {
		return nil, fmt.Errorf("complaint %d: %w", id, models.ErrNotFound)
	}
	original := *working
	changed, err := fn(working)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &original, nil
	}
	s.mu.Lock()
	committed := *working
	s.complaints[id] = &committed
	s.Writes++
	s.mu.Unlock()
	return working, nil
}

func (s *Store) ListPendingApprovals(_ context.Context, f models.ApprovalQueueFilter) ([]*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Complaint
	if f.None {
		return out, nil
	}
	for _, c := range s.complaints {
		if !c.RequiresApproval || c.ApprovedByID.Valid {
			continue
		}
		if f.DepartmentID != nil && (!c.DepartmentID.Valid || c.DepartmentID.Int64 != *f.DepartmentID) {
			continue
		}
		if f.CampusID != nil && (!c.CampusID.Valid || c.CampusID.Int64 != *f.CampusID) {
			continue
		}
		if f.CollegeID != nil {
			if !c.DepartmentID.Valid {
				continue
			}
			d, ok := s.depts[c.DepartmentID.Int64]
			if !ok || d.CollegeID != *f.CollegeID {
				continue
			}
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComplaintID < out[j].ComplaintID })
	return out, nil
}

// HierarchyStore.

func (s *Store) GetDepartment(_ context.Context, id int64) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.depts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, fmt.Errorf("department %d: %w", id, models.ErrNotFound)
}

func (s *Store) GetCollege(_ context.Context, id int64) (*models.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.colleges[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, fmt.Errorf("college %d: %w", id, models.ErrNotFound)
}

func (s *Store) GetCampus(_ context.Context, id int64) (*models.Campus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campuses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, fmt.Errorf("campus %d: %w", id, models.ErrNotFound)
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
}

func (s *Store) FindDepartmentByName(_ context.Context, pattern string) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Department
	needle := strings.ToLower(pattern)
	for _, d := range s.depts {
		if !strings.Contains(strings.ToLower(d.Name), needle) {
			continue
		}
		if best == nil || d.DepartmentID < best.DepartmentID {
			best = d
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *Store) FirstActiveAdmin(ctx context.Context) (*models.User, error) {
	users, err := s.ListActiveUsersByRoles(ctx, []models.Role{models.RoleAdmin, models.RoleSuperAdmin})
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return users[0], nil
}

func (s *Store) ListActiveUsersByRoles(_ context.Context, roles []models.Role) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.users {
		if !u.IsActive {
			continue
		}
		for _, r := range roles {
			if u.Role == r {
				cp := *u
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// CategoryStore.

func (s *Store) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, fmt.Errorf("category %d: %w", id, models.ErrNotFound)
}

func (s *Store) GetSubCategory(_ context.Context, id int64) (*models.SubCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.subs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, fmt.Errorf("sub-category %d: %w", id, models.ErrNotFound)
}

// RoutingRuleStore. Rules come back in insertion order; the engine sorts them.

func (s *Store) ListActive(context.Context) ([]models.RoutingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRules != nil {
		return nil, s.FailRules
	}
	var out []models.RoutingRule
	for _, r := range s.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

// SLAConfigStore.

func (s *Store) ListActiveByPriority(_ context.Context, p models.Priority) ([]models.SLAConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SLAConfiguration
	for _, c := range s.slas {
		if c.IsActive && c.Priority == p {
			out = append(out, c)
		}
	}
	return out, nil
}

// EventStore.

func (s *Store) Record(_ context.Context, e *models.ComplaintEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRecord != nil {
		return s.FailRecord
	}
	s.nextEventID++
	cp := *e
	cp.EventID = s.nextEventID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.events = append(s.events, cp)
	return nil
}

func (s *Store) ListForComplaint(_ context.Context, complaintID int64) ([]models.ComplaintEvent, error) {
	return s.Events(complaintID), nil
}
