package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"complaintdesk/models"
)

// HierarchyRepository reads campuses, colleges, departments and staff
type HierarchyRepository struct {
	db *sqlx.DB
}

// NewHierarchyRepository creates a new hierarchy repository
func NewHierarchyRepository(db *sqlx.DB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

const userColumns = `user_id, username, full_name, email, role, department_id, campus_id, is_active`

func (r *HierarchyRepository) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	var d models.Department
	err := r.db.GetContext(ctx, &d,
		`SELECT department_id, name, college_id, head_id FROM departments WHERE department_id = ?`, id)
	if err != nil {
		return nil, notFound(err, "department", id)
	}
	return &d, nil
}

func (r *HierarchyRepository) GetCollege(ctx context.Context, id int64) (*models.College, error) {
	var c models.College
	err := r.db.GetContext(ctx, &c,
		`SELECT college_id, name, campus_id, dean_id FROM colleges WHERE college_id = ?`, id)
	if err != nil {
		return nil, notFound(err, "college", id)
	}
	return &c, nil
}

func (r *HierarchyRepository) GetCampus(ctx context.Context, id int64) (*models.Campus, error) {
	var c models.Campus
	err := r.db.GetContext(ctx, &c,
		`SELECT campus_id, name, director_id FROM campuses WHERE campus_id = ?`, id)
	if err != nil {
		return nil, notFound(err, "campus", id)
	}
	return &c, nil
}

func (r *HierarchyRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// FindDepartmentByName returns the lowest-id department whose name contains
// pattern, or nil when none does. MySQL's default collation makes LIKE
// case-insensitive.
func (r *HierarchyRepository) FindDepartmentByName(ctx context.Context, pattern string) (*models.Department, error) {
	var d models.Department
	err := r.db.GetContext(ctx, &d, `
		SELECT department_id, name, college_id, head_id
		FROM departments
		WHERE name LIKE CONCAT('%', ?, '%')
		ORDER BY department_id
		LIMIT 1`, pattern)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find department: %w", err)
	}
	return &d, nil
}

// FirstActiveAdmin returns the lowest-id active admin, or nil when there is none
func (r *HierarchyRepository) FirstActiveAdmin(ctx context.Context) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `
		SELECT `+userColumns+`
		FROM users
		WHERE role IN ('admin', 'super_admin') AND is_active = TRUE
		ORDER BY user_id
		LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return &u, nil
}

func (r *HierarchyRepository) ListActiveUsersByRoles(ctx context.Context, roles []models.Role) ([]*models.User, error) {
	users := []*models.User{}
	if len(roles) == 0 {
		return users, nil
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	query, args, err := sqlx.In(
		`SELECT `+userColumns+` FROM users WHERE role IN (?) AND is_active = TRUE ORDER BY user_id`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to build users query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// notFound maps sql.ErrNoRows to models.ErrNotFound and wraps everything else
func notFound(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", entity, id, models.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", entity, err)
}
