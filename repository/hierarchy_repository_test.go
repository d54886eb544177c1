package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/models"
)

func TestGetDepartment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHierarchyRepository(db)

	mock.ExpectQuery(`SELECT department_id, name, college_id, head_id FROM departments WHERE department_id = \?`).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"department_id", "name", "college_id", "head_id"}).
			AddRow(100, "IT Services", 10, nil))

	d, err := repo.GetDepartment(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "IT Services", d.Name)
	assert.Equal(t, int64(10), d.CollegeID)
	assert.False(t, d.HeadID.Valid)
}

func TestGetCampusNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHierarchyRepository(db)

	mock.ExpectQuery(`FROM campuses WHERE campus_id = \?`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"campus_id", "name", "director_id"}))

	_, err := repo.GetCampus(context.Background(), 9)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetCollegeDatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHierarchyRepository(db)

	mock.ExpectQuery(`FROM colleges WHERE college_id = \?`).
		WithArgs(int64(3)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetCollege(context.Background(), 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to get college")
}

func TestGetUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHierarchyRepository(db)

	mock.ExpectQuery(`SELECT user_id, username, full_name, email, role, department_id, campus_id, is_active FROM users WHERE user_id = \?`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "full_name", "email", "role", "department_id", "campus_id", "is_active"}).
			AddRow(10, "hhead", "Hana Head", "hana@example.edu", "dept_head", 100, 1, true))

	u, err := repo.GetUser(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDeptHead, u.Role)
	assert.Equal(t, int64(100), u.DepartmentID.Int64)
	assert.True(t, u.IsActive)
}

func TestFindDepartmentByName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHierarchyRepository(db)

	mock.ExpectQuery(`(?s)WHERE name LIKE CONCAT\('%', \?, '%'\).*ORDER BY department_id.*LIMIT 1`).
		WithArgs("Maintenance").
		WillReturnRows(sqlmock.NewRows([]string{"department_id", "name", "college_id", "head_id"}))
	mock.ExpectQuery(`(?s)WHERE name LIKE`).
		WithArgs("IT Services").
		WillReturnRows(sqlmock.NewRows([]string{"department_id", "name", "college_id", "head_id"}).
			AddRow(5, "Campus IT Services", 10, 7))

	d, err := repo.FindDepartmentByName(context.Background(), "Maintenance")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = repo.FindDepartmentByName(context.Background(), "IT Services")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, int64(5), d.DepartmentID)
}

func TestFirstActiveAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHierarchyRepository(db)

	mock.ExpectQuery(`(?s)WHERE role IN \('admin', 'super_admin'\) AND is_active = TRUE.*ORDER BY user_id.*LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "role", "is_active"}))

	u, err := repo.FirstActiveAdmin(context.Background())
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestListActiveUsersByRoles(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHierarchyRepository(db)

	mock.ExpectQuery(`FROM users WHERE role IN \(\?, \?\) AND is_active = TRUE ORDER BY user_id`).
		WithArgs("admin", "dept_head").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "role", "is_active"}).
			AddRow(10, "hhead", "dept_head", true).
			AddRow(40, "admin", "admin", true))

	users, err := repo.ListActiveUsersByRoles(context.Background(), []models.Role{models.RoleAdmin, models.RoleDeptHead})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(40), users[1].UserID)

	users, err = repo.ListActiveUsersByRoles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}
