package models

import (
	"database/sql"
	"fmt"
)

// Campus is the top of the organizational hierarchy; its director is escalation level 3.
type Campus struct {
	CampusID   int64         `db:"campus_id" json:"campus_id"`
	Name       string        `db:"name" json:"name"`
	DirectorID sql.NullInt64 `db:"director_id" json:"director_id"`
}

// College belongs to a campus; its dean is escalation level 2.
type College struct {
	CollegeID int64         `db:"college_id" json:"college_id"`
	Name      string        `db:"name" json:"name"`
	CampusID  int64         `db:"campus_id" json:"campus_id"`
	DeanID    sql.NullInt64 `db:"dean_id" json:"dean_id"`
}

// Department belongs to a college; its head is escalation level 1.
type Department struct {
	DepartmentID int64         `db:"department_id" json:"department_id"`
	Name         string        `db:"name" json:"name"`
	CollegeID    int64         `db:"college_id" json:"college_id"`
	HeadID       sql.NullInt64 `db:"head_id" json:"head_id"`
}

// Role is the closed set of staff and submitter roles.
type Role string

const (
	RoleStudent        Role = "student"
	RoleAcademic       Role = "academic"
	RoleNonAcademic    Role = "non_academic"
	RoleProctor        Role = "proctor"
	RoleDeptHead       Role = "dept_head"
	RoleDean           Role = "dean"
	RoleCampusDirector Role = "campus_director"
	RoleMaintenance    Role = "maintenance"
	RoleAdmin          Role = "admin"
	RoleSuperAdmin     Role = "super_admin"
)

// ParseRole converts a stored role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleCapabilities[r]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}

// IsAdmin reports whether the role is admin or super_admin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ApprovalScope is the organizational reach of a role's approval rights.
type ApprovalScope int

const (
	ScopeNone ApprovalScope = iota
	ScopeDepartment
	ScopeCollege
	ScopeCampus
	ScopeAll
)

// Capabilities describes what a role may do in the workflow.
type Capabilities struct {
	ApprovalScope ApprovalScope
	CanAssign     bool
	CanEscalate   bool
}

var roleCapabilities = map[Role]Capabilities{
	RoleStudent:        {ApprovalScope: ScopeNone},
	RoleAcademic:       {ApprovalScope: ScopeNone},
	RoleNonAcademic:    {ApprovalScope: ScopeNone},
	RoleProctor:        {ApprovalScope: ScopeNone, CanEscalate: true},
	RoleMaintenance:    {ApprovalScope: ScopeNone},
	RoleDeptHead:       {ApprovalScope: ScopeDepartment, CanAssign: true, CanEscalate: true},
	RoleDean:           {ApprovalScope: ScopeCollege, CanAssign: true, CanEscalate: true},
	RoleCampusDirector: {ApprovalScope: ScopeCampus, CanAssign: true, CanEscalate: true},
	RoleAdmin:          {ApprovalScope: ScopeAll, CanAssign: true, CanEscalate: true},
	RoleSuperAdmin:     {ApprovalScope: ScopeAll, CanAssign: true, CanEscalate: true},
}

// CapabilitiesFor returns the capability row for a role; unknown roles get none.
func CapabilitiesFor(r Role) Capabilities {
	return roleCapabilities[r]
}

// User is a staff member or submitter.
type User struct {
	UserID       int64         `db:"user_id" json:"user_id"`
	Username     string        `db:"username" json:"username"`
	FullName     string        `db:"full_name" json:"full_name"`
	Email        string        `db:"email" json:"email"`
	Role         Role          `db:"role" json:"role"`
	DepartmentID sql.NullInt64 `db:"department_id" json:"department_id"`
	CampusID     sql.NullInt64 `db:"campus_id" json:"campus_id"`
	IsActive     bool          `db:"is_active" json:"is_active"`
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return "system"
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// OrgScope locates a user or complaint in the hierarchy. Zero ids mean "unknown".
type OrgScope struct {
	DepartmentID int64
	CollegeID    int64
	CampusID     int64
}

// CanApprove is the pure approval check: admins approve anything, every other
// approving role must share the scoped unit with the complaint.
func CanApprove(role Role, user, complaint OrgScope) bool {
	switch CapabilitiesFor(role).ApprovalScope {
	case ScopeAll:
		return true
	case ScopeDepartment:
		return user.DepartmentID != 0 && user.DepartmentID == complaint.DepartmentID
	case ScopeCollege:
		return user.CollegeID != 0 && user.CollegeID == complaint.CollegeID
	case ScopeCampus:
		return user.CampusID != 0 && user.CampusID == complaint.CampusID
	}
	return false
}
