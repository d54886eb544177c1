package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"complaintdesk/metrics"
	"complaintdesk/models"
	"complaintdesk/service/servicetest"
)

var t0 = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

const (
	campusMain  int64 = 1
	campusNorth int64 = 2

	collegeEng  int64 = 10
	collegeArts int64 = 11

	deptIT          int64 = 100
	deptMaintenance int64 = 101
	deptLibrary     int64 = 200

	userHead        int64 = 10
	userDean        int64 = 20
	userDirector    int64 = 30
	userAdmin       int64 = 40
	userOldAdmin    int64 = 39
	userStaff       int64 = 50
	userStudent     int64 = 60
	userLibraryHead int64 = 70
	userArtsDean    int64 = 80

	categoryNetwork int64 = 1
	categoryMisc    int64 = 2
)

type fixture struct {
	store    *servicetest.Store
	notifier *servicetest.Notifier
	clock    *servicetest.Clock
	metrics  *metrics.Metrics

	hierarchy  *HierarchyService
	routing    *RoutingEngine
	calculator *SLACalculator
	monitor    *SLAMonitor
	escalation *EscalationService
	approval   *ApprovalService
	complaints *ComplaintService
	check      *SLACheck
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := servicetest.NewStore()
	seedOrg(store)
	return newFixtureWithStore(t, store, nil)
}

func newFixtureWithStore(t *testing.T, store *servicetest.Store, keywords models.KeywordTable) *fixture {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	log := zerolog.Nop()
	clock := servicetest.NewClock(t0)
	notifier := &servicetest.Notifier{}

	f := &fixture{store: store, notifier: notifier, clock: clock, metrics: m}
	f.hierarchy = NewHierarchyService(store, log)
	f.routing = NewRoutingEngine(store, store, keywords, m, log)
	f.calculator = NewSLACalculator(store, store, log)
	f.monitor = NewSLAMonitor(store, f.calculator, store, clock.Now, m, log)
	f.escalation = NewEscalationService(store, f.hierarchy, f.monitor, store, notifier, clock.Now, m, log)
	f.approval = NewApprovalService(store, f.hierarchy, store, notifier, clock.Now, m, log)
	f.complaints = NewComplaintService(store, store, f.routing, f.calculator, store, notifier, clock.Now, log)
	f.check = NewSLACheck(f.monitor, f.escalation, notifier, log)
	return f
}

func seedOrg(s *servicetest.Store) {
	s.AddCampus(models.Campus{CampusID: campusMain, Name: "Main", DirectorID: models.NullInt64(userDirector)})
	s.AddCampus(models.Campus{CampusID: campusNorth, Name: "North"})

	s.AddCollege(models.College{CollegeID: collegeEng, Name: "Engineering", CampusID: campusMain, DeanID: models.NullInt64(userDean)})
	s.AddCollege(models.College{CollegeID: collegeArts, Name: "Arts", CampusID: campusNorth, DeanID: models.NullInt64(userArtsDean)})

	s.AddDepartment(models.Department{DepartmentID: deptIT, Name: "IT Services", CollegeID: collegeEng, HeadID: models.NullInt64(userHead)})
	s.AddDepartment(models.Department{DepartmentID: deptMaintenance, Name: "Maintenance", CollegeID: collegeEng})
	s.AddDepartment(models.Department{DepartmentID: deptLibrary, Name: "Library", CollegeID: collegeArts, HeadID: models.NullInt64(userLibraryHead)})

	s.AddUser(staff(userHead, "Hana Head", models.RoleDeptHead, deptIT, campusMain))
	s.AddUser(staff(userDean, "Dana Dean", models.RoleDean, deptIT, campusMain))
	s.AddUser(staff(userDirector, "Dora Director", models.RoleCampusDirector, 0, campusMain))
	s.AddUser(staff(userAdmin, "Ada Admin", models.RoleAdmin, 0, 0))
	oldAdmin := staff(userOldAdmin, "Old Admin", models.RoleAdmin, 0, 0)
	oldAdmin.IsActive = false
	s.AddUser(oldAdmin)
	s.AddUser(staff(userStaff, "Sam Staff", models.RoleNonAcademic, deptIT, campusMain))
	s.AddUser(staff(userStudent, "Stu Dent", models.RoleStudent, 0, campusMain))
	s.AddUser(staff(userLibraryHead, "Lib Head", models.RoleDeptHead, deptLibrary, campusNorth))
	s.AddUser(staff(userArtsDean, "Art Dean", models.RoleDean, deptLibrary, campusNorth))

	s.AddCategory(models.Category{CategoryID: categoryNetwork, Name: "Network", IsActive: true})
	s.AddCategory(models.Category{CategoryID: categoryMisc, Name: "Misc", IsActive: true})
	s.AddSubCategory(models.SubCategory{SubCategoryID: 11, CategoryID: categoryNetwork, Name: "WiFi", IsActive: true})
	s.AddSubCategory(models.SubCategory{SubCategoryID: 21, CategoryID: categoryMisc, Name: "Other", IsActive: true})
}

func staff(id int64, name string, role models.Role, dept, campus int64) models.User {
	u := models.User{UserID: id, Username: name, FullName: name, Email: "user@example.edu", Role: role, IsActive: true}
	if dept != 0 {
		u.DepartmentID = models.NullInt64(dept)
	}
	if campus != 0 {
		u.CampusID = models.NullInt64(campus)
	}
	return u
}

func (f *fixture) user(t *testing.T, id int64) *models.User {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

// openComplaint stores a new IT complaint created at t0 with a 1h/4h budget.
func (f *fixture) openComplaint(mods ...func(c *models.Complaint)) int64 {
	c := models.Complaint{
		TrackingID:         models.NewTrackingID(),
		Title:              "WiFi down",
		Description:        "No connectivity in lab 3",
		CategoryID:         models.NullInt64(categoryNetwork),
		CategoryName:       models.NullString("Network"),
		CampusID:           models.NullInt64(campusMain),
		DepartmentID:       models.NullInt64(deptIT),
		Status:             models.StatusNew,
		Priority:           models.PriorityMedium,
		Urgency:            models.PriorityMedium,
		SLAResponseHours:   models.NullInt64(1),
		SLAResolutionHours: models.NullInt64(4),
		CreatedAt:          t0,
	}
	for _, mod := range mods {
		mod(&c)
	}
	return f.store.PutComplaint(c)
}

func withoutSLA(c *models.Complaint) {
	c.SLAResponseHours = sql.NullInt64{}
	c.SLAResolutionHours = sql.NullInt64{}
}

func atLevel(level models.EscalationLevel) func(c *models.Complaint) {
	return func(c *models.Complaint) {
		c.EscalationLevel = level
		c.Escalated = level > models.LevelNone
	}
}
