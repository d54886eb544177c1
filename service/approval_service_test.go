package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/models"
	"complaintdesk/service/servicetest"
)

func inLibrary(c *models.Complaint) {
	c.DepartmentID = models.NullInt64(deptLibrary)
	c.CampusID = models.NullInt64(campusNorth)
}

func awaitingApproval(c *models.Complaint) { c.RequiresApproval = true }

func assignedTo(id int64) func(c *models.Complaint) {
	return func(c *models.Complaint) {
		c.AssignedToID = models.NullInt64(id)
		c.Status = models.StatusAssigned
	}
}

func TestCanApprove(t *testing.T) {
	f := newFixture(t)
	it := f.store.Complaint(f.openComplaint())
	maintenance := f.store.Complaint(f.openComplaint(func(c *models.Complaint) {
		c.DepartmentID = models.NullInt64(deptMaintenance)
	}))
	library := f.store.Complaint(f.openComplaint(inLibrary))

	tests := []struct {
		name      string
		user      int64
		complaint *models.Complaint
		want      bool
	}{
		{"admin anywhere", userAdmin, library, true},
		{"inactive admin", userOldAdmin, it, false},
		{"head of own department", userHead, it, true},
		{"head of other department", userHead, maintenance, false},
		{"dean within college", userDean, maintenance, true},
		{"dean of other college", userDean, library, false},
		{"director on own campus", userDirector, it, true},
		{"director on other campus", userDirector, library, false},
		{"staff", userStaff, it, false},
		{"student", userStudent, it, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.approval.CanApprove(context.Background(), f.user(t, tt.user), tt.complaint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCanApproveRequiresKnownUnit(t *testing.T) {
	f := newFixture(t)
	orphan := f.store.Complaint(f.openComplaint(func(c *models.Complaint) { c.DepartmentID.Valid = false }))

	ok, err := f.approval.CanApprove(context.Background(), f.user(t, userHead), orphan)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.approval.CanApprove(context.Background(), nil, orphan)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	id := f.openComplaint(awaitingApproval)
	head := f.user(t, userHead)

	c, err := f.approval.Approve(context.Background(), id, head, " looks fine ")
	require.NoError(t, err)
	assert.Equal(t, userHead, c.ApprovedByID.Int64)
	assert.Equal(t, t0, c.ApprovedAt.Time)
	assert.Equal(t, "looks fine", c.ApprovalNotes.String)
	assert.False(t, c.RequiresApproval)

	events := f.store.Events(id, models.EventStatusChanged)
	require.Len(t, events, 1)
	assert.Equal(t, "Pending Approval", events[0].OldValue)
	assert.Equal(t, "Approved", events[0].NewValue)
	assert.Equal(t, "Approved by Hana Head: looks fine", events[0].Notes)
	assert.Len(t, f.notifier.Sent(models.NotifyReviewed), 1)

	// A second approval conflicts and leaves the first one intact.
	f.clock.Advance(time.Hour)
	_, err = f.approval.Approve(context.Background(), id, f.user(t, userAdmin), "again")
	assert.ErrorIs(t, err, models.ErrConflict)
	stored := f.store.Complaint(id)
	assert.Equal(t, userHead, stored.ApprovedByID.Int64)
	assert.Equal(t, t0, stored.ApprovedAt.Time)
	assert.Len(t, f.store.Events(id, models.EventStatusChanged), 1)
}

func TestApproveOutsideScope(t *testing.T) {
	f := newFixture(t)
	id := f.openComplaint(awaitingApproval)

	_, err := f.approval.Approve(context.Background(), id, f.user(t, userLibraryHead), "")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.False(t, f.store.Complaint(id).ApprovedByID.Valid)

	_, err = f.approval.Approve(context.Background(), 404, f.user(t, userAdmin), "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	id := f.openComplaint(awaitingApproval)
	dean := f.user(t, userDean)

	_, err := f.approval.Reject(context.Background(), id, dean, "   ")
	assert.ErrorIs(t, err, models.ErrValidation)

	c, err := f.approval.Reject(context.Background(), id, dean, "duplicate of CMP-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, c.Status)
	assert.Equal(t, "duplicate of CMP-1", c.RejectionReason.String)
	assert.False(t, c.RequiresApproval)

	events := f.store.Events(id, models.EventRejected)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].OldValue)
	assert.Equal(t, "rejected", events[0].NewValue)
	assert.Equal(t, "Rejected by Dana Dean: duplicate of CMP-1", events[0].Notes)

	_, err = f.approval.Reject(context.Background(), id, dean, "again")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Len(t, f.notifier.Sent(models.NotifyRejected), 1)
}

func TestRequestApprovalPicksApprover(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, userAdmin)

	tests := []struct {
		name string
		mods []func(c *models.Complaint)
		want int64
	}{
		{"critical goes to campus director", []func(c *models.Complaint){
			func(c *models.Complaint) { c.Priority = models.PriorityCritical },
		}, userDirector},
		{"high without director goes to dean", []func(c *models.Complaint){
			inLibrary, func(c *models.Complaint) { c.Priority = models.PriorityHigh },
		}, userArtsDean},
		{"medium goes to department head", nil, userHead},
		{"no head falls back to admin", []func(c *models.Complaint){
			func(c *models.Complaint) { c.DepartmentID = models.NullInt64(deptMaintenance) },
		}, userAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := f.openComplaint(tt.mods...)
			approver, err := f.approval.RequestApproval(context.Background(), id, admin)
			require.NoError(t, err)
			assert.Equal(t, tt.want, approver.UserID)
			assert.True(t, f.store.Complaint(id).RequiresApproval)
		})
	}
}

func TestRequestApprovalByAssignee(t *testing.T) {
	f := newFixture(t)
	id := f.openComplaint(assignedTo(userStaff))

	approver, err := f.approval.RequestApproval(context.Background(), id, f.user(t, userStaff))
	require.NoError(t, err)
	assert.Equal(t, userHead, approver.UserID)

	events := f.store.Events(id, models.EventStatusChanged)
	require.Len(t, events, 1)
	assert.Equal(t, "assigned", events[0].OldValue)
	assert.Equal(t, "Pending Approval", events[0].NewValue)
	assert.Equal(t, "Approval requested from Hana Head", events[0].Notes)

	sent := f.notifier.Sent(models.NotifyApprovalAsked)
	require.Len(t, sent, 1)
	assert.Equal(t, "10", sent[0].Extra["recipient_user_id"])

	_, err = f.approval.RequestApproval(context.Background(), id, f.user(t, userStaff))
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestRequestApprovalRejections(t *testing.T) {
	f := newFixture(t)
	unassigned := f.openComplaint()
	approved := f.openComplaint(func(c *models.Complaint) {
		c.ApprovedByID = models.NullInt64(userHead)
		c.ApprovedAt = models.NullTime(t0)
	})

	_, err := f.approval.RequestApproval(context.Background(), unassigned, f.user(t, userStaff))
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	_, err = f.approval.RequestApproval(context.Background(), approved, f.user(t, userAdmin))
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestRequestApprovalWithoutApprover(t *testing.T) {
	// Empty hierarchy: no department, no campus, no admins.
	f := newFixtureWithStore(t, servicetest.NewStore(), nil)
	id := f.openComplaint(assignedTo(userStaff))
	requester := staff(userStaff, "Sam Staff", models.RoleNonAcademic, deptIT, campusMain)

	_, err := f.approval.RequestApproval(context.Background(), id, &requester)
	assert.ErrorIs(t, err, models.ErrNoApprover)
	assert.False(t, f.store.Complaint(id).RequiresApproval)
	assert.Empty(t, f.store.Events(id))
	assert.Empty(t, f.notifier.Sent())
}

func TestPendingApprovalsAreScoped(t *testing.T) {
	f := newFixture(t)
	it := f.openComplaint(awaitingApproval)
	library := f.openComplaint(inLibrary, awaitingApproval)
	f.openComplaint(awaitingApproval, func(c *models.Complaint) { c.ApprovedByID = models.NullInt64(userHead) })
	f.openComplaint()

	ids := func(user int64) []int64 {
		list, err := f.approval.PendingApprovals(context.Background(), f.user(t, user))
		require.NoError(t, err)
		out := []int64{}
		for _, c := range list {
			out = append(out, c.ComplaintID)
		}
		return out
	}

	assert.Equal(t, []int64{it, library}, ids(userAdmin))
	assert.Equal(t, []int64{it}, ids(userHead))
	assert.Equal(t, []int64{it}, ids(userDean))
	assert.Equal(t, []int64{it}, ids(userDirector))
	assert.Equal(t, []int64{library}, ids(userArtsDean))
	assert.Equal(t, []int64{}, ids(userStudent))
}
