package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/models"
)

func int64Ptr(v int64) *int64 { return &v }

func networkRequest() *models.CreateComplaintRequest {
	return &models.CreateComplaintRequest{
		Title:       "  WiFi down  ",
		Description: "No connectivity in lab 3",
		CategoryID:  int64Ptr(categoryNetwork),
		CampusID:    int64Ptr(campusMain),
	}
}

func TestSubmitRoutesByCategoryAndStampsDefaults(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, userStudent)

	resp, err := f.complaints.Submit(context.Background(), networkRequest(), student)
	require.NoError(t, err)
	assert.Regexp(t, `^CMP-[0-9A-F]{8}$`, resp.TrackingID)
	assert.Equal(t, models.StatusNew, resp.Status)
	assert.Equal(t, models.RoutingSourceCategoryKeyword, resp.Routing.Source)
	assert.Equal(t, 24, resp.SLA.ResponseHours)
	assert.Equal(t, 168, resp.SLA.ResolutionHours)

	c := f.store.Complaint(resp.ComplaintID)
	assert.Equal(t, "WiFi down", c.Title)
	assert.Equal(t, deptIT, c.DepartmentID.Int64)
	assert.Equal(t, userStudent, c.SubmitterID.Int64)
	assert.Equal(t, models.PriorityMedium, c.Urgency)
	assert.Equal(t, int64(24), c.SLAResponseHours.Int64)
	assert.Equal(t, t0, c.CreatedAt)
	assert.False(t, c.AssignedToID.Valid)

	events := f.store.Events(resp.ComplaintID)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventCreated, events[0].EventType)
	assert.Equal(t, userStudent, events[0].ActorID.Int64)
	assert.Equal(t, models.EventAssigned, events[1].EventType)
	assert.Equal(t, "IT Services", events[1].NewValue)
	assert.Len(t, f.notifier.Sent(models.NotifyAssigned), 1)
}

func TestSubmitAppliesRuleAssignmentAndPriority(t *testing.T) {
	f := newFixture(t)
	f.store.AddRule(rule(1, 10, onCategory(categoryNetwork), func(r *models.RoutingRule) {
		r.AssignUserID = models.NullInt64(userStaff)
		r.AssignDepartmentID = models.NullInt64(deptIT)
		r.SetPriority = models.NullString("critical")
	}))
	f.store.AddSLAConfig(slaConfig(1, models.PriorityCritical, categoryNetwork, campusMain, 1, 4))

	resp, err := f.complaints.Submit(context.Background(), networkRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, resp.Status)
	assert.Equal(t, models.PriorityCritical, resp.Priority)
	require.NotNil(t, resp.SLA.ConfigID)

	c := f.store.Complaint(resp.ComplaintID)
	assert.Equal(t, userStaff, c.AssignedToID.Int64)
	assert.Equal(t, t0, c.AssignedAt.Time)
	assert.Equal(t, int64(1), c.SLAResponseHours.Int64)
	assert.Equal(t, int64(4), c.SLAResolutionHours.Int64)
	assert.Equal(t, models.PriorityMedium, c.Urgency)

	changed := f.store.Events(resp.ComplaintID, models.EventPriorityChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "medium", changed[0].OldValue)
	assert.Equal(t, "critical", changed[0].NewValue)
	assert.Equal(t, "user:50", f.store.Events(resp.ComplaintID, models.EventAssigned)[0].NewValue)
}

func TestSubmitAnonymous(t *testing.T) {
	f := newFixture(t)
	req := networkRequest()
	req.Anonymous = true

	resp, err := f.complaints.Submit(context.Background(), req, f.user(t, userStudent))
	require.NoError(t, err)
	assert.False(t, f.store.Complaint(resp.ComplaintID).SubmitterID.Valid)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		mod  func(r *models.CreateComplaintRequest)
	}{
		{"blank title", func(r *models.CreateComplaintRequest) { r.Title = "  " }},
		{"blank description", func(r *models.CreateComplaintRequest) { r.Description = "" }},
		{"unknown priority", func(r *models.CreateComplaintRequest) { r.Priority = "urgent" }},
		{"unknown urgency", func(r *models.CreateComplaintRequest) { r.Urgency = "soon" }},
		{"unknown category", func(r *models.CreateComplaintRequest) { r.CategoryID = int64Ptr(99) }},
		{"unknown sub-category", func(r *models.CreateComplaintRequest) { r.SubCategoryID = int64Ptr(99) }},
		{"sub-category of another category", func(r *models.CreateComplaintRequest) { r.SubCategoryID = int64Ptr(21) }},
		{"sub-category without category", func(r *models.CreateComplaintRequest) {
			r.CategoryID = nil
			r.SubCategoryID = int64Ptr(11)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := networkRequest()
			tt.mod(req)
			_, err := f.complaints.Submit(context.Background(), req, nil)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
	assert.Zero(t, f.store.Writes)

	_, err := f.complaints.Submit(context.Background(), nil, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSubmitSurvivesRoutingFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailRules = errors.New("rules table missing")

	resp, err := f.complaints.Submit(context.Background(), networkRequest(), nil)
	require.NoError(t, err)
	assert.True(t, resp.Routing.IsEmpty())

	c := f.store.Complaint(resp.ComplaintID)
	assert.Equal(t, models.StatusNew, c.Status)
	assert.False(t, c.DepartmentID.Valid)
	assert.True(t, c.SLAResponseHours.Valid)
	assert.Len(t, f.store.Events(resp.ComplaintID), 1)
}

func TestRecordFirstResponseOnce(t *testing.T) {
	f := newFixture(t)
	id := f.openComplaint()
	head := f.user(t, userHead)

	f.clock.Set(t0.Add(20 * time.Minute))
	c, err := f.complaints.RecordFirstResponse(context.Background(), id, head)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(20*time.Minute), c.FirstResponseAt.Time)

	f.clock.Advance(time.Hour)
	c, err = f.complaints.RecordFirstResponse(context.Background(), id, head)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(20*time.Minute), c.FirstResponseAt.Time)
	assert.Len(t, f.store.Events(id, models.EventFirstResponse), 1)

	_, err = f.complaints.RecordFirstResponse(context.Background(), id, f.user(t, userStudent))
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	// A response before the budget runs out prevents a response breach.
	breached, err := f.monitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, breached)
}

func TestChangeStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	id := f.openComplaint(assignedTo(userStaff))
	assignee := f.user(t, userStaff)
	ctx := context.Background()

	f.clock.Set(t0.Add(time.Hour))
	c, err := f.complaints.ChangeStatus(ctx, id, assignee, "in_progress", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, c.Status)
	assert.Equal(t, t0.Add(time.Hour), c.InProgressAt.Time)

	f.clock.Set(t0.Add(2 * time.Hour))
	c, err = f.complaints.ChangeStatus(ctx, id, assignee, "resolved", "router replaced")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(2*time.Hour), c.ResolvedAt.Time)
	resolved := f.store.Events(id, models.EventResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, "in_progress", resolved[0].OldValue)
	assert.Len(t, f.notifier.Sent(models.NotifyResolved), 1)

	c, err = f.complaints.ChangeStatus(ctx, id, f.user(t, userHead), "in_progress", "still flaky")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, c.Status)
	assert.Len(t, f.store.Events(id, models.EventReopened), 1)
}

func TestChangeStatusErrors(t *testing.T) {
	f := newFixture(t)
	id := f.openComplaint()
	head := f.user(t, userHead)
	ctx := context.Background()

	_, err := f.complaints.ChangeStatus(ctx, id, head, "archived", "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.complaints.ChangeStatus(ctx, id, head, "closed", "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.complaints.ChangeStatus(ctx, id, head, "rejected", " ")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.complaints.ChangeStatus(ctx, id, f.user(t, userStudent), "in_progress", "")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	_, err = f.complaints.ChangeStatus(ctx, id, nil, "in_progress", "")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	assert.Equal(t, models.StatusNew, f.store.Complaint(id).Status)
	assert.Empty(t, f.store.Events(id))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusNew, models.StatusAssigned))
	assert.True(t, CanTransition(models.StatusResolved, models.StatusClosed))
	assert.True(t, CanTransition(models.StatusClosed, models.StatusInProgress))
	assert.False(t, CanTransition(models.StatusNew, models.StatusClosed))
	assert.False(t, CanTransition(models.StatusRejected, models.StatusInProgress))
	assert.False(t, CanTransition(models.StatusInProgress, models.StatusNew))
}
