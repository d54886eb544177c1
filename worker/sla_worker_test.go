package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/models"
	"complaintdesk/service"
)

type fakeChecker struct {
	mu    sync.Mutex
	calls []service.CheckOptions
	err   error
	ran   chan struct{}
}

func (f *fakeChecker) Run(_ context.Context, opts service.CheckOptions) (*models.SweepResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	if f.ran != nil {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.SweepResult{Checked: 3, Breached: []int64{1}, Escalated: 1}, nil
}

func (f *fakeChecker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSLAWorkerSweepsOnStartAndStops(t *testing.T) {
	checker := &fakeChecker{ran: make(chan struct{}, 1)}
	opts := service.CheckOptions{Notify: true, Escalate: true}
	w := NewSLAWorker(checker, opts, time.Hour, zerolog.Nop())

	w.Start()
	w.Start()
	select {
	case <-checker.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not sweep on start")
	}
	w.Stop()
	w.Stop()

	assert.Equal(t, 1, checker.count())
	assert.Equal(t, opts, checker.calls[0])
}

func TestSLAWorkerTicks(t *testing.T) {
	checker := &fakeChecker{ran: make(chan struct{}, 1)}
	w := NewSLAWorker(checker, service.CheckOptions{}, 10*time.Millisecond, zerolog.Nop())

	w.Start()
	defer w.Stop()
	for i := 0; i < 3; i++ {
		select {
		case <-checker.ran:
		case <-time.After(5 * time.Second):
			t.Fatalf("sweep %d did not happen", i)
		}
	}
	assert.GreaterOrEqual(t, checker.count(), 3)
}

func TestSLAWorkerLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	checker := &fakeChecker{err: errors.New("db down")}
	w := NewSLAWorker(checker, service.CheckOptions{}, time.Hour, zerolog.New(&buf))

	w.RunOnce(context.Background())
	require.Equal(t, 1, checker.count())
	assert.Contains(t, buf.String(), "SLA sweep failed")
	assert.Contains(t, buf.String(), "db down")
}
