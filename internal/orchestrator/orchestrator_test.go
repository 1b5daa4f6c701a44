package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/volunteerdesk/internal/assignment"
	"github.com/kazz187/volunteerdesk/internal/eventbus"
	"github.com/kazz187/volunteerdesk/internal/task"
)

type fakeAssigner struct {
	mu       sync.Mutex
	requests []assignment.AutoAssignRequest
}

func (f *fakeAssigner) AutoAssignTask(_ context.Context, req assignment.AutoAssignRequest) (*assignment.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return &assignment.Result{Success: true, AssignedTo: "vol-1"}, nil
}

func (f *fakeAssigner) contentIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		ids = append(ids, r.ContentID)
	}
	return ids
}

func TestOrchestrator_AutoAssignsUnassignedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := eventbus.New()
	assigner := &fakeAssigner{}
	o := New(bus, assigner)

	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	// Publish until the orchestrator has subscribed.
	require.Eventually(t, func() bool {
		bus.PublishNew(eventbus.EventTaskCreated, "preassigned", map[string]string{task.MetaAssignedTo: "vol-2"})
		bus.PublishNew(eventbus.EventTaskAssigned, "assigned", map[string]string{task.MetaAssignedTo: "vol-2"})
		bus.PublishNew(eventbus.EventTaskCreated, "open", map[string]string{task.MetaAssignedTo: ""})
		return len(assigner.contentIDs()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	for _, id := range assigner.contentIDs() {
		assert.Equal(t, "open", id)
	}
}
