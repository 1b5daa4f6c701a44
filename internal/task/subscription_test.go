package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/volunteerdesk/internal/content"
)

type snapshots struct {
	mu   sync.Mutex
	seen [][]*View
}

func (s *snapshots) add(tasks []*View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, tasks)
}

func (s *snapshots) last() []*View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seen) == 0 {
		return nil
	}
	return s.seen[len(s.seen)-1]
}

func (s *snapshots) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func TestSubscribeToUserTasks(t *testing.T) {
	f := newFixture(t)
	f.addTaskInStatus(t, "c1", content.StatusUnclaimed, "")
	f.addTaskInStatus(t, "c2", content.StatusClaimed, "vol-1")
	ctx := context.Background()

	got := &snapshots{}
	unsubscribe := f.manager.SubscribeToUserTasks(ctx, "vol-1", "", got.add)
	defer unsubscribe()

	require.Eventually(t, func() bool { return got.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, got.last(), 1)

	_, err := f.manager.AssignTask(ctx, "c1", "vol-1", MethodManual)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(got.last()) == 2 }, time.Second, 5*time.Millisecond)

	// Releasing a task notifies the previous assignee.
	_, err = f.manager.UpdateTaskStatus(as("vol-1", "contributor"), "c2", content.StatusUnclaimed, "")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(got.last()) == 1 }, time.Second, 5*time.Millisecond)

	// Changes to other volunteers' tasks are ignored.
	before := got.count()
	f.addTaskInStatus(t, "c3", content.StatusUnclaimed, "")
	_, err = f.manager.AssignTask(ctx, "c3", "vol-2", MethodManual)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, got.count())

	unsubscribe()
	unsubscribe()
	_, err = f.manager.AssignTask(ctx, "c2", "vol-1", MethodManual)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, got.count(), "no delivery after unsubscribe")
}

func TestSubscribeToUserTasks_StatusFilterAndPanics(t *testing.T) {
	f := newFixture(t)
	f.addTaskInStatus(t, "c1", content.StatusClaimed, "vol-1")
	f.addTaskInStatus(t, "c2", content.StatusCompleted, "vol-1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := &snapshots{}
	calls := 0
	unsubscribe := f.manager.SubscribeToUserTasks(ctx, "vol-1", content.StatusCompleted, func(tasks []*View) {
		calls++
		got.add(tasks)
		if calls == 1 {
			panic("first delivery blows up")
		}
	})
	defer unsubscribe()

	require.Eventually(t, func() bool { return got.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Len(t, got.last(), 1)
	assert.Equal(t, "c2", got.last()[0].ContentID)

	_, err := f.manager.UpdateTaskStatus(as("vol-1", "contributor"), "c1", content.StatusCompleted, "")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(got.last()) == 2 }, time.Second, 5*time.Millisecond,
		"subscription survives a panicking callback")
}

func TestSubscribeToUserTasks_UnsubscribeWaitsForCallback(t *testing.T) {
	f := newFixture(t)
	f.addTaskInStatus(t, "c1", content.StatusClaimed, "vol-1")
	f.addTaskInStatus(t, "c2", content.StatusUnclaimed, "")
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	got := &snapshots{}
	unsubscribe := f.manager.SubscribeToUserTasks(ctx, "vol-1", "", func(tasks []*View) {
		got.add(tasks)
		if got.count() == 1 {
			close(entered)
			<-release
		}
	})

	<-entered
	returned := make(chan struct{})
	go func() {
		unsubscribe()
		close(returned)
	}()

	select {
	case <-returned:
		t.Fatal("unsubscribe returned while a delivery was in progress")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	require.Eventually(t, func() bool {
		select {
		case <-returned:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	_, err := f.manager.AssignTask(ctx, "c2", "vol-1", MethodManual)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, got.count(), "no delivery after unsubscribe returns")
}

func TestSubscribeToUserTasks_WithoutBus(t *testing.T) {
	f := newFixture(t)
	f.addTaskInStatus(t, "c1", content.StatusClaimed, "vol-1")
	manager := NewManager(f.contents, f.volunteers, nil)

	got := &snapshots{}
	var unsubscribe func()
	require.NotPanics(t, func() {
		unsubscribe = manager.SubscribeToUserTasks(context.Background(), "vol-1", "", got.add)
	})
	require.Eventually(t, func() bool { return got.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, got.last(), 1)

	require.NotPanics(t, unsubscribe)
	require.NotPanics(t, unsubscribe)
}
