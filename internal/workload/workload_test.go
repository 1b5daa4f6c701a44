package workload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/internal/volunteer/repositoryimpl"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
	"github.com/kazz187/volunteerdesk/pkg/storage"
)

type fakeTasks struct {
	tasks []*content.Task
	err   error
	calls int
}

func (f *fakeTasks) AssignedTasks(context.Context) ([]*content.Task, error) {
	f.calls++
	return f.tasks, f.err
}

func seedVolunteers(t *testing.T) volunteer.Repository {
	t.Helper()
	repo := repositoryimpl.NewYAMLRepository(storage.NewMemoryStorage())
	ctx := context.Background()
	profiles := []*volunteer.Profile{
		{ID: "busy", IsApproved: true, Preferences: volunteer.Preferences{TaskAssignments: true}, Tags: []string{"skill:writing"}},
		{ID: "idle", IsApproved: true, Preferences: volunteer.Preferences{TaskAssignments: true}, Tags: []string{"skill:design"}},
		{ID: "unapproved", Preferences: volunteer.Preferences{TaskAssignments: true}, Tags: []string{"skill:design"}},
		{ID: "opted-out", IsApproved: true, Tags: []string{"skill:design"}},
		{ID: "untagged", IsApproved: true, Preferences: volunteer.Preferences{TaskAssignments: true}},
	}
	for _, p := range profiles {
		require.NoError(t, repo.Upsert(ctx, p))
	}
	return repo
}

func TestVolunteerWorkloads(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	tasks := &fakeTasks{tasks: []*content.Task{
		{AssignedTo: "busy", Status: content.StatusClaimed},
		{AssignedTo: "busy", Status: content.StatusInProgress},
		{AssignedTo: "busy", Status: content.StatusCompleted, CreatedAt: start, UpdatedAt: start.Add(30 * time.Minute)},
		{AssignedTo: "busy", Status: content.StatusCompleted, CreatedAt: start, UpdatedAt: start.Add(90 * time.Minute)},
		{AssignedTo: "opted-out", Status: content.StatusClaimed},
	}}
	agg := NewAggregator(seedVolunteers(t), tasks)

	workloads, err := agg.VolunteerWorkloads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tasks.calls, "one batched query")
	require.Len(t, workloads, 2)

	assert.Equal(t, &Workload{VolunteerID: "busy", CurrentTasks: 2, CompletedTasks: 2, AverageCompletionTime: 60}, workloads["busy"])
	assert.Equal(t, &Workload{VolunteerID: "idle"}, workloads["idle"])
}

func TestVolunteerWorkloads_Errors(t *testing.T) {
	boom := errors.New("store down")
	agg := NewAggregator(seedVolunteers(t), &fakeTasks{err: boom})
	_, err := agg.VolunteerWorkloads(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestVolunteerWorkload(t *testing.T) {
	tasks := &fakeTasks{tasks: []*content.Task{
		{AssignedTo: "opted-out", Status: content.StatusClaimed},
		{AssignedTo: "busy", Status: content.StatusClaimed},
	}}
	agg := NewAggregator(seedVolunteers(t), tasks)

	w, err := agg.VolunteerWorkload(context.Background(), "opted-out")
	require.NoError(t, err)
	assert.Equal(t, 1, w.CurrentTasks)

	_, err = agg.VolunteerWorkload(context.Background(), "nobody")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}
