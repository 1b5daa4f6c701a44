package workload

import (
	"context"
	"time"

	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
)

// Workload summarises the tasks held by one volunteer.
type Workload struct {
	VolunteerID    string `json:"volunteer_id"`
	CurrentTasks   int    `json:"current_tasks"` // claimed and in-progress
	CompletedTasks int    `json:"completed_tasks"`
	// AverageCompletionTime in minutes over completed tasks, 0 when none.
	AverageCompletionTime float64 `json:"average_completion_time"`
}

// TaskSource yields every task that has an assignee.
type TaskSource interface {
	AssignedTasks(ctx context.Context) ([]*content.Task, error)
}

type Aggregator struct {
	volunteers volunteer.Repository
	tasks      TaskSource
}

func NewAggregator(volunteers volunteer.Repository, tasks TaskSource) *Aggregator {
	return &Aggregator{volunteers: volunteers, tasks: tasks}
}

// VolunteerWorkloads returns a workload for every volunteer that accepts
// assignments, keyed by volunteer ID. Idle volunteers get zero counts.
func (a *Aggregator) VolunteerWorkloads(ctx context.Context) (map[string]*Workload, error) {
	profiles, err := a.volunteers.List(ctx)
	if err != nil {
		return nil, err
	}
	workloads := make(map[string]*Workload)
	for _, p := range profiles {
		if p.AcceptsAssignments() {
			workloads[p.ID] = &Workload{VolunteerID: p.ID}
		}
	}
	if len(workloads) == 0 {
		return workloads, nil
	}

	tasks, err := a.tasks.AssignedTasks(ctx)
	if err != nil {
		return nil, err
	}
	completion := make(map[string]time.Duration)
	for _, t := range tasks {
		w, ok := workloads[t.AssignedTo]
		if !ok {
			continue
		}
		switch t.Status {
		case content.StatusClaimed, content.StatusInProgress:
			w.CurrentTasks++
		case content.StatusCompleted:
			w.CompletedTasks++
			completion[t.AssignedTo] += t.CompletionTime()
		}
	}
	for id, total := range completion {
		w := workloads[id]
		w.AverageCompletionTime = total.Minutes() / float64(w.CompletedTasks)
	}
	return workloads, nil
}

// VolunteerWorkload computes the workload of a single volunteer regardless of
// whether they currently accept assignments.
func (a *Aggregator) VolunteerWorkload(ctx context.Context, volunteerID string) (*Workload, error) {
	if _, err := a.volunteers.Get(ctx, volunteerID); err != nil {
		return nil, err
	}
	tasks, err := a.tasks.AssignedTasks(ctx)
	if err != nil {
		return nil, err
	}
	w := &Workload{VolunteerID: volunteerID}
	var total time.Duration
	for _, t := range tasks {
		if t.AssignedTo != volunteerID {
			continue
		}
		switch t.Status {
		case content.StatusClaimed, content.StatusInProgress:
			w.CurrentTasks++
		case content.StatusCompleted:
			w.CompletedTasks++
			total += t.CompletionTime()
		}
	}
	if w.CompletedTasks > 0 {
		w.AverageCompletionTime = total.Minutes() / float64(w.CompletedTasks)
	}
	return w, nil
}
