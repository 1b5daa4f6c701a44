package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

const profileFetchConcurrency = 8

// View is a task together with its content record and the fields derived at
// query time. TimeRemaining and IsOverdue are nil when there is no due date.
type View struct {
	ContentID    string `json:"content_id"`
	ContentTitle string `json:"content_title"`
	ContentKind  string `json:"content_kind"`
	content.Task
	TimeRemaining     *int   `json:"time_remaining,omitempty"`
	IsOverdue         *bool  `json:"is_overdue,omitempty"`
	AssignedUserName  string `json:"assigned_user_name,omitempty"`
	AssignedUserEmail string `json:"assigned_user_email,omitempty"`
}

func (m *Manager) view(rec *content.Record, now time.Time) *View {
	v := &View{
		ContentID:    rec.ID,
		ContentTitle: rec.Title,
		ContentKind:  rec.Kind,
		Task:         *rec.Task,
	}
	if due := rec.Task.DueDate; due != nil {
		remaining := 0
		if d := due.Sub(now); d > 0 {
			remaining = int(d / time.Minute)
		}
		overdue := isOverdue(rec.Task, now)
		v.TimeRemaining = &remaining
		v.IsOverdue = &overdue
	}
	return v
}

func isOverdue(t *content.Task, now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != content.StatusCompleted
}

func (m *Manager) views(records []*content.Record) []*View {
	now := m.now()
	views := make([]*View, 0, len(records))
	for _, rec := range records {
		views = append(views, m.view(rec, now))
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views
}

func statusFilter(status content.Status) []content.Status {
	if status == "" {
		return nil
	}
	return []content.Status{status}
}

// GetUserTasks lists the tasks assigned to userID, newest first. An empty
// status matches every status.
func (m *Manager) GetUserTasks(ctx context.Context, userID string, status content.Status) ([]*View, error) {
	if status != "" && !status.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown status", nil)
	}
	records, err := m.contents.List(ctx, content.Filter{AssignedTo: userID, Status: statusFilter(status)})
	if err != nil {
		return nil, err
	}
	return m.views(records), nil
}

// GetTasksByStatus lists tasks across all volunteers, newest first, with the
// assignee's name and email attached. Each distinct assignee is fetched once.
func (m *Manager) GetTasksByStatus(ctx context.Context, status content.Status, limit int) ([]*View, error) {
	if status != "" && !status.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown status", nil)
	}
	records, err := m.contents.List(ctx, content.Filter{HasTask: true, Status: statusFilter(status)})
	if err != nil {
		return nil, err
	}
	views := m.views(records)
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}

	profiles, err := m.fetchProfiles(ctx, views)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		if p, ok := profiles[v.AssignedTo]; ok {
			v.AssignedUserName = p.DisplayName
			v.AssignedUserEmail = p.Email
		}
	}
	return views, nil
}

func (m *Manager) fetchProfiles(ctx context.Context, views []*View) (map[string]*volunteer.Profile, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, v := range views {
		if v.AssignedTo == "" {
			continue
		}
		if _, ok := seen[v.AssignedTo]; ok {
			continue
		}
		seen[v.AssignedTo] = struct{}{}
		ids = append(ids, v.AssignedTo)
	}

	var mu sync.Mutex
	profiles := make(map[string]*volunteer.Profile, len(ids))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(profileFetchConcurrency)
	for _, id := range ids {
		p.Go(func(ctx context.Context) error {
			profile, err := m.volunteers.Get(ctx, id)
			if cerr.IsCode(err, cerr.NotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			profiles[id] = profile
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

type Statistics struct {
	TotalTasks      int `json:"total_tasks"`
	UnclaimedTasks  int `json:"unclaimed_tasks"`
	InProgressTasks int `json:"in_progress_tasks"` // claimed and in-progress
	CompletedTasks  int `json:"completed_tasks"`
	OverdueTasks    int `json:"overdue_tasks"`
	// AverageCompletionTime is the mean creation-to-completion time of
	// completed tasks in minutes, 0 when none are completed.
	AverageCompletionTime float64                  `json:"average_completion_time"`
	ByCategory            map[content.Category]int `json:"by_category"`
	ByPriority            map[content.Priority]int `json:"by_priority"`
}

func (m *Manager) GetTaskStatistics(ctx context.Context) (*Statistics, error) {
	records, err := m.contents.List(ctx, content.Filter{HasTask: true})
	if err != nil {
		return nil, err
	}
	now := m.now()
	stats := &Statistics{
		ByCategory: make(map[content.Category]int),
		ByPriority: make(map[content.Priority]int),
	}
	var completionTotal time.Duration
	for _, rec := range records {
		t := rec.Task
		stats.TotalTasks++
		switch t.Status {
		case content.StatusUnclaimed:
			stats.UnclaimedTasks++
		case content.StatusClaimed, content.StatusInProgress:
			stats.InProgressTasks++
		case content.StatusCompleted:
			stats.CompletedTasks++
			completionTotal += t.CompletionTime()
		}
		stats.ByCategory[t.Category]++
		stats.ByPriority[t.Priority]++
		if isOverdue(t, now) {
			stats.OverdueTasks++
		}
	}
	if stats.CompletedTasks > 0 {
		stats.AverageCompletionTime = completionTotal.Minutes() / float64(stats.CompletedTasks)
	}
	return stats, nil
}

// AssignedTasks returns every task that has an assignee in a single query.
func (m *Manager) AssignedTasks(ctx context.Context) ([]*content.Task, error) {
	records, err := m.contents.List(ctx, content.Filter{Assigned: true})
	if err != nil {
		return nil, err
	}
	tasks := make([]*content.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, rec.Task)
	}
	return tasks, nil
}
