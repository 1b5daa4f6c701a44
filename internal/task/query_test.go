package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/volunteerdesk/internal/content"
)

func TestGetTaskStatistics(t *testing.T) {
	f := newFixture(t)
	f.now = baseTime.Add(72 * time.Hour)
	past := baseTime.Add(24 * time.Hour)

	f.addContent(t, "c1", &content.Task{
		Category: content.CategoryReview, EstimatedTime: 30, Priority: content.PriorityHigh,
		Status: content.StatusUnclaimed, DueDate: &past, CreatedAt: baseTime, UpdatedAt: baseTime,
	})
	f.addContent(t, "c2", &content.Task{
		Category: content.CategoryLayout, EstimatedTime: 60, Priority: content.PriorityMedium,
		Status: content.StatusInProgress, AssignedTo: "vol-1", CreatedAt: baseTime, UpdatedAt: baseTime.Add(time.Hour),
	})
	f.addContent(t, "c3", &content.Task{
		Category: content.CategoryReview, EstimatedTime: 15, Priority: content.PriorityLow,
		Status: content.StatusCompleted, AssignedTo: "vol-2", DueDate: &past,
		CreatedAt: baseTime, UpdatedAt: baseTime.Add(90 * time.Minute),
	})
	f.addContent(t, "no-task", nil)

	stats, err := f.manager.GetTaskStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 1, stats.UnclaimedTasks)
	assert.Equal(t, 1, stats.InProgressTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 1, stats.OverdueTasks, "completed tasks are never overdue")
	assert.InDelta(t, 90.0, stats.AverageCompletionTime, 1e-9)
	assert.Equal(t, 2, stats.ByCategory[content.CategoryReview])
	assert.Equal(t, 1, stats.ByCategory[content.CategoryLayout])
	assert.Equal(t, 1, stats.ByPriority[content.PriorityHigh])
	assert.Equal(t, 1, stats.ByPriority[content.PriorityLow])
}

func TestGetTaskStatistics_Empty(t *testing.T) {
	f := newFixture(t)
	stats, err := f.manager.GetTaskStatistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTasks)
	assert.Zero(t, stats.AverageCompletionTime)
}

func TestGetUserTasks(t *testing.T) {
	f := newFixture(t)
	f.now = baseTime.Add(2 * time.Hour)
	soon := baseTime.Add(3*time.Hour + 30*time.Second)
	late := baseTime.Add(time.Hour)

	f.addContent(t, "old", &content.Task{
		Category: content.CategoryReview, Priority: content.PriorityLow, EstimatedTime: 10,
		Status: content.StatusClaimed, AssignedTo: "vol-1", DueDate: &soon, CreatedAt: baseTime, UpdatedAt: baseTime,
	})
	f.addContent(t, "new", &content.Task{
		Category: content.CategoryPrint, Priority: content.PriorityLow, EstimatedTime: 10,
		Status: content.StatusInProgress, AssignedTo: "vol-1", DueDate: &late,
		CreatedAt: baseTime.Add(time.Minute), UpdatedAt: baseTime.Add(time.Minute),
	})
	f.addContent(t, "done", &content.Task{
		Category: content.CategoryPrint, Priority: content.PriorityLow, EstimatedTime: 10,
		Status: content.StatusCompleted, AssignedTo: "vol-1", CreatedAt: baseTime.Add(-time.Hour), UpdatedAt: baseTime,
	})
	f.addContent(t, "other", &content.Task{
		Category: content.CategoryPrint, Priority: content.PriorityLow, EstimatedTime: 10,
		Status: content.StatusClaimed, AssignedTo: "vol-2", CreatedAt: baseTime, UpdatedAt: baseTime,
	})

	tasks, err := f.manager.GetUserTasks(context.Background(), "vol-1", "")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"new", "old", "done"}, []string{tasks[0].ContentID, tasks[1].ContentID, tasks[2].ContentID})

	require.NotNil(t, tasks[0].IsOverdue)
	assert.True(t, *tasks[0].IsOverdue)
	assert.Equal(t, 0, *tasks[0].TimeRemaining)
	require.NotNil(t, tasks[1].TimeRemaining)
	assert.Equal(t, 60, *tasks[1].TimeRemaining)
	assert.False(t, *tasks[1].IsOverdue)
	assert.Nil(t, tasks[2].TimeRemaining)
	assert.Nil(t, tasks[2].IsOverdue)

	completed, err := f.manager.GetUserTasks(context.Background(), "vol-1", content.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "done", completed[0].ContentID)
}

func TestGetTasksByStatus(t *testing.T) {
	f := newFixture(t)
	for i, id := range []string{"a", "b", "c"} {
		created := baseTime.Add(time.Duration(i) * time.Minute)
		f.addContent(t, id, &content.Task{
			Category: content.CategoryReview, Priority: content.PriorityLow, EstimatedTime: 10,
			Status: content.StatusClaimed, AssignedTo: "vol-1", CreatedAt: created, UpdatedAt: created,
		})
	}
	f.addContent(t, "ghost", &content.Task{
		Category: content.CategoryReview, Priority: content.PriorityLow, EstimatedTime: 10,
		Status: content.StatusClaimed, AssignedTo: "departed", CreatedAt: baseTime.Add(-time.Hour), UpdatedAt: baseTime,
	})
	f.addTaskInStatus(t, "open", content.StatusUnclaimed, "")

	tasks, err := f.manager.GetTasksByStatus(context.Background(), content.StatusClaimed, 2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "c", tasks[0].ContentID)
	assert.Equal(t, "b", tasks[1].ContentID)
	assert.Equal(t, "Name vol-1", tasks[0].AssignedUserName)
	assert.Equal(t, "vol-1@example.org", tasks[0].AssignedUserEmail)

	all, err := f.manager.GetTasksByStatus(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for _, v := range all {
		if v.ContentID == "ghost" {
			assert.Empty(t, v.AssignedUserName, "missing profiles are left blank")
		}
	}
}

func TestAssignedTasks(t *testing.T) {
	f := newFixture(t)
	f.addTaskInStatus(t, "open", content.StatusUnclaimed, "")
	f.addTaskInStatus(t, "mine", content.StatusClaimed, "vol-1")
	f.addTaskInStatus(t, "done", content.StatusCompleted, "vol-2")
	f.addContent(t, "no-task", nil)

	tasks, err := f.manager.AssignedTasks(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.NotEmpty(t, task.AssignedTo)
	}
}
