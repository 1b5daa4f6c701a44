package pushnotification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/eventbus"
	"github.com/kazz187/volunteerdesk/internal/task"
)

type Dispatcher struct {
	eventBus *eventbus.Bus
	contents content.Repository
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, contents content.Repository, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		contents: contents,
		sender:   sender,
	}
}

// Run notifies volunteers when a task is assigned to them. It blocks until
// ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.InfoContext(ctx, "push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "push notification dispatcher stopped")
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if event.Type == eventbus.EventTaskAssigned {
				d.handleTaskAssigned(ctx, event)
			}
		}
	}
}

func (d *Dispatcher) handleTaskAssigned(ctx context.Context, event *eventbus.Event) {
	assignee := event.Metadata[task.MetaAssignedTo]
	if assignee == "" {
		return
	}
	rec, err := d.contents.Get(ctx, event.ResourceID)
	if err != nil {
		slog.ErrorContext(ctx, "push dispatcher: failed to get content", "content_id", event.ResourceID, "error", err)
		return
	}

	body := rec.Title
	if rec.Task != nil {
		body = fmt.Sprintf("%s (%s, %s priority)", rec.Title, rec.Task.Category, rec.Task.Priority)
	}
	title := "New task assigned"
	if task.AssignmentMethod(event.Metadata[task.MetaMethod]) == task.MethodAutomatic {
		title = "Task matched to you"
	}
	d.sender.SendToVolunteer(ctx, assignee, &NotificationPayload{
		Title: title,
		Body:  body,
		URL:   "/content/" + rec.ID,
		Tag:   rec.ID,
	})
}
