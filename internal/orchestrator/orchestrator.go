package orchestrator

import (
	"context"
	"log/slog"

	"github.com/kazz187/volunteerdesk/internal/assignment"
	"github.com/kazz187/volunteerdesk/internal/eventbus"
	"github.com/kazz187/volunteerdesk/internal/task"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
	"github.com/kazz187/volunteerdesk/pkg/clog"
)

type AutoAssigner interface {
	AutoAssignTask(ctx context.Context, req assignment.AutoAssignRequest) (*assignment.Result, error)
}

// Orchestrator runs automatic assignment for tasks created without an
// assignee.
type Orchestrator struct {
	eventBus *eventbus.Bus
	assigner AutoAssigner
}

func New(eventBus *eventbus.Bus, assigner AutoAssigner) *Orchestrator {
	return &Orchestrator{
		eventBus: eventBus,
		assigner: assigner,
	}
}

// Run subscribes to the event bus and processes task lifecycle events.
// It blocks until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	subID, ch := o.eventBus.Subscribe(256)
	defer o.eventBus.Unsubscribe(subID)

	slog.InfoContext(ctx, "orchestrator started")
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "orchestrator stopped")
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if event.Type == eventbus.EventTaskCreated {
				o.handleTaskCreated(ctx, event)
			}
		}
	}
}

func (o *Orchestrator) handleTaskCreated(ctx context.Context, event *eventbus.Event) {
	if event.Metadata[task.MetaAssignedTo] != "" {
		return
	}
	ctx = clog.ContextWithAttributes(ctx, map[string]any{"content_id": event.ResourceID})

	result, err := o.assigner.AutoAssignTask(ctx, assignment.AutoAssignRequest{ContentID: event.ResourceID})
	switch {
	case err == nil:
	case cerr.IsCode(err, cerr.Aborted):
		// Someone claimed it first.
		slog.InfoContext(ctx, "orchestrator: task taken before auto-assignment", "error", err)
		return
	default:
		slog.ErrorContext(ctx, "orchestrator: auto-assignment failed", "error", err)
		return
	}

	if !result.Success {
		slog.WarnContext(ctx, "orchestrator: no volunteer found",
			"reason", result.Reason,
			"suggestions", result.FallbackSuggestions,
		)
		return
	}
	slog.InfoContext(ctx, "orchestrator: task auto-assigned", "assigned_to", result.AssignedTo)
}
