package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/eventbus"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

type AssignmentMethod string

const (
	MethodAutomatic   AssignmentMethod = "automatic"
	MethodManual      AssignmentMethod = "manual"
	MethodSelfClaimed AssignmentMethod = "self-claimed"
)

func (m AssignmentMethod) Valid() bool {
	return m == MethodAutomatic || m == MethodManual || m == MethodSelfClaimed
}

// Event metadata keys.
const (
	MetaContentID          = "content_id"
	MetaAssignedTo         = "assigned_to"
	MetaPreviousAssignedTo = "previous_assigned_to"
	MetaStatus             = "status"
	MetaMethod             = "method"
)

// Manager owns the task attached to content records: creation, assignment,
// status transitions and the read side used by the assignment engine.
type Manager struct {
	contents   content.Repository
	volunteers volunteer.Repository
	bus        *eventbus.Bus
	now        func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(contents content.Repository, volunteers volunteer.Repository, bus *eventbus.Bus, opts ...Option) *Manager {
	m := &Manager{
		contents:   contents,
		volunteers: volunteers,
		bus:        bus,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type CreateTaskRequest struct {
	ContentID     string           `json:"-"`
	Category      content.Category `json:"category"`
	EstimatedTime int              `json:"estimated_time"`
	Priority      content.Priority `json:"priority"`
	Instructions  string           `json:"instructions,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	AssignTo      string           `json:"assign_to,omitempty"`
}

func (req *CreateTaskRequest) validate() error {
	cErr := cerr.NewError(cerr.InvalidArgument, "invalid task", nil)
	if req.ContentID == "" {
		cErr.AddDetailMessageWithCode("content id is required", "content_id.required")
	}
	if !req.Category.Valid() {
		cErr.AddDetailMessageWithCode(fmt.Sprintf("unknown category %q", req.Category), "category.enum")
	}
	if !req.Priority.Valid() {
		cErr.AddDetailMessageWithCode(fmt.Sprintf("unknown priority %q", req.Priority), "priority.enum")
	}
	if req.EstimatedTime <= 0 {
		cErr.AddDetailMessageWithCode("estimated time must be a positive number of minutes", "estimated_time.gt")
	}
	if len(cErr.Details) > 0 {
		return cErr
	}
	return nil
}

// CreateTask attaches a new task to a content record. A record carries at
// most one task.
func (m *Manager) CreateTask(ctx context.Context, req CreateTaskRequest) (*content.Record, error) {
	caller, ok := auth.CallerFromContext(ctx)
	if !ok {
		return nil, cerr.NewError(cerr.Unauthenticated, "caller identity is required", nil)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.AssignTo != "" {
		if _, err := m.volunteers.Get(ctx, req.AssignTo); err != nil {
			return nil, err
		}
	}

	rec, err := m.contents.Update(ctx, req.ContentID, func(rec *content.Record) error {
		if rec.Task != nil {
			return cerr.NewError(cerr.AlreadyExists, "Task already exists", nil)
		}
		now := m.now()
		t := &content.Task{
			Category:      req.Category,
			EstimatedTime: req.EstimatedTime,
			Priority:      req.Priority,
			Status:        content.StatusUnclaimed,
			Instructions:  req.Instructions,
			DueDate:       req.DueDate,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if req.AssignTo != "" {
			t.Status = content.StatusClaimed
			t.AssignedTo = req.AssignTo
		}
		rec.Task = t
		rec.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "task created",
		"content_id", rec.ID, "category", rec.Task.Category, "created_by", caller.UserID, "assigned_to", rec.Task.AssignedTo)
	m.publish(eventbus.EventTaskCreated, rec, "")
	return rec, nil
}

// AssignTask assigns the task on contentID to userID. Assigning a task to the
// volunteer who already holds it is a no-op apart from the timestamp.
// The decision "still unassigned" is made against the stored record inside
// the atomic update, so concurrent assignments cannot both succeed.
func (m *Manager) AssignTask(ctx context.Context, contentID, userID string, method AssignmentMethod) (*content.Record, error) {
	if !method.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown assignment method %q", method), nil)
	}
	if _, err := m.contents.Get(ctx, contentID); err != nil {
		return nil, err
	}
	profile, err := m.volunteers.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.Preferences.TaskAssignments {
		return nil, cerr.NewError(cerr.FailedPrecondition, "volunteer has not opted in to task assignments", nil)
	}

	var previous string
	rec, err := m.contents.Update(ctx, contentID, func(rec *content.Record) error {
		t := rec.Task
		if t == nil {
			return cerr.NewError(cerr.NotFound, "task not found", nil)
		}
		if t.Status == content.StatusCompleted {
			return cerr.NewError(cerr.Aborted, "task is already completed", nil)
		}
		if t.AssignedTo != "" && t.AssignedTo != userID {
			return cerr.NewError(cerr.Aborted, "task is already assigned to another volunteer", nil)
		}
		previous = t.AssignedTo
		now := m.now()
		if t.AssignedTo == "" {
			t.AssignedTo = userID
			t.Status = content.StatusClaimed
		}
		t.UpdatedAt = now
		rec.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "task assigned", "content_id", contentID, "assigned_to", userID, "method", method)
	if previous != userID {
		m.publish(eventbus.EventTaskAssigned, rec, previous, MetaMethod, string(method))
	}
	return rec, nil
}

// UpdateTaskStatus moves the task on contentID to newStatus on behalf of
// actingUserID, or of the caller in ctx when actingUserID is empty.
func (m *Manager) UpdateTaskStatus(ctx context.Context, contentID string, newStatus content.Status, actingUserID string) (*content.Record, error) {
	if !newStatus.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown status %q", newStatus), nil)
	}
	if actingUserID == "" {
		caller, ok := auth.CallerFromContext(ctx)
		if !ok {
			return nil, cerr.NewError(cerr.Unauthenticated, "caller identity is required", nil)
		}
		actingUserID = caller.UserID
	}
	actor, err := m.actor(ctx, actingUserID)
	if err != nil {
		return nil, err
	}

	var (
		from     content.Status
		previous string
	)
	rec, err := m.contents.Update(ctx, contentID, func(rec *content.Record) error {
		t := rec.Task
		if t == nil {
			return cerr.NewError(cerr.NotFound, "task not found", nil)
		}
		from, previous = t.Status, t.AssignedTo
		if !content.CanTransition(t.Status, newStatus) {
			te := &content.TransitionError{From: t.Status, To: newStatus}
			return cerr.NewError(cerr.FailedPrecondition, te.Error(), te)
		}

		switch {
		case t.Status == content.StatusUnclaimed && newStatus == content.StatusClaimed && t.AssignedTo == "":
			if err := actor.canSelfClaim(); err != nil {
				return err
			}
			t.AssignedTo = actingUserID
		case actingUserID != t.AssignedTo && !actor.role.Elevated():
			return cerr.NewError(cerr.PermissionDenied, "only the assignee or a moderator may update this task", nil)
		}

		if newStatus == content.StatusUnclaimed {
			t.AssignedTo = ""
		}
		now := m.now()
		t.Status = newStatus
		t.UpdatedAt = now
		rec.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "task status changed",
		"content_id", contentID, "from", from, "to", newStatus, "acting_user_id", actingUserID)
	m.publish(eventbus.EventTaskStatusChanged, rec, previous)
	return rec, nil
}

type actor struct {
	role    volunteer.Role
	profile *volunteer.Profile
}

func (a actor) canSelfClaim() error {
	if a.profile == nil {
		return cerr.NewError(cerr.FailedPrecondition, "a volunteer profile is required to claim tasks", nil)
	}
	if !a.profile.Preferences.TaskAssignments {
		return cerr.NewError(cerr.FailedPrecondition, "volunteer has not opted in to task assignments", nil)
	}
	return nil
}

// actor resolves the role of the acting user from their profile. Users
// without a profile (e.g. administrators acting through a token) fall back to
// the role carried by the caller identity.
func (m *Manager) actor(ctx context.Context, userID string) (actor, error) {
	profile, err := m.volunteers.Get(ctx, userID)
	switch {
	case err == nil:
		return actor{role: profile.Role, profile: profile}, nil
	case !cerr.IsCode(err, cerr.NotFound):
		return actor{}, err
	}
	if caller, ok := auth.CallerFromContext(ctx); ok && caller.UserID == userID {
		return actor{role: volunteer.Role(caller.Role)}, nil
	}
	return actor{}, nil
}

func (m *Manager) publish(eventType eventbus.EventType, rec *content.Record, previousAssignee string, kv ...string) {
	if m.bus == nil || rec.Task == nil {
		return
	}
	metadata := map[string]string{
		MetaContentID:  rec.ID,
		MetaAssignedTo: rec.Task.AssignedTo,
		MetaStatus:     string(rec.Task.Status),
	}
	if previousAssignee != "" {
		metadata[MetaPreviousAssignedTo] = previousAssignee
	}
	for i := 0; i+1 < len(kv); i += 2 {
		metadata[kv[i]] = kv[i+1]
	}
	m.bus.PublishNew(eventType, rec.ID, metadata)
}

// IsTransitionError reports whether err was caused by an illegal status
// change and returns it.
func IsTransitionError(err error) (*content.TransitionError, bool) {
	var te *content.TransitionError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
