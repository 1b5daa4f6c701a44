package task

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/eventbus"
	"github.com/kazz187/volunteerdesk/pkg/clog"
	"github.com/kazz187/volunteerdesk/pkg/panicerr"
)

const subscriptionBuffer = 64

// SubscribeToUserTasks calls callback with the result of GetUserTasks once
// immediately and again after every change to a task the user holds or held.
// Delivery stops when ctx is done or when the returned function is called;
// calling it more than once is safe. Once unsubscribe returns, callback is not
// running and will not be called again, so callback must not call it itself.
// A manager without a bus delivers the initial snapshot only.
func (m *Manager) SubscribeToUserTasks(ctx context.Context, userID string, status content.Status, callback func([]*View)) (unsubscribe func()) {
	var (
		subID  string
		events <-chan *eventbus.Event
	)
	if m.bus != nil {
		subID, events = m.bus.Subscribe(subscriptionBuffer)
	}
	ctx = clog.ContextWithAttributes(ctx, map[string]any{
		"subscription_id": subID,
		"user_id":         userID,
	})

	var (
		mu      sync.Mutex
		stopped bool
		once    sync.Once
		done    = make(chan struct{})
	)
	unsubscribe = func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			close(done)
			if m.bus != nil {
				m.bus.Unsubscribe(subID)
			}
		})
	}

	deliver := func() {
		tasks, err := m.GetUserTasks(ctx, userID, status)
		if err != nil {
			slog.WarnContext(ctx, "failed to load tasks for subscription", "error", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if err := panicerr.Call(func() { callback(tasks) }); err != nil {
			slog.ErrorContext(ctx, "task subscription callback panicked", "error", err)
		}
	}

	go func() {
		defer unsubscribe()
		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if !concernsUser(ev, userID) {
					continue
				}
				// Collapse a burst of events into one snapshot.
				for drained := false; !drained; {
					select {
					case _, ok := <-events:
						if !ok {
							return
						}
					default:
						drained = true
					}
				}
				deliver()
			}
		}
	}()
	return unsubscribe
}

func concernsUser(ev *eventbus.Event, userID string) bool {
	return ev.Metadata[MetaAssignedTo] == userID || ev.Metadata[MetaPreviousAssignedTo] == userID
}
