package content

import "context"

// MaxUpdateAttempts bounds the compare-and-swap retries of Repository.Update.
const MaxUpdateAttempts = 5

// Filter narrows List. Zero values do not filter.
type Filter struct {
	HasTask    bool
	Assigned   bool     // task has an assignee
	AssignedTo string   // task assignee equals
	Status     []Status // task status is one of
	Limit      int
}

type Repository interface {
	Get(ctx context.Context, id string) (*Record, error)
	Create(ctx context.Context, r *Record) error
	// Update applies fn to the latest stored record and writes the result
	// atomically. fn may run several times and must decide from the record it
	// is given. Returns the stored record.
	Update(ctx context.Context, id string, fn func(r *Record) error) (*Record, error)
	// List returns matching records, newest created first.
	List(ctx context.Context, f Filter) ([]*Record, error)
}

// Match reports whether r satisfies f, ignoring Limit.
func (f Filter) Match(r *Record) bool {
	needTask := f.HasTask || f.Assigned || f.AssignedTo != "" || len(f.Status) > 0
	if !needTask {
		return true
	}
	t := r.Task
	if t == nil {
		return false
	}
	if f.Assigned && t.AssignedTo == "" {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if len(f.Status) > 0 {
		for _, s := range f.Status {
			if t.Status == s {
				return true
			}
		}
		return false
	}
	return true
}
