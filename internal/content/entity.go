package content

import "time"

type Category string

const (
	CategoryReview    Category = "review"
	CategoryLayout    Category = "layout"
	CategoryFactCheck Category = "fact-check"
	CategoryApprove   Category = "approve"
	CategoryPrint     Category = "print"
)

var Categories = []Category{CategoryReview, CategoryLayout, CategoryFactCheck, CategoryApprove, CategoryPrint}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// Task is the editorial work item attached to a content record.
// AssignedTo is set exactly when Status is not StatusUnclaimed.
type Task struct {
	Category      Category   `yaml:"category" json:"category"`
	EstimatedTime int        `yaml:"estimated_time" json:"estimated_time"`
	Priority      Priority   `yaml:"priority" json:"priority"`
	Status        Status     `yaml:"status" json:"status"`
	Instructions  string     `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	DueDate       *time.Time `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	AssignedTo    string     `yaml:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	CreatedAt     time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `yaml:"updated_at" json:"updated_at"`
}

// CompletionTime is the time between creation and the last update, which for
// a completed task is the moment it was completed.
func (t *Task) CompletionTime() time.Duration {
	return t.UpdatedAt.Sub(t.CreatedAt)
}

type Record struct {
	ID        string    `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Kind      string    `yaml:"kind" json:"kind"`
	AuthorID  string    `yaml:"author_id" json:"author_id"`
	Task      *Task     `yaml:"task,omitempty" json:"task,omitempty"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}
