package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/task"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/internal/workload"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

const ReasonNoVolunteers = "No volunteers available for task assignments"

type WorkloadSource interface {
	VolunteerWorkloads(ctx context.Context) (map[string]*workload.Workload, error)
}

type TaskAssigner interface {
	AssignTask(ctx context.Context, contentID, userID string, method task.AssignmentMethod) (*content.Record, error)
}

var eligibleRoles = []volunteer.Role{
	volunteer.RoleContributor,
	volunteer.RoleCanvaContributor,
	volunteer.RoleEditor,
	volunteer.RoleModerator,
	volunteer.RoleAdministrator,
}

// Eligible reports whether p may be considered for automatic assignment at all.
func Eligible(p *volunteer.Profile) bool {
	return p.AcceptsAssignments() && slices.Contains(eligibleRoles, p.Role)
}

// Engine ranks volunteers for tasks and optionally commits the best match.
type Engine struct {
	contents   content.Repository
	volunteers volunteer.Repository
	workloads  WorkloadSource
	assigner   TaskAssigner

	// baseline is the config the engine was built with.
	baseline Config

	mu  sync.RWMutex
	cfg Config
}

func NewEngine(contents content.Repository, volunteers volunteer.Repository, workloads WorkloadSource, assigner TaskAssigner, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		contents:   contents,
		volunteers: volunteers,
		workloads:  workloads,
		assigner:   assigner,
		baseline:   cfg,
		cfg:        cfg,
	}, nil
}

func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// UpdateConfig applies u to the current config. The config is left unchanged
// when the result is invalid.
func (e *Engine) UpdateConfig(u ConfigUpdate) (Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := u.Apply(e.cfg)
	if err := next.Validate(); err != nil {
		return e.cfg, err
	}
	e.cfg = next
	return next, nil
}

// ResetConfig replaces the config with u applied to the baseline, so keys u
// leaves unset fall back to the baseline. The config is left unchanged when
// the result is invalid.
func (e *Engine) ResetConfig(u ConfigUpdate) (Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := u.Apply(e.baseline)
	if err := next.Validate(); err != nil {
		return e.cfg, err
	}
	e.cfg = next
	return next, nil
}

type AutoAssignRequest struct {
	ContentID   string           `json:"-"`
	Category    content.Category `json:"category,omitempty"` // defaults to the task's category
	Priority    content.Priority `json:"priority,omitempty"` // defaults to the task's priority
	ExtraSkills []string         `json:"extra_skills,omitempty"`
	DryRun      bool             `json:"dry_run"`
}

type Result struct {
	Success             bool         `json:"success"`
	AssignedTo          string       `json:"assigned_to,omitempty"`
	AssignedName        string       `json:"assigned_name,omitempty"`
	Candidates          []*Candidate `json:"candidates"`
	Reason              string       `json:"reason"`
	FallbackSuggestions []string     `json:"fallback_suggestions,omitempty"`
}

// AutoAssignTask picks the best qualified volunteer for the task on a content
// record and, unless DryRun is set, assigns it. Finding nobody is reported in
// the Result, not as an error.
func (e *Engine) AutoAssignTask(ctx context.Context, req AutoAssignRequest) (*Result, error) {
	rec, err := e.contents.Get(ctx, req.ContentID)
	if err != nil {
		return nil, err
	}
	if rec.Task == nil {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	if req.Category == "" {
		req.Category = rec.Task.Category
	}
	if req.Priority == "" {
		req.Priority = rec.Task.Priority
	}
	if err := validateTaskShape(req.Category, req.Priority); err != nil {
		return nil, err
	}

	required := RequiredSkills(req.Category, req.ExtraSkills...)
	candidates, err := e.rank(ctx, required, req.Priority)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Result{
			Candidates:          candidates,
			Reason:              ReasonNoVolunteers,
			FallbackSuggestions: fallbackSuggestions(nil, required),
		}, nil
	}

	best := firstQualified(candidates)
	if best == nil {
		return &Result{
			Candidates:          candidates,
			Reason:              fmt.Sprintf("No qualified volunteers found among %d candidates", len(candidates)),
			FallbackSuggestions: fallbackSuggestions(candidates, required),
		}, nil
	}

	result := &Result{
		Success:      true,
		AssignedTo:   best.Volunteer.ID,
		AssignedName: best.Volunteer.DisplayName,
		Candidates:   candidates,
	}
	if req.DryRun {
		result.Reason = fmt.Sprintf("Best match: %s (score %.1f)", best.Volunteer.DisplayName, best.Score)
		return result, nil
	}
	if _, err := e.assigner.AssignTask(ctx, req.ContentID, best.Volunteer.ID, task.MethodAutomatic); err != nil {
		return nil, err
	}
	result.Reason = fmt.Sprintf("Assigned to %s (score %.1f)", best.Volunteer.DisplayName, best.Score)
	slog.InfoContext(ctx, "task auto-assigned",
		"content_id", req.ContentID, "assigned_to", best.Volunteer.ID, "score", best.Score, "candidates", len(candidates))
	return result, nil
}

// FindBestVolunteersForTask returns up to maxCandidates qualified candidates,
// best first. A non-positive maxCandidates returns all of them.
func (e *Engine) FindBestVolunteersForTask(ctx context.Context, category content.Category, priority content.Priority, extraSkills []string, maxCandidates int) ([]*Candidate, error) {
	if err := validateTaskShape(category, priority); err != nil {
		return nil, err
	}
	candidates, err := e.rank(ctx, RequiredSkills(category, extraSkills...), priority)
	if err != nil {
		return nil, err
	}
	qualified := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Qualified {
			qualified = append(qualified, c)
		}
	}
	if maxCandidates > 0 && len(qualified) > maxCandidates {
		qualified = qualified[:maxCandidates]
	}
	return qualified, nil
}

// rank scores every eligible volunteer, highest score first. Equal scores
// keep the repository order (volunteer ID ascending).
func (e *Engine) rank(ctx context.Context, required []string, priority content.Priority) ([]*Candidate, error) {
	profiles, err := e.volunteers.List(ctx)
	if err != nil {
		return nil, err
	}
	eligible := make([]*volunteer.Profile, 0, len(profiles))
	for _, p := range profiles {
		if Eligible(p) {
			eligible = append(eligible, p)
		}
	}
	candidates := make([]*Candidate, 0, len(eligible))
	if len(eligible) == 0 {
		return candidates, nil
	}

	workloads, err := e.workloads.VolunteerWorkloads(ctx)
	if err != nil {
		return nil, err
	}
	cfg := e.Config()
	for _, p := range eligible {
		current := 0
		if w, ok := workloads[p.ID]; ok {
			current = w.CurrentTasks
		}
		candidates = append(candidates, Score(p, current, required, priority, cfg))
	}
	slices.SortStableFunc(candidates, func(a, b *Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return candidates, nil
}

func firstQualified(candidates []*Candidate) *Candidate {
	for _, c := range candidates {
		if c.Qualified {
			return c
		}
	}
	return nil
}

func validateTaskShape(category content.Category, priority content.Priority) error {
	cErr := cerr.NewError(cerr.InvalidArgument, "invalid task parameters", nil)
	if !category.Valid() {
		cErr.AddDetailMessageWithCode(fmt.Sprintf("unknown category %q", category), "category.enum")
	}
	if !priority.Valid() {
		cErr.AddDetailMessageWithCode(fmt.Sprintf("unknown priority %q", priority), "priority.enum")
	}
	if len(cErr.Details) > 0 {
		return cErr
	}
	return nil
}
