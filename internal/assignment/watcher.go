package assignment

import (
	"context"
	"log/slog"

	"github.com/kazz187/volunteerdesk/pkg/filewatch"
)

// ConfigFileWatcher returns a watcher that applies the scoring file at path
// on top of the engine's baseline config on load and on every change, so the
// file overrides runtime updates. An invalid file is logged and ignored.
func (e *Engine) ConfigFileWatcher(path string, opts ...filewatch.Option) *filewatch.Watcher {
	return filewatch.New(path, func(ctx context.Context, data []byte) error {
		u, err := ParseConfigUpdate(data)
		if err != nil {
			return err
		}
		cfg, err := e.ResetConfig(u)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "assignment config loaded",
			"path", path,
			"skill_match_weight", cfg.SkillMatchWeight,
			"availability_weight", cfg.AvailabilityWeight,
			"workload_weight", cfg.WorkloadWeight,
			"max_workload_per_volunteer", cfg.MaxWorkloadPerVolunteer,
			"min_required_skill_match", cfg.MinRequiredSkillMatch,
		)
		return nil
	}, opts...)
}
