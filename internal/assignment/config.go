package assignment

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

// Config holds the scoring weights and qualification thresholds.
type Config struct {
	SkillMatchWeight        float64 `yaml:"skill_match_weight" json:"skill_match_weight"`
	AvailabilityWeight      float64 `yaml:"availability_weight" json:"availability_weight"`
	WorkloadWeight          float64 `yaml:"workload_weight" json:"workload_weight"`
	MaxWorkloadPerVolunteer int     `yaml:"max_workload_per_volunteer" json:"max_workload_per_volunteer"`
	MinRequiredSkillMatch   float64 `yaml:"min_required_skill_match" json:"min_required_skill_match"`
}

func DefaultConfig() Config {
	return Config{
		SkillMatchWeight:        0.4,
		AvailabilityWeight:      0.3,
		WorkloadWeight:          0.3,
		MaxWorkloadPerVolunteer: 5,
		MinRequiredSkillMatch:   0.3,
	}
}

func (c Config) Validate() error {
	cErr := cerr.NewError(cerr.InvalidArgument, "invalid assignment config", nil)
	weights := []struct {
		name  string
		value float64
	}{
		{"skill_match_weight", c.SkillMatchWeight},
		{"availability_weight", c.AvailabilityWeight},
		{"workload_weight", c.WorkloadWeight},
	}
	for _, w := range weights {
		switch {
		case math.IsNaN(w.value) || math.IsInf(w.value, 0):
			cErr.AddDetailMessageWithCode(fmt.Sprintf("%s must be a finite number", w.name), w.name+".finite")
		case w.value < 0:
			cErr.AddDetailMessageWithCode(fmt.Sprintf("%s must not be negative", w.name), w.name+".gte")
		}
	}
	if c.MaxWorkloadPerVolunteer < 1 {
		cErr.AddDetailMessageWithCode("max_workload_per_volunteer must be at least 1", "max_workload_per_volunteer.gte")
	}
	if math.IsNaN(c.MinRequiredSkillMatch) || c.MinRequiredSkillMatch < 0 || c.MinRequiredSkillMatch > 1 {
		cErr.AddDetailMessageWithCode("min_required_skill_match must be between 0 and 1", "min_required_skill_match.range")
	}
	if len(cErr.Details) > 0 {
		return cErr
	}
	return nil
}

// ConfigUpdate changes the fields that are set and leaves the others.
type ConfigUpdate struct {
	SkillMatchWeight        *float64 `yaml:"skill_match_weight" json:"skill_match_weight,omitempty"`
	AvailabilityWeight      *float64 `yaml:"availability_weight" json:"availability_weight,omitempty"`
	WorkloadWeight          *float64 `yaml:"workload_weight" json:"workload_weight,omitempty"`
	MaxWorkloadPerVolunteer *int     `yaml:"max_workload_per_volunteer" json:"max_workload_per_volunteer,omitempty"`
	MinRequiredSkillMatch   *float64 `yaml:"min_required_skill_match" json:"min_required_skill_match,omitempty"`
}

func (u ConfigUpdate) Apply(c Config) Config {
	if u.SkillMatchWeight != nil {
		c.SkillMatchWeight = *u.SkillMatchWeight
	}
	if u.AvailabilityWeight != nil {
		c.AvailabilityWeight = *u.AvailabilityWeight
	}
	if u.WorkloadWeight != nil {
		c.WorkloadWeight = *u.WorkloadWeight
	}
	if u.MaxWorkloadPerVolunteer != nil {
		c.MaxWorkloadPerVolunteer = *u.MaxWorkloadPerVolunteer
	}
	if u.MinRequiredSkillMatch != nil {
		c.MinRequiredSkillMatch = *u.MinRequiredSkillMatch
	}
	return c
}

// ParseConfigUpdate reads a YAML scoring file into an update; only the keys
// present in data are set.
func ParseConfigUpdate(data []byte) (ConfigUpdate, error) {
	var u ConfigUpdate
	if err := yaml.Unmarshal(data, &u); err != nil {
		return ConfigUpdate{}, cerr.NewError(cerr.InvalidArgument, "invalid scoring config file", err)
	}
	return u, nil
}
