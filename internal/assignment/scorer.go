package assignment

import (
	"fmt"
	"math"
	"strings"

	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
)

var availabilityScores = map[volunteer.Availability]float64{
	volunteer.AvailabilityRegular:    1.0,
	volunteer.AvailabilityOccasional: 0.7,
	volunteer.AvailabilityOnCall:     0.4,
}

// availabilityMatchThreshold is the availability score above which a
// volunteer counts as available.
const availabilityMatchThreshold = 0.5

var priorityBoosts = map[content.Priority]float64{
	content.PriorityLow:    1.0,
	content.PriorityMedium: 1.2,
	content.PriorityHigh:   1.5,
}

var roleBoosts = map[volunteer.Role]float64{
	volunteer.RoleMember:           0.8,
	volunteer.RoleContributor:      1.0,
	volunteer.RoleCanvaContributor: 1.1,
	volunteer.RoleEditor:           1.3,
	volunteer.RoleModerator:        1.4,
	volunteer.RoleAdministrator:    1.5,
}

func boost[K comparable](table map[K]float64, key K) float64 {
	if b, ok := table[key]; ok {
		return b
	}
	return 1.0
}

type rejectionKind int

const (
	rejectedSkills rejectionKind = iota + 1
	rejectedAvailability
	rejectedWorkload
)

// Candidate is one volunteer's score for one task, with the reasons behind it.
type Candidate struct {
	Volunteer         *volunteer.Profile `json:"volunteer"`
	Score             float64            `json:"score"`
	MatchedSkills     []string           `json:"matched_skills"`
	SkillMatch        float64            `json:"skill_match"` // matched / required, at most 1
	CurrentWorkload   int                `json:"current_workload"`
	AvailabilityMatch bool               `json:"availability_match"`
	ReasonsSelected   []string           `json:"reasons_selected"`
	ReasonsRejected   []string           `json:"reasons_rejected"`
	Qualified         bool               `json:"qualified"`

	rejections []rejectionKind
}

func (c *Candidate) selected(format string, args ...any) {
	c.ReasonsSelected = append(c.ReasonsSelected, fmt.Sprintf(format, args...))
}

func (c *Candidate) rejected(kind rejectionKind, format string, args ...any) {
	c.ReasonsRejected = append(c.ReasonsRejected, fmt.Sprintf(format, args...))
	c.rejections = append(c.rejections, kind)
}

// Score rates p for a task needing required at the given priority, with
// currentWorkload tasks already on their plate, and decides qualification.
func Score(p *volunteer.Profile, currentWorkload int, required []string, priority content.Priority, cfg Config) *Candidate {
	c := &Candidate{
		Volunteer:       p,
		MatchedSkills:   matchSkills(p, required),
		CurrentWorkload: currentWorkload,
		ReasonsSelected: []string{},
		ReasonsRejected: []string{},
	}

	if len(required) > 0 {
		c.SkillMatch = math.Min(1, float64(len(c.MatchedSkills))/float64(len(required)))
	}
	skillScore := c.SkillMatch * cfg.SkillMatchWeight
	if len(c.MatchedSkills) > 0 {
		c.selected("Matches %d/%d required skills", len(c.MatchedSkills), len(required))
	} else {
		c.rejected(rejectedSkills, "No matching skills")
	}

	availability := availabilityScores[p.Availability]
	availabilityScore := availability * cfg.AvailabilityWeight
	c.AvailabilityMatch = availability > availabilityMatchThreshold
	if c.AvailabilityMatch {
		c.selected("Available (%s)", p.Availability)
	} else {
		c.rejected(rejectedAvailability, "Limited availability (%s)", p.Availability)
	}

	load := float64(currentWorkload) / float64(cfg.MaxWorkloadPerVolunteer)
	workloadScore := math.Max(0, 1-load) * cfg.WorkloadWeight
	switch {
	case currentWorkload >= cfg.MaxWorkloadPerVolunteer:
		c.rejected(rejectedWorkload, "At workload limit (%d/%d tasks)", currentWorkload, cfg.MaxWorkloadPerVolunteer)
	case load <= 0.5:
		c.selected("Low workload (%d current tasks)", currentWorkload)
	default:
		c.selected("Moderate workload (%d current tasks)", currentWorkload)
	}

	priorityBoost := boost(priorityBoosts, priority)
	roleBoost := boost(roleBoosts, p.Role)
	if roleBoost > 1 {
		c.selected("Role bonus (%s)", p.Role)
	}
	raw := (skillScore + availabilityScore + workloadScore) * priorityBoost * roleBoost
	c.Score = math.Min(100, raw*100)

	c.Qualified = MeetsMinimumRequirements(c, cfg)
	if !c.Qualified && len(c.MatchedSkills) > 0 && c.SkillMatch < cfg.MinRequiredSkillMatch {
		c.rejected(rejectedSkills, "Skill match below minimum (%d/%d required skills)", len(c.MatchedSkills), len(required))
	}
	return c
}

// MeetsMinimumRequirements rejects candidates whose skill match is below the
// configured minimum or who already carry the maximum workload.
func MeetsMinimumRequirements(c *Candidate, cfg Config) bool {
	if c.SkillMatch < cfg.MinRequiredSkillMatch {
		return false
	}
	return c.CurrentWorkload < cfg.MaxWorkloadPerVolunteer
}

// matchSkills returns p's skill tags that equal or are contained in one of
// the required skills.
func matchSkills(p *volunteer.Profile, required []string) []string {
	matched := []string{}
	for _, tag := range p.Tags {
		if !strings.HasPrefix(tag, skillNamespace+":") {
			continue
		}
		for _, r := range required {
			if strings.Contains(r, tag) {
				matched = append(matched, tag)
				break
			}
		}
	}
	return matched
}
