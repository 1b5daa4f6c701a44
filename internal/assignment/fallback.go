package assignment

import (
	"fmt"
	"strings"
)

const (
	suggestRecruitOrWait   = "Recruit more volunteers or wait for current tasks to complete"
	suggestTrain           = "Train existing volunteers in the required skills"
	suggestAdjustTimeline  = "Adjust the task timeline"
	suggestRecruitRegular  = "Recruit volunteers with regular availability"
	suggestAssignManually  = "Assign the task manually to override automatic matching"
	suggestRecruitSkillsFm = "Recruit volunteers with skills: %s"
)

// fallbackSuggestions derives guidance from why candidates were rejected. A
// rejection reason dominates when at least half of the candidates carry it.
func fallbackSuggestions(candidates []*Candidate, required []string) []string {
	var suggestions []string
	if len(candidates) == 0 {
		return []string{suggestRecruitOrWait, suggestAssignManually}
	}

	counts := make(map[rejectionKind]int)
	for _, c := range candidates {
		seen := make(map[rejectionKind]bool)
		for _, kind := range c.rejections {
			if !seen[kind] {
				counts[kind]++
				seen[kind] = true
			}
		}
	}
	heavy := func(kind rejectionKind) bool {
		return counts[kind] > 0 && counts[kind]*2 >= len(candidates)
	}

	if heavy(rejectedWorkload) {
		suggestions = append(suggestions, suggestRecruitOrWait)
	}
	if heavy(rejectedSkills) {
		names := make([]string, 0, len(required))
		for _, s := range required {
			names = append(names, strings.TrimPrefix(s, skillNamespace+":"))
		}
		suggestions = append(suggestions,
			fmt.Sprintf(suggestRecruitSkillsFm, strings.Join(names, ", ")),
			suggestTrain,
		)
	}
	if heavy(rejectedAvailability) {
		suggestions = append(suggestions, suggestAdjustTimeline, suggestRecruitRegular)
	}
	return append(suggestions, suggestAssignManually)
}
