package assignment

import (
	"slices"
	"strings"

	"github.com/kazz187/volunteerdesk/internal/content"
)

const skillNamespace = "skill"

var categorySkills = map[content.Category][]string{
	content.CategoryReview:    {"skill:writing", "skill:editing", "skill:proofreading"},
	content.CategoryLayout:    {"skill:design", "skill:layout", "skill:canva", "skill:graphics"},
	content.CategoryFactCheck: {"skill:research", "skill:fact-checking", "skill:verification"},
	content.CategoryApprove:   {"skill:editing", "skill:management", "skill:decision-making"},
	content.CategoryPrint:     {"skill:printing", "skill:production", "skill:logistics"},
}

// RequiredSkills returns the skills a category needs plus extra, without
// duplicates. Extra skills given without a namespace are taken as skill tags.
func RequiredSkills(category content.Category, extra ...string) []string {
	skills := slices.Clone(categorySkills[category])
	for _, s := range extra {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.Contains(s, ":") {
			s = skillNamespace + ":" + s
		}
		if !slices.Contains(skills, s) {
			skills = append(skills, s)
		}
	}
	return skills
}
