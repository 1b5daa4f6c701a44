package volunteer

import (
	"regexp"
	"slices"
	"strings"
)

var tagPattern = regexp.MustCompile(`^[a-z]+:[a-z0-9_-]+$`)

// IsValidTag reports whether tag has the form namespace:value.
func IsValidTag(tag string) bool {
	return tagPattern.MatchString(tag)
}

// TagsByNamespace returns the values of p's tags in namespace ns.
func TagsByNamespace(p *Profile, ns string) []string {
	values := []string{}
	if p == nil {
		return values
	}
	prefix := ns + ":"
	for _, tag := range p.Tags {
		if v, ok := strings.CutPrefix(tag, prefix); ok {
			values = append(values, v)
		}
	}
	return values
}

// HasTag matches tag exactly when it is namespaced, otherwise against the
// value part of every tag.
func HasTag(p *Profile, tag string) bool {
	if p == nil {
		return false
	}
	if strings.Contains(tag, ":") {
		return slices.Contains(p.Tags, tag)
	}
	for _, t := range p.Tags {
		if _, v, ok := strings.Cut(t, ":"); ok && v == tag {
			return true
		}
	}
	return false
}

func AddTag(tags []string, tag string) []string {
	out := slices.Clone(tags)
	if slices.Contains(out, tag) {
		return out
	}
	return append(out, tag)
}

func RemoveTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// Namespaces lists the namespaces of p's well-formed tags in first-seen order.
func Namespaces(p *Profile) []string {
	namespaces := []string{}
	if p == nil {
		return namespaces
	}
	for _, tag := range p.Tags {
		if !IsValidTag(tag) {
			continue
		}
		ns, _, _ := strings.Cut(tag, ":")
		if !slices.Contains(namespaces, ns) {
			namespaces = append(namespaces, ns)
		}
	}
	return namespaces
}

func FilterByAvailability(profiles []*Profile, allowed ...Availability) []*Profile {
	out := make([]*Profile, 0, len(profiles))
	for _, p := range profiles {
		if slices.Contains(allowed, p.Availability) {
			out = append(out, p)
		}
	}
	return out
}

// UsersWithTags returns the profiles that carry every tag in tags.
func UsersWithTags(profiles []*Profile, tags []string) []*Profile {
	out := make([]*Profile, 0, len(profiles))
	for _, p := range profiles {
		if hasAllTags(p, tags) {
			out = append(out, p)
		}
	}
	return out
}

// AvailableUsers is UsersWithTags restricted to the allowed availabilities,
// most available first. Profiles of equal availability keep their order.
func AvailableUsers(profiles []*Profile, tags []string, allowed []Availability) []*Profile {
	out := FilterByAvailability(UsersWithTags(profiles, tags), allowed...)
	slices.SortStableFunc(out, func(a, b *Profile) int {
		return b.Availability.Rank() - a.Availability.Rank()
	})
	return out
}

func hasAllTags(p *Profile, tags []string) bool {
	for _, tag := range tags {
		if !HasTag(p, tag) {
			return false
		}
	}
	return true
}
