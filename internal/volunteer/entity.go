package volunteer

import "time"

type Role string

const (
	RoleMember           Role = "member"
	RoleContributor      Role = "contributor"
	RoleCanvaContributor Role = "canva_contributor"
	RoleEditor           Role = "editor"
	RoleModerator        Role = "moderator"
	RoleAdministrator    Role = "administrator"
)

var Roles = []Role{
	RoleMember,
	RoleContributor,
	RoleCanvaContributor,
	RoleEditor,
	RoleModerator,
	RoleAdministrator,
}

func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

// Elevated roles may change the status of tasks assigned to someone else.
func (r Role) Elevated() bool {
	return r == RoleModerator || r == RoleAdministrator
}

type Availability string

const (
	AvailabilityRegular    Availability = "regular"
	AvailabilityOccasional Availability = "occasional"
	AvailabilityOnCall     Availability = "on-call"
)

func (a Availability) Valid() bool {
	return a.Rank() > 0
}

// Rank orders availabilities from most (3) to least (1) available; 0 for
// unknown values.
func (a Availability) Rank() int {
	switch a {
	case AvailabilityRegular:
		return 3
	case AvailabilityOccasional:
		return 2
	case AvailabilityOnCall:
		return 1
	default:
		return 0
	}
}

type Preferences struct {
	TaskAssignments bool `yaml:"task_assignments" json:"task_assignments"`
}

type Profile struct {
	ID           string       `yaml:"id" json:"id"`
	DisplayName  string       `yaml:"display_name" json:"display_name"`
	Email        string       `yaml:"email" json:"email"`
	Role         Role         `yaml:"role" json:"role"`
	Tags         []string     `yaml:"tags" json:"tags"`
	Availability Availability `yaml:"availability" json:"availability"`
	Preferences  Preferences  `yaml:"preferences" json:"preferences"`
	IsApproved   bool         `yaml:"is_approved" json:"is_approved"`
	CreatedAt    time.Time    `yaml:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `yaml:"updated_at" json:"updated_at"`
}

// AcceptsAssignments reports whether the volunteer is approved, opted in and
// has at least one tag.
func (p *Profile) AcceptsAssignments() bool {
	return p.IsApproved && p.Preferences.TaskAssignments && len(p.Tags) > 0
}
