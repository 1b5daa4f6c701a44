package volunteer

import (
	"fmt"

	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

// Validate checks a profile before it is stored.
func Validate(p *Profile) error {
	cErr := cerr.NewError(cerr.InvalidArgument, "invalid volunteer profile", nil)
	if p.ID == "" {
		cErr.AddDetailMessageWithCode("id is required", "id.required")
	}
	if !p.Role.Valid() {
		cErr.AddDetailMessageWithCode(fmt.Sprintf("unknown role %q", p.Role), "role.enum")
	}
	if !p.Availability.Valid() {
		cErr.AddDetailMessageWithCode(fmt.Sprintf("unknown availability %q", p.Availability), "availability.enum")
	}
	for _, tag := range p.Tags {
		if !IsValidTag(tag) {
			cErr.AddDetailMessageWithCode(fmt.Sprintf("tag %q must match namespace:value", tag), "tag.format")
		}
	}
	if len(cErr.Details) > 0 {
		return cErr
	}
	return nil
}
