package volunteer

import "context"

// Repository stores volunteer profiles. List returns profiles ordered by ID.
type Repository interface {
	Get(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
	Update(ctx context.Context, id string, fn func(p *Profile) error) (*Profile, error)
}
