package pushsubscription

import "context"

type Repository interface {
	// Save creates s or replaces the subscription with the same ID.
	Save(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]*Subscription, error)
	Delete(ctx context.Context, id string) error
	FindByEndpoint(ctx context.Context, endpoint string) (*Subscription, error)
}
