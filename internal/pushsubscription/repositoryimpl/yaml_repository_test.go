package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/volunteerdesk/internal/pushsubscription"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
	"github.com/kazz187/volunteerdesk/pkg/storage"
)

func TestYAMLRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	for _, s := range []*pushsubscription.Subscription{
		{ID: "s1", VolunteerID: "vol-1", Endpoint: "https://push.example/1", P256dhKey: "p", AuthKey: "a", CreatedAt: now},
		{ID: "s2", VolunteerID: "vol-2", Endpoint: "https://push.example/2", P256dhKey: "p", AuthKey: "a", CreatedAt: now},
		{ID: "s3", VolunteerID: "vol-1", Endpoint: "https://push.example/3", P256dhKey: "p", AuthKey: "a", CreatedAt: now},
	} {
		require.NoError(t, repo.Save(ctx, s))
	}

	got, err := repo.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "vol-2", got.VolunteerID)
	assert.True(t, now.Equal(got.CreatedAt))

	subs, err := repo.ListByVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "s1", subs[0].ID)
	assert.Equal(t, "s3", subs[1].ID)

	found, err := repo.FindByEndpoint(ctx, "https://push.example/3")
	require.NoError(t, err)
	assert.Equal(t, "s3", found.ID)

	found.AuthKey = "rotated"
	require.NoError(t, repo.Save(ctx, found))
	got, err = repo.Get(ctx, "s3")
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.AuthKey)

	require.NoError(t, repo.Delete(ctx, "s3"))
	_, err = repo.FindByEndpoint(ctx, "https://push.example/3")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	_, err = repo.Get(ctx, "s3")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}
