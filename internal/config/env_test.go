package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("VOLUNTEERDESK_JWT_SECRET", "secret")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "3100", env.HTTPPort)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.InDelta(t, 0.4, env.SkillMatchWeight, 1e-9)
	assert.InDelta(t, 0.3, env.AvailabilityWeight, 1e-9)
	assert.InDelta(t, 0.3, env.WorkloadWeight, 1e-9)
	assert.Equal(t, 5, env.MaxWorkloadPerVolunteer)
	assert.InDelta(t, 0.3, env.MinRequiredSkillMatch, 1e-9)
	assert.False(t, env.AutoAssignOnCreate)
	assert.False(t, env.VAPIDEnv.Enabled())
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("VOLUNTEERDESK_JWT_SECRET", "secret")
	t.Setenv("VOLUNTEERDESK_STORAGE_TYPE", "sqlite")
	t.Setenv("VOLUNTEERDESK_MAX_WORKLOAD_PER_VOLUNTEER", "8")
	t.Setenv("VOLUNTEERDESK_AUTO_ASSIGN_ON_CREATE", "true")
	t.Setenv("VOLUNTEERDESK_VAPID_PUBLIC_KEY", "pub")
	t.Setenv("VOLUNTEERDESK_VAPID_PRIVATE_KEY", "priv")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", env.StorageEnv.Type)
	assert.Equal(t, 8, env.MaxWorkloadPerVolunteer)
	assert.True(t, env.AutoAssignOnCreate)
	assert.True(t, env.VAPIDEnv.Enabled())
}

func TestLoadEnv_RequiresSecret(t *testing.T) {
	t.Setenv("VOLUNTEERDESK_JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("VOLUNTEERDESK_JWT_SECRET"))
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, (&BaseEnv{LogLevel: "warn"}).SlogLevel())
	assert.Equal(t, slog.LevelDebug, (&BaseEnv{LogLevel: "loud"}).SlogLevel())
	assert.Equal(t, slog.LevelDebug, (*BaseEnv)(nil).SlogLevel())
}
