package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env       string `envconfig:"ENV" default:"local"`
	HTTPHost  string `envconfig:"HTTP_HOST" default:""`
	HTTPPort  string `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"debug"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".volunteerdesk/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"volunteerdesk/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
	// SQLite settings (used when Type == "sqlite")
	SQLitePath string `envconfig:"SQLITE_PATH" default:".volunteerdesk/volunteerdesk.db"`
}

// ScoringEnv seeds the assignment engine. ConfigFile, when set, overrides the
// values below and is watched for changes.
type ScoringEnv struct {
	SkillMatchWeight        float64 `envconfig:"SKILL_MATCH_WEIGHT" default:"0.4"`
	AvailabilityWeight      float64 `envconfig:"AVAILABILITY_WEIGHT" default:"0.3"`
	WorkloadWeight          float64 `envconfig:"WORKLOAD_WEIGHT" default:"0.3"`
	MaxWorkloadPerVolunteer int     `envconfig:"MAX_WORKLOAD_PER_VOLUNTEER" default:"5"`
	MinRequiredSkillMatch   float64 `envconfig:"MIN_REQUIRED_SKILL_MATCH" default:"0.3"`
	ConfigFile              string  `envconfig:"SCORING_CONFIG_FILE"`
}

type VAPIDEnv struct {
	PublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	PrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	Subject    string `envconfig:"VAPID_SUBJECT" default:"mailto:desk@example.org"`
}

func (e *VAPIDEnv) Enabled() bool {
	return e != nil && e.PublicKey != "" && e.PrivateKey != ""
}

type OrchestratorEnv struct {
	AutoAssignOnCreate bool `envconfig:"AUTO_ASSIGN_ON_CREATE" default:"false"`
}

type Env struct {
	BaseEnv
	StorageEnv
	ScoringEnv
	VAPIDEnv
	OrchestratorEnv
}

const namespace = "VOLUNTEERDESK"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
