// Package config resolves the coordinator's runtime settings from
// flags, environment variables, and built-in defaults, in that order
// of precedence.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings cmd/taskmesh needs to start the server.
type Config struct {
	DBPath     string        `mapstructure:"db_path"`
	RepoRoot   string        `mapstructure:"repo_root"`
	MaxWorkers int           `mapstructure:"max_workers"`
	Backoff    time.Duration `mapstructure:"backoff"`
}

// Flags carries values parsed from the command line. A zero value for
// a field means "not set on the command line" and defers to the
// environment variable or default.
type Flags struct {
	DBPath     string
	RepoRoot   string
	MaxWorkers int
	Backoff    time.Duration
}

// Load resolves Config in precedence order: flags, then environment
// variables (TASK_DB_PATH, TASK_REPO_ROOT, TASK_MAX_WORKERS,
// TASK_BACKOFF), then the defaults below.
func Load(flags Flags) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TASK")
	v.AutomaticEnv()
	_ = v.BindEnv("db_path", "TASK_DB_PATH")
	_ = v.BindEnv("repo_root", "TASK_REPO_ROOT")
	_ = v.BindEnv("max_workers", "TASK_MAX_WORKERS")
	_ = v.BindEnv("backoff", "TASK_BACKOFF")

	if flags.DBPath != "" {
		v.Set("db_path", flags.DBPath)
	}
	if flags.RepoRoot != "" {
		v.Set("repo_root", flags.RepoRoot)
	}
	if flags.MaxWorkers != 0 {
		v.Set("max_workers", flags.MaxWorkers)
	}
	if flags.Backoff != 0 {
		v.Set("backoff", flags.Backoff)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	v.SetDefault("db_path", filepath.Join(cwd, ".tasks", "tasks.db"))
	v.SetDefault("repo_root", cwd)
	v.SetDefault("max_workers", 3)
	v.SetDefault("backoff", 5*time.Second)
}
