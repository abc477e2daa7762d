// Package config loads and validates the service-level configuration
// (SPEC_FULL.md §4.9, §3.1): the HTTP/trigger daemon's listen address,
// directory layout, queue/executor defaults, log level, and optional
// Postgres connection settings. Grounded on the teacher's internal/config/types.go + validator.go
// pattern (YAML + go-playground/validator/v10), generalized from
// pipeline-step schema to service schema.
package config

import "time"

// ServiceConfig is the top-level document loaded from dagflow.yaml.
type ServiceConfig struct {
	Version    string `yaml:"version" validate:"required"`
	Name       string `yaml:"name" validate:"required,min=1,max=100"`
	ListenAddr string `yaml:"listen_addr,omitempty" validate:"omitempty,hostname_port"`

	// DagsDir holds persisted DAG snapshots (<dags_dir>); JobsDir holds
	// scheduler job bookkeeping (<jobs_dir>); ConfigDir is where a
	// .postgres INI file, if any, is looked up. Defaults mirror
	// original_source/maellin/app/main.py's create_dirs('.dags', '.jobs').
	DagsDir   string `yaml:"dags_dir,omitempty" validate:"omitempty,min=1"`
	JobsDir   string `yaml:"jobs_dir,omitempty" validate:"omitempty,min=1"`
	ConfigDir string `yaml:"config_dir,omitempty" validate:"omitempty,min=1"`

	// LogLevel/HumanReadable configure the ambient logx logger (SPEC_FULL.md
	// §2 item 11); HumanReadable selects a plain-text writer over JSON,
	// matching the teacher's infrastructure/logging split.
	LogLevel      string `yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	HumanReadable bool   `yaml:"human_readable,omitempty"`

	// PollIntervalSeconds is the YAML-facing form of the trigger's scan
	// period; PollInterval is the time.Duration derived from it by
	// ApplyDefaults for internal use (internal/api.Trigger.Interval).
	PollIntervalSeconds int           `yaml:"poll_interval_seconds,omitempty" validate:"omitempty,min=1,max=86400"`
	PollInterval        time.Duration `yaml:"-"`

	Execution ExecutionConfig `yaml:"execution,omitempty"`
	Postgres  *PostgresConfig `yaml:"postgres,omitempty"`
}

// ExecutionConfig selects the executor/queue backend pipelines run under.
// A registration request's Executor field does not override it.
type ExecutionConfig struct {
	Mode         string `yaml:"mode,omitempty" validate:"omitempty,oneof=sequential thread-pool cooperative"`
	Workers      int    `yaml:"workers,omitempty" validate:"omitempty,min=1,max=256"`
	QueueBackend string `yaml:"queue_backend,omitempty" validate:"omitempty,oneof=default sequential multi-threading multi-processing asyncio async"`
	GCEnabled    bool   `yaml:"gc_enabled,omitempty"`
}

// PostgresConfig holds the connection parameters read from the optional
// <config_dir>/.postgres file. The service only loads and logs them: DAG
// snapshots are persisted as gob files, and no database connection is
// opened. It is loaded from a classic INI file rather than YAML,
// matching the libpq .pgpass / service-file convention operators already
// carry — see DESIGN.md for why this one component is hand-rolled against
// the standard library instead of a third-party INI library.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// ApplyDefaults fills in zero-valued optional fields, grounded on the
// teacher's domain/pipeline/settings.go ApplyDefaults pattern.
func (c *ServiceConfig) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8080"
	}
	if c.DagsDir == "" {
		c.DagsDir = ".dags"
	}
	if c.JobsDir == "" {
		c.JobsDir = ".jobs"
	}
	if c.ConfigDir == "" {
		c.ConfigDir = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = 300 // 5 minutes, matching maellin's hardcoded scheduler interval
	}
	c.PollInterval = time.Duration(c.PollIntervalSeconds) * time.Second
	c.Execution.ApplyDefaults()
}

// ApplyDefaults fills in zero-valued optional execution fields.
func (e *ExecutionConfig) ApplyDefaults() {
	if e.Mode == "" {
		e.Mode = "thread-pool"
	}
	if e.Workers == 0 {
		e.Workers = 4
	}
	if e.QueueBackend == "" {
		e.QueueBackend = "default"
	}
}
