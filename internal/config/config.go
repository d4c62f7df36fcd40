// Package config provides configuration types and defaults for damageflow.
package config

import "time"

// Config holds all configuration for damageflow.
type Config struct {
	Timing      TimingConfig      `yaml:"timing" mapstructure:"timing"`
	UI          UIConfig          `yaml:"ui" mapstructure:"ui"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	CatalogFile string            `yaml:"catalog_file" mapstructure:"catalog_file"` // YAML stage catalog (empty = built-in)
}

// TimingConfig holds the controller's clock settings.
type TimingConfig struct {
	StepInterval time.Duration `yaml:"step_interval" mapstructure:"step_interval"` // Main, branch and merge steps
	SettleDelay  time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`   // Barrier release after all branches finish
	LoopDelay    time.Duration `yaml:"loop_delay" mapstructure:"loop_delay"`       // Pause after the last merge stage
}

// UIConfig holds renderer settings.
type UIConfig struct {
	InitialBranch  string `yaml:"initial_branch" mapstructure:"initial_branch"`     // Branch selected at startup ("none" to leave unset)
	ShowAllMarkers bool   `yaml:"show_all_markers" mapstructure:"show_all_markers"` // Draw one marker per branch while fanned out
	StartPaused    bool   `yaml:"start_paused" mapstructure:"start_paused"`
}

// PathsConfig holds file paths for the event log and control socket.
type PathsConfig struct {
	Log    string `yaml:"log" mapstructure:"log"`
	Socket string `yaml:"socket" mapstructure:"socket"`
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Default returns a Config with the pipeline's original cadence.
func Default() *Config {
	return &Config{
		Timing: TimingConfig{
			StepInterval: 2 * time.Second,
			SettleDelay:  time.Second,
			LoopDelay:    2 * time.Second,
		},
		UI: UIConfig{
			InitialBranch:  "new-damage",
			ShowAllMarkers: true,
		},
		Paths: PathsConfig{
			Log:    ".damageflow/events.jsonl",
			Socket: ".damageflow/damageflow.sock",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}
