// Package config loads the YAML configuration of the chainrun program.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/logging"
	"github.com/nomis52/eventchain/scheduler"
	"gopkg.in/yaml.v3"
)

// Step names accepted in chain.steps.
const (
	StepValidate = "validate"
	StepDouble   = "double"
	StepSave     = "save"
)

const (
	// Default monitoring settings
	defaultMetricsPrefix = "eventchain"
	defaultJobName       = "chainrun"
	defaultPushTimeout   = 30 * time.Second

	// Default history settings
	defaultMaxRuns  = 100
	defaultMaxSaved = 1000

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

var knownSteps = map[string]bool{
	StepValidate: true,
	StepDouble:   true,
	StepSave:     true,
}

// Config represents the complete application configuration
type Config struct {
	Chain      ChainConfig      `yaml:"chain"`
	History    HistoryConfig    `yaml:"history"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Logging    logging.Config   `yaml:"logging"`
}

// ChainConfig controls how the chain is assembled and seeded.
type ChainConfig struct {
	// FaultTolerance is one of strict, lenient or bestEffort. Defaults to strict.
	FaultTolerance chain.FaultTolerance `yaml:"fault_tolerance"`

	// Input is the value seeded under the "input" key of every run.
	Input int `yaml:"input"`

	// Steps lists the steps to run, in order. Defaults to validate, double, save.
	Steps []string `yaml:"steps"`
}

// HistoryConfig bounds what is kept in memory between runs.
type HistoryConfig struct {
	// MaxRuns is the number of completed runs kept in the run history.
	MaxRuns int `yaml:"max_runs"`
	// MaxSaved is the number of outputs kept by the save step.
	MaxSaved int `yaml:"max_saved"`
}

// MonitoringConfig holds metrics settings. With ListenAddr set, metrics are
// served for scraping; with PushURL set, they are pushed after every run.
type MonitoringConfig struct {
	ListenAddr    string        `yaml:"listen_addr"`
	PushURL       string        `yaml:"push_url"`
	PushTimeout   time.Duration `yaml:"push_timeout"`
	MetricsPrefix string        `yaml:"metrics_prefix"`
	JobName       string        `yaml:"jobname"`
}

// ScheduleConfig holds the cron schedule. An empty Cron runs the chain once.
type ScheduleConfig struct {
	// Cron is one or more ";" separated cron expressions.
	Cron string `yaml:"cron"`
}

// Default returns a Config with every default applied.
func Default() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if !c.Chain.FaultTolerance.IsValid() {
		return fmt.Errorf("invalid fault tolerance %d", int(c.Chain.FaultTolerance))
	}
	for _, s := range c.Chain.Steps {
		if !knownSteps[s] {
			return fmt.Errorf("unknown step %q (available: %s, %s, %s)", s, StepValidate, StepDouble, StepSave)
		}
	}
	if c.History.MaxRuns < 0 {
		return fmt.Errorf("history max_runs must not be negative")
	}
	if c.History.MaxSaved < 0 {
		return fmt.Errorf("history max_saved must not be negative")
	}
	if c.Monitoring.ListenAddr != "" && c.Monitoring.PushURL != "" {
		return fmt.Errorf("monitoring listen_addr and push_url are mutually exclusive")
	}
	if c.Monitoring.PushURL != "" {
		u, err := url.Parse(c.Monitoring.PushURL)
		if err != nil {
			return fmt.Errorf("invalid push_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("push_url must be an http or https URL, got %q", c.Monitoring.PushURL)
		}
	}
	if c.Monitoring.PushTimeout < 0 {
		return fmt.Errorf("push timeout must not be negative")
	}
	if c.Schedule.Cron != "" {
		if _, err := scheduler.ParseSpecs(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule: %w", err)
		}
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if len(c.Chain.Steps) == 0 {
		c.Chain.Steps = []string{StepValidate, StepDouble, StepSave}
	}
	if c.History.MaxRuns == 0 {
		c.History.MaxRuns = defaultMaxRuns
	}
	if c.History.MaxSaved == 0 {
		c.History.MaxSaved = defaultMaxSaved
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Monitoring.PushTimeout == 0 {
		c.Monitoring.PushTimeout = defaultPushTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
	// The zero FaultTolerance is already strict.
}

// Parse decodes YAML data, applies defaults and validates the result.
// Unknown fields are rejected. Empty data yields the default Config.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
