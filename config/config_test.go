package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid config", modify: func(c *Config) {}},
		{
			name:    "invalid fault tolerance",
			modify:  func(c *Config) { c.Chain.FaultTolerance = chain.FaultTolerance(9) },
			wantErr: "invalid fault tolerance",
		},
		{
			name:    "unknown step",
			modify:  func(c *Config) { c.Chain.Steps = []string{"validate", "triple"} },
			wantErr: `unknown step "triple"`,
		},
		{
			name:    "negative max runs",
			modify:  func(c *Config) { c.History.MaxRuns = -1 },
			wantErr: "max_runs",
		},
		{
			name:    "negative max saved",
			modify:  func(c *Config) { c.History.MaxSaved = -1 },
			wantErr: "max_saved",
		},
		{
			name: "scrape and push",
			modify: func(c *Config) {
				c.Monitoring.ListenAddr = ":9090"
				c.Monitoring.PushURL = "http://vm:8428"
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "push url without scheme",
			modify:  func(c *Config) { c.Monitoring.PushURL = "vm:8428" },
			wantErr: "push_url",
		},
		{
			name:    "negative push timeout",
			modify:  func(c *Config) { c.Monitoring.PushTimeout = -time.Second },
			wantErr: "push timeout",
		},
		{
			name:    "bad cron",
			modify:  func(c *Config) { c.Schedule.Cron = "every day" },
			wantErr: "invalid schedule",
		},
		{
			name:    "cron that never fires",
			modify:  func(c *Config) { c.Schedule.Cron = "0 0 30 2 *" },
			wantErr: "never fires",
		},
		{
			name:   "valid cron list",
			modify: func(c *Config) { c.Schedule.Cron = "0 2 * * *; @every 1h" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_BadCronWrapsSentinel(t *testing.T) {
	cfg := Default()
	cfg.Schedule.Cron = "nope"
	assert.ErrorIs(t, cfg.Validate(), scheduler.ErrInvalidCronSpec)
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()

	assert.Equal(t, chain.Strict, cfg.Chain.FaultTolerance)
	assert.Equal(t, []string{StepValidate, StepDouble, StepSave}, cfg.Chain.Steps)
	assert.Equal(t, 100, cfg.History.MaxRuns)
	assert.Equal(t, 1000, cfg.History.MaxSaved)
	assert.Equal(t, "eventchain", cfg.Monitoring.MetricsPrefix)
	assert.Equal(t, "chainrun", cfg.Monitoring.JobName)
	assert.Equal(t, 30*time.Second, cfg.Monitoring.PushTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestConfig_SetDefaultsKeepsValues(t *testing.T) {
	cfg := Config{
		Chain:      ChainConfig{Steps: []string{StepValidate}},
		Monitoring: MonitoringConfig{JobName: "nightly"},
	}
	cfg.SetDefaults()
	assert.Equal(t, []string{StepValidate}, cfg.Chain.Steps)
	assert.Equal(t, "nightly", cfg.Monitoring.JobName)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`chain:
  fault_tolerance: best_effort
  input: 21
  steps: [validate, double]
history:
  max_runs: 5
monitoring:
  push_url: http://vm:8428
  push_timeout: 5s
  metrics_prefix: demo
schedule:
  cron: "*/5 * * * *"
logging:
  level: debug
  format: text
`))
	require.NoError(t, err)

	assert.Equal(t, chain.BestEffort, cfg.Chain.FaultTolerance)
	assert.Equal(t, 21, cfg.Chain.Input)
	assert.Equal(t, []string{"validate", "double"}, cfg.Chain.Steps)
	assert.Equal(t, 5, cfg.History.MaxRuns)
	assert.Equal(t, 1000, cfg.History.MaxSaved)
	assert.Equal(t, "http://vm:8428", cfg.Monitoring.PushURL)
	assert.Equal(t, 5*time.Second, cfg.Monitoring.PushTimeout)
	assert.Equal(t, "demo", cfg.Monitoring.MetricsPrefix)
	assert.Equal(t, "chainrun", cfg.Monitoring.JobName)
	assert.Equal(t, "*/5 * * * *", cfg.Schedule.Cron)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "unknown policy", yaml: "chain:\n  fault_tolerance: sometimes\n", wantErr: "unknown fault tolerance"},
		{name: "unknown field", yaml: "chain:\n  retries: 3\n", wantErr: "retries"},
		{name: "wrong type", yaml: "chain:\n  input: lots\n", wantErr: "decoding config"},
		{name: "fails validation", yaml: "chain:\n  steps: [explode]\n", wantErr: "unknown step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain:\n  input: 7\n  fault_tolerance: lenient\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Chain.Input)
	assert.Equal(t, chain.Lenient, cfg.Chain.FaultTolerance)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain:\n  steps: [nope]\n"), 0o600))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, path)
}
