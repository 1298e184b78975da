package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/morikuni/failure/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()

	want := Config{
		Endpoint:   "https://www.gov.il/he/api/DynamicCollector",
		TemplateID: uuid.MustParse("a591accc-14b7-4be8-a7b7-395ca588db53"),
		BatchSize:  10,
		Pause:      200 * time.Millisecond,
		Timeout:    10 * time.Second,
		UserAgent:  "Mozilla/5.0",
		Output:     "clean.json",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Default() mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	for _, k := range []string{"ENDPOINT", "TEMPLATE_ID", "BATCH_SIZE", "PAUSE", "TIMEOUT", "USER_AGENT", "OUTPUT", "LOOKUP", "METRICS_FILE"} {
		t.Setenv(EnvPrefix+k, "")
	}
	dir := t.TempDir()

	envFile := writeFile(t, dir, ".env", "TRAVELWARN_OUTPUT=from-env.json\nTRAVELWARN_BATCH_SIZE=20\nTRAVELWARN_PAUSE=1s\n")
	yamlFile := writeFile(t, dir, "travelwarn.yaml", `
batch_size: 5
timeout: 3s
template_id: 00000000-0000-0000-0000-000000000001
`)

	t.Run("defaults only", func(t *testing.T) {
		cfg, err := Load("", "")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if diff := cmp.Diff(Default(), cfg); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("env file then yaml", func(t *testing.T) {
		cfg, err := Load(yamlFile, envFile)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := Default()
		want.Output = "from-env.json"
		want.Pause = time.Second
		want.BatchSize = 5
		want.Timeout = 3 * time.Second
		want.TemplateID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("process environment beats env file", func(t *testing.T) {
		t.Setenv("TRAVELWARN_OUTPUT", "from-process.json")
		cfg, err := Load("", envFile)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Output != "from-process.json" {
			t.Errorf("Output = %q, want from-process.json", cfg.Output)
		}
		if cfg.BatchSize != 20 {
			t.Errorf("BatchSize = %d, want 20 from env file", cfg.BatchSize)
		}
	})

	t.Run("empty process variable does not hide env file", func(t *testing.T) {
		t.Setenv("TRAVELWARN_PAUSE", "")
		cfg, err := Load("", envFile)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Pause != time.Second {
			t.Errorf("Pause = %v, want 1s from env file", cfg.Pause)
		}
	})

	t.Run("missing env file is fine", func(t *testing.T) {
		if _, err := Load("", filepath.Join(dir, "absent.env")); err != nil {
			t.Errorf("Load() error = %v", err)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"), "")
		if !failure.Is(err, ErrConfigNotFound) {
			t.Errorf("Load() error = %v, want %v", err, ErrConfigNotFound)
		}
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("TRAVELWARN_TIMEOUT", "soon")
		_, err := Load("", "")
		if !failure.Is(err, ErrInvalidConfig) {
			t.Errorf("Load() error = %v, want %v", err, ErrInvalidConfig)
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		p := writeFile(t, dir, "bad.yaml", "batch_size: [")
		_, err := Load(p, "")
		if !failure.Is(err, ErrInvalidConfig) {
			t.Errorf("Load() error = %v, want %v", err, ErrInvalidConfig)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "empty endpoint", modify: func(c *Config) { c.Endpoint = "" }},
		{name: "endpoint not a URL", modify: func(c *Config) { c.Endpoint = "gov.il api" }},
		{name: "nil template", modify: func(c *Config) { c.TemplateID = uuid.Nil }},
		{name: "zero batch size", modify: func(c *Config) { c.BatchSize = 0 }},
		{name: "negative pause", modify: func(c *Config) { c.Pause = -time.Second }},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }},
		{name: "empty output", modify: func(c *Config) { c.Output = "" }},
		{name: "lookup file missing", modify: func(c *Config) { c.LookupPath = "/does/not/exist.yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !failure.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want %v", err, ErrInvalidConfig)
			}
		})
	}
}

func TestCollectorOptions(t *testing.T) {
	cfg := Default()
	cfg.BatchSize = 3
	opts := cfg.CollectorOptions()
	if opts.BatchSize != 3 || opts.Endpoint != cfg.Endpoint || opts.TemplateID != cfg.TemplateID {
		t.Errorf("CollectorOptions() = %+v", opts)
	}
}
