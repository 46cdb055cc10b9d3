package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tether/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TETHER_DATA_ROOT", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "tether", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "conversion_nwb") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Dataset.StartVariable != "Start Date" {
		t.Fatalf("unexpected start variable: %q", cfg.Dataset.StartVariable)
	}
	if cfg.Dataset.Timezone != "America/Chicago" {
		t.Fatalf("unexpected timezone: %q", cfg.Dataset.Timezone)
	}
	if cfg.Photometry.CommandedStream != "Fi1d" {
		t.Fatalf("unexpected commanded stream: %q", cfg.Photometry.CommandedStream)
	}
	if cfg.Conversion.Workers != 4 {
		t.Fatalf("unexpected worker count: %d", cfg.Conversion.Workers)
	}
	if cfg.Conversion.Overwrite {
		t.Fatal("expected overwrite disabled by default")
	}
	if cfg.Location() == nil {
		t.Fatal("expected a parsed timezone location")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tether.toml")

	type payload struct {
		Paths struct {
			DataRoot  string `toml:"data_root"`
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Dataset struct {
			StartVariable string `toml:"start_variable"`
		} `toml:"dataset"`
		Conversion struct {
			Workers   int  `toml:"workers"`
			Overwrite bool `toml:"overwrite"`
		} `toml:"conversion"`
	}
	custom := payload{}
	custom.Paths.DataRoot = tempDir
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.Dataset.StartVariable = "Start Time"
	custom.Conversion.Workers = 2
	custom.Conversion.Overwrite = true
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DataRoot != tempDir {
		t.Fatalf("expected data root from file, got %q", cfg.Paths.DataRoot)
	}
	if cfg.Dataset.StartVariable != "Start Time" {
		t.Fatalf("expected start variable override, got %q", cfg.Dataset.StartVariable)
	}
	if cfg.Conversion.Workers != 2 {
		t.Fatalf("expected worker override 2, got %d", cfg.Conversion.Workers)
	}
	if !cfg.Conversion.Overwrite {
		t.Fatal("expected overwrite enabled from file")
	}

	if root, err := cfg.RequireDataRoot(); err != nil || root != tempDir {
		t.Fatalf("RequireDataRoot = (%q, %v), want (%q, nil)", root, err, tempDir)
	}
}

func TestEnvVarSuppliesDataRoot(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("TETHER_DATA_ROOT", tempDir)

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataRoot != tempDir {
		t.Fatalf("expected data root from env, got %q", cfg.Paths.DataRoot)
	}
}

func TestRequireDataRootFailsWhenUnset(t *testing.T) {
	t.Setenv("TETHER_DATA_ROOT", "")
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if _, err := cfg.RequireDataRoot(); err == nil {
		t.Fatal("expected RequireDataRoot to fail without data_root")
	} else if !strings.Contains(err.Error(), "paths.data_root") {
		t.Fatalf("expected error to name paths.data_root, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		message string
	}{
		{
			name:    "zero workers",
			mutate:  func(c *config.Config) { c.Conversion.Workers = 0 },
			message: "conversion.workers",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "yaml" },
			message: "logging.format",
		},
		{
			name:    "bogus timezone",
			mutate:  func(c *config.Config) { c.Dataset.Timezone = "Mars/Olympus" },
			message: "dataset.timezone",
		},
		{
			name: "heartbeat timeout below interval",
			mutate: func(c *config.Config) {
				c.Workflow.HeartbeatInterval = 30
				c.Workflow.HeartbeatTimeout = 30
			},
			message: "heartbeat_timeout",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected error mentioning %q, got %v", tc.message, err)
			}
		})
	}
}

func TestCreateSampleWritesParseableTOML(t *testing.T) {
	tempDir := t.TempDir()
	samplePath := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(samplePath); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	for _, section := range []string{"paths", "dataset", "photometry", "conversion", "logging"} {
		if _, ok := decoded[section]; !ok {
			t.Fatalf("sample config missing [%s] section", section)
		}
	}
}
