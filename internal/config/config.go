package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataRoot  string `toml:"data_root"`
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
}

// Dataset contains configuration for locating dataset description files and
// for interpreting raw operant logs.
type Dataset struct {
	RegistryPath     string `toml:"registry_path"`
	OverridesPath    string `toml:"overrides_path"`
	DemographicsPath string `toml:"demographics_path"`
	MetadataPath     string `toml:"metadata_path"`
	StartVariable    string `toml:"start_variable"`
	Timezone         string `toml:"timezone"`
}

// Photometry contains the TDT store names used when reading fiber photometry
// tanks. The commanded voltage stream carries four demodulated channels on
// newer rigs; older rigs recorded a two-channel raw stream instead. The TTL
// epocs anchor cross-clock alignment; per-session left/right flips are
// handled by the dataset overrides file, not here.
type Photometry struct {
	DMSIsosbestic    string `toml:"dms_isosbestic_stream"`
	DMSSignal        string `toml:"dms_signal_stream"`
	DLSIsosbestic    string `toml:"dls_isosbestic_stream"`
	DLSSignal        string `toml:"dls_signal_stream"`
	CommandedStream  string `toml:"commanded_stream"`
	RawDetectorAlias string `toml:"raw_detector_stream"`
	TTLLeftEpoc      string `toml:"ttl_left_epoc"`
	TTLRightEpoc     string `toml:"ttl_right_epoc"`
}

// Conversion contains configuration for the conversion run itself.
type Conversion struct {
	Workers   int  `toml:"workers"`
	Overwrite bool `toml:"overwrite"`
	FailFast  bool `toml:"fail_fast"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunComplete    bool   `toml:"run_complete"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for worker timing and stale-session recovery.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Tether.
//
// Configuration sections by subsystem:
//   - Paths: dataset root and output/work/log directories
//   - Dataset: description files, start variable, and session timezone
//   - Photometry: TDT stream naming for fiber photometry tanks
//   - Conversion: worker count and overwrite behavior
//   - Notifications: ntfy push notification settings
//   - Workflow: queue polling and heartbeat intervals
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Dataset       Dataset       `toml:"dataset"`
	Photometry    Photometry    `toml:"photometry"`
	Conversion    Conversion    `toml:"conversion"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`

	location *time.Location
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tether/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tether.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories conversion runs write into.
// DataRoot is input only and is never created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		// Best-effort so config load survives when output storage is offline.
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// RequireDataRoot verifies that paths.data_root is configured and exists.
// Commands that read the dataset call this before touching the tree; commands
// that operate on explicit file arguments never need it.
func (c *Config) RequireDataRoot() (string, error) {
	root := strings.TrimSpace(c.Paths.DataRoot)
	if root == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/tether/config.toml"
		}
		return "", fmt.Errorf("paths.data_root is required. Set TETHER_DATA_ROOT env var or edit %s (create with 'tether config init')", defaultPath)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("paths.data_root %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("paths.data_root %q is not a directory", root)
	}
	return root, nil
}

// Location returns the timezone sessions are recorded in. Validate caches the
// parsed location so this never fails after a successful Load.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, err := time.LoadLocation(c.Dataset.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
