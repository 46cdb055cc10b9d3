package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDataset(); err != nil {
		return err
	}
	c.normalizePhotometry()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataRoot == "" {
		if value, ok := os.LookupEnv("TETHER_DATA_ROOT"); ok {
			c.Paths.DataRoot = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.DataRoot) != "" {
		if c.Paths.DataRoot, err = expandPath(c.Paths.DataRoot); err != nil {
			return fmt.Errorf("paths.data_root: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() error {
	var err error
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"dataset.registry_path", &c.Dataset.RegistryPath},
		{"dataset.overrides_path", &c.Dataset.OverridesPath},
		{"dataset.demographics_path", &c.Dataset.DemographicsPath},
		{"dataset.metadata_path", &c.Dataset.MetadataPath},
	} {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			*field.value = ""
			continue
		}
		if *field.value, err = expandPath(trimmed); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	c.Dataset.StartVariable = strings.TrimSpace(c.Dataset.StartVariable)
	if c.Dataset.StartVariable == "" {
		c.Dataset.StartVariable = defaultStartVariable
	}
	c.Dataset.Timezone = strings.TrimSpace(c.Dataset.Timezone)
	if c.Dataset.Timezone == "" {
		c.Dataset.Timezone = defaultTimezone
	}
	return nil
}

func (c *Config) normalizePhotometry() {
	fill := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	fill(&c.Photometry.DMSIsosbestic, defaultDMSIsosbestic)
	fill(&c.Photometry.DMSSignal, defaultDMSSignal)
	fill(&c.Photometry.DLSIsosbestic, defaultDLSIsosbestic)
	fill(&c.Photometry.DLSSignal, defaultDLSSignal)
	fill(&c.Photometry.CommandedStream, defaultCommandedStream)
	fill(&c.Photometry.RawDetectorAlias, defaultRawDetectorStream)
	fill(&c.Photometry.TTLLeftEpoc, defaultTTLLeftEpoc)
	fill(&c.Photometry.TTLRightEpoc, defaultTTLRightEpoc)
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("TETHER_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
