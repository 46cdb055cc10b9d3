package config

const (
	defaultOutputDir         = "~/conversion_nwb"
	defaultWorkDir           = "~/.local/share/tether/work"
	defaultLogDir            = "~/.local/share/tether/logs"
	defaultStartVariable     = "Start Date"
	defaultTimezone          = "America/Chicago"
	defaultDMSIsosbestic     = "Dv1A"
	defaultDMSSignal         = "Dv2A"
	defaultDLSIsosbestic     = "Dv3B"
	defaultDLSSignal         = "Dv4B"
	defaultCommandedStream   = "Fi1d"
	defaultRawDetectorStream = "Fi1r"
	defaultTTLLeftEpoc       = "LNPS"
	defaultTTLRightEpoc      = "RNPS"
	defaultWorkers           = 4
	defaultNtfyTimeout       = 10
	defaultQueuePollInterval = 5
	defaultHeartbeatInterval = 15
	defaultHeartbeatTimeout  = 120
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
		},
		Dataset: Dataset{
			StartVariable: defaultStartVariable,
			Timezone:      defaultTimezone,
		},
		Photometry: Photometry{
			DMSIsosbestic:    defaultDMSIsosbestic,
			DMSSignal:        defaultDMSSignal,
			DLSIsosbestic:    defaultDLSIsosbestic,
			DLSSignal:        defaultDLSSignal,
			CommandedStream:  defaultCommandedStream,
			RawDetectorAlias: defaultRawDetectorStream,
			TTLLeftEpoc:      defaultTTLLeftEpoc,
			TTLRightEpoc:     defaultTTLRightEpoc,
		},
		Conversion: Conversion{
			Workers: defaultWorkers,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			RunComplete:    true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			HeartbeatInterval: defaultHeartbeatInterval,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
