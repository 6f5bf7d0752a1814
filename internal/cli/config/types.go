// Package config provides configuration management for the tern CLI.
//
// Values are layered from lowest to highest precedence: built-in defaults,
// the project config file (tern.yaml or tern.yml), TERN_ environment
// variables and finally command-line flags that were explicitly set.
package config

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any.
	ConfigFile string `koanf:"-"`

	TabWidth     int         `koanf:"tab_width"`
	TestsDir     string      `koanf:"tests_dir"`
	Jobs         int         `koanf:"jobs"`
	OutputFormat string      `koanf:"output"`
	Verbose      bool        `koanf:"verbose"`
	LogLevel     string      `koanf:"log_level"`
	StatePath    string      `koanf:"state_path"`
	NoHistory    bool        `koanf:"no_history"`
	Check        CheckConfig `koanf:"check"`
	Run          RunConfig   `koanf:"run"`
}

// CheckConfig controls diagnostic severities.
type CheckConfig struct {
	// AbortAt is the least severe level that stops checking a file.
	AbortAt string `koanf:"abort_at"`
	// Severity overrides the default severity of diagnostic codes.
	Severity map[string]string `koanf:"severity"`
}

// RunConfig bounds assertion evaluation.
type RunConfig struct {
	MaxSteps int `koanf:"max_steps"`
	MaxDepth int `koanf:"max_depth"`
}

// Default configuration values.
const (
	DefaultTabWidth  = 4
	DefaultTestsDir  = "tests"
	DefaultStateFile = ".tern/state.db"
	DefaultOutput    = "auto" // TTY=text, otherwise markdown
	DefaultLogLevel  = "warn"
	DefaultAbortAt   = "fatal"
)

// ConfigFileNames lists the config file names searched for, in order.
var ConfigFileNames = []string{"tern.yaml", "tern.yml"}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		TabWidth:     DefaultTabWidth,
		TestsDir:     DefaultTestsDir,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		StatePath:    DefaultStateFile,
		Check:        CheckConfig{AbortAt: DefaultAbortAt},
	}
}
