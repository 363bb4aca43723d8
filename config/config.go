package config

import (
	"strings"

	"github.com/fshlint/maki/diag"
)

// ConfigFileNames are the config file names Discover looks for, in
// priority order.
var ConfigFileNames = []string{".makirc.json", ".makirc.toml"}

// EnvPrefix is the prefix an environment variable override must carry.
const EnvPrefix = "MAKI_"

// Config is the complete, merged configuration for one linter invocation.
type Config struct {
	Linter       LinterConfig      `koanf:"linter"`
	Formatter    FormatterConfig   `koanf:"formatter"`
	Files        FilesConfig       `koanf:"files"`
	Dependencies map[string]string `koanf:"dependencies"`
	Build        BuildConfig       `koanf:"build"`

	// ConfigFile is the path config was loaded from, if any. Metadata
	// describing the load, never itself loaded from a config file.
	ConfigFile string `koanf:"-"`
}

// LinterConfig controls rule discovery and execution.
type LinterConfig struct {
	Enabled bool `koanf:"enabled"`

	// RuleDirectories are additional paths scanned for custom rule files,
	// matched against the doublestar include/exclude globs rule discovery
	// already uses.
	RuleDirectories []string `koanf:"ruleDirectories"`

	// Rules maps a rule category to a severity override ("fatal", "error",
	// "warning", "info", or "hint"); see RuleSeverity.
	Rules map[string]string `koanf:"rules"`
}

// FormatterConfig controls the pretty-printer.
type FormatterConfig struct {
	Enabled     bool `koanf:"enabled"`
	IndentSize  int  `koanf:"indentSize"`
	LineWidth   int  `koanf:"lineWidth"`
	AlignCarets bool `koanf:"alignCarets"`
}

// FilesConfig scopes which files a run considers.
type FilesConfig struct {
	Include []string `koanf:"include"`
	Exclude []string `koanf:"exclude"`
}

// BuildConfig names the FHIR releases a session resolves against.
type BuildConfig struct {
	FhirVersion []string `koanf:"fhirVersion"`
}

// Default returns maki's built-in configuration, the base layer every
// loaded config file and environment override is merged over.
func Default() *Config {
	return &Config{
		Linter: LinterConfig{
			Enabled: true,
		},
		Formatter: FormatterConfig{
			Enabled:     true,
			IndentSize:  2,
			LineWidth:   100,
			AlignCarets: true,
		},
		Build: BuildConfig{
			FhirVersion: []string{"4.0.1"},
		},
	}
}

// RuleSeverity resolves category's configured severity override, if the
// config names one and it names a recognized severity.
func (c *Config) RuleSeverity(category string) (diag.Severity, bool) {
	raw, ok := c.Linter.Rules[category]
	if !ok {
		return 0, false
	}
	return parseSeverity(raw)
}

func parseSeverity(raw string) (diag.Severity, bool) {
	switch strings.ToLower(raw) {
	case "fatal":
		return diag.Fatal, true
	case "error":
		return diag.Error, true
	case "warning":
		return diag.Warning, true
	case "info":
		return diag.Info, true
	case "hint":
		return diag.Hint, true
	default:
		return 0, false
	}
}
