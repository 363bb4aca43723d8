package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/tidwall/jsonc"
)

// Load discovers the closest config file starting from startPath and loads
// it over the built-in defaults, applying environment variable overrides
// on top.
func Load(startPath string) (*Config, error) {
	return loadWithConfigPath(Discover(startPath))
}

// LoadFromFile loads configuration from a specific file, skipping
// discovery. configPath's extension (.json or .toml) selects the parser.
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithConfigPath(configPath)
}

func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if configPath != "" {
		if err := loadConfigFile(k, configPath); err != nil {
			return nil, err
		}
	}

	if overrides := envOverrides(EnvPrefix); len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("config: applying environment overrides: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

// loadConfigFile merges path's contents into k. A .toml file goes through
// koanf's own file/toml providers, the same pair the original config
// loader this package is grounded on uses. A .json file is read and
// jsonc-stripped by hand first (koanf's file provider has no JSONC-aware
// parser), then handed to confmap as a plain decoded map — the same
// provider a CLI layer would use for flag overrides, reused here rather
// than adding a second map-loading path.
func loadConfigFile(k *koanf.Koanf, path string) error {
	if strings.HasSuffix(path, ".toml") {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return fmt.Errorf("config: loading %s: %w", path, err)
		}
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonc.ToJSON(raw), &parsed); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := k.Load(confmap.Provider(parsed, "."), nil); err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

// envOverrides collects EnvPrefix-prefixed environment variables into a
// flat, dot-delimited map confmap.Provider can merge in alongside the file
// and default layers. MAKI_FORMATTER_INDENTSIZE becomes
// "formatter.indentsize"; koanf's struct decoder matches field tags
// case-insensitively, so the lost camelCase doesn't stop it from landing
// on FormatterConfig.IndentSize.
func envOverrides(prefix string) map[string]interface{} {
	out := make(map[string]interface{})
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, prefix), "_", "."))
		out[key] = coerce(value)
	}
	return out
}

// coerce converts an environment variable's string value to a bool or int
// when it looks like one, so an override like MAKI_FORMATTER_ENABLED=false
// unmarshals into its native-typed field instead of staying a string.
func coerce(value string) interface{} {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}
