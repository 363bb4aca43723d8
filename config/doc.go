// Package config loads maki's configuration from the closest .makirc.json
// or .makirc.toml file, discovered by walking upward from a start path,
// and layers it over built-in defaults and MAKI_-prefixed environment
// variable overrides using github.com/knadh/koanf/v2.
//
// Discovery stops at the first config file found; config here never
// merges two files together the way rule execution merges multiple rule
// directories.
package config
