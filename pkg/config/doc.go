// Package config handles configuration management for rocas.
// It layers embedded defaults, a TOML or YAML file, ROCAS_ environment
// variables and programmatic overrides, in that order.
package config
