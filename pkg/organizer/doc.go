// Package organizer wires configuration to a running watch engine. It
// builds the rule set and watch settings from a config.Config, owns the
// engine's lifecycle, and forwards every outcome to a Sink.
package organizer
