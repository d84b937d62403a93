// Package config loads, normalizes, and validates the TOML configuration
// shared by every tooltally command.
package config
