// Package config loads, normalizes, and validates the txbulk TOML
// configuration file.
package config
