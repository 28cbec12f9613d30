// Package config loads application settings from environment variables and
// an optional YAML file, validates them, and hands the rest of the program a
// typed Config it can trust.
package config
