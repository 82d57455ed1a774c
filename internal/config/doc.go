// Package config loads, validates, and normalizes vapord configuration from
// TOML files with environment variable overrides for the credential, worker
// pool size, and cache quota.
package config
