// Package config loads, normalizes, and validates reelfeed configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REELFEED_API_URL. The Config type centralizes every knob the engine and CLI
// need, so state directories, playback policy, and backend credentials are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
