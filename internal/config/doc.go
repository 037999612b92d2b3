// Package config loads, normalizes, and validates the TOML configuration that
// drives the upscaling pipeline: external binary paths, upscaler model options,
// image and video output settings, and destination templating.
//
// Load resolves the config file (explicit path, ~/.config/loupe/config.toml,
// or ./loupe.toml), decodes it over Default(), expands paths, and validates.
package config
