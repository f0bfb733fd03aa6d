// Package config loads, normalizes, and validates legendastv configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts and
// XDG base directories), reads TOML files, and honours environment fallbacks
// such as LEGENDASTV_LOGIN and OPENSUBTITLES_API_KEY. The Config type
// centralizes every knob the resolver and CLI need: catalog credentials,
// matching thresholds, ranking weights, cache and notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
