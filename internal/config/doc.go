// Package config loads, normalizes, and validates the TOML configuration.
//
// Configuration is resolved from an explicit path, ~/.config/rbtv/config.toml,
// or an rbtv.toml in the working directory, in that order. Missing files are
// not an error; defaults apply.
package config
