// Package config handles the machine-local settings of configsync: commit
// identity, remote name, watch debounce window, history length and log
// rotation. Settings are layered with koanf from the embedded defaults, an
// optional settings.toml in the data directory and CONFIGSYNC_* environment
// variables, in that order of precedence.
//
// The declarative team model is not configuration in this sense; it lives in
// the repository and is handled by package manifest.
package config
