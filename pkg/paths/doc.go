// Package paths provides centralized path handling for configsync.
//
// Every fixed location (the managed repository, the machine-local data
// directory, the log file) is resolved exactly once into an Environment,
// which is then passed explicitly to every component. Nothing downstream
// looks up directories on its own.
//
// # Environment Variables
//
//   - CONFIGSYNC_ROOT: managed repository (default: $XDG_CONFIG_HOME/configsync)
//   - CONFIGSYNC_DATA_DIR: machine-local data (default: $XDG_DATA_HOME/configsync)
//   - CONFIGSYNC_STATE_DIR: log directory (default: $XDG_STATE_HOME/configsync)
//
// # Layout
//
//	<repo>/team-config.toml     declarative model (synced)
//	<repo>/secrets/<name>.age   ciphertext (synced)
//	<data>/state.toml           machine roles (never synced)
//	<data>/key.txt              private key, 0600 (never synced)
//	<data>/settings.toml        tool settings (never synced)
package paths
