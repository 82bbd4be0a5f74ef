// Package paths provides centralized path handling for configsync.
// It resolves every fixed location once, following the XDG Base Directory
// specification, and hands the result around as an immutable Environment.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/configsync/pkg/errors"
)

// Environment variable names
const (
	// EnvRoot overrides the managed repository directory
	EnvRoot = "CONFIGSYNC_ROOT"

	// EnvDataDir overrides the machine-local data directory
	EnvDataDir = "CONFIGSYNC_DATA_DIR"

	// EnvStateDir overrides the directory holding the log file
	EnvStateDir = "CONFIGSYNC_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed names inside the managed and machine-local directories. These are
// part of the on-disk contract shared between machines and are not configurable.
const (
	// AppDirName is the directory name used under each XDG base directory
	AppDirName = "configsync"

	// ConfigFileName is the declarative model inside the repository
	ConfigFileName = "team-config.toml"

	// SecretsDirName is the repository subtree holding ciphertext
	SecretsDirName = "secrets"

	// SecretSuffix is appended to a secret's file name to name its ciphertext
	SecretSuffix = ".age"

	// GitDirName is the repository metadata directory
	GitDirName = ".git"

	// StateFileName holds the machine roles
	StateFileName = "state.toml"

	// KeyFileName holds the machine private key
	KeyFileName = "key.txt"

	// SettingsFileName holds machine-local tool settings
	SettingsFileName = "settings.toml"

	// LogFileName is the name of the log file
	LogFileName = "configsync.log"
)

// Options override the resolved directories. Empty fields fall back to the
// environment variables above, then to XDG defaults.
type Options struct {
	HomeDir  string
	RepoDir  string
	DataDir  string
	StateDir string
}

// Environment is the set of locations every component works from. It is
// built once per invocation and passed explicitly.
type Environment struct {
	homeDir  string
	repoDir  string
	dataDir  string
	stateDir string
}

// New resolves an Environment
func New(opts Options) (Environment, error) {
	home := opts.HomeDir
	if home == "" {
		home = os.Getenv(EnvHome)
	}
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return Environment{}, errors.Wrap(err, errors.ErrFileAccess, "failed to determine home directory")
		}
	}

	env := Environment{homeDir: filepath.Clean(home)}

	env.repoDir = firstNonEmpty(opts.RepoDir, os.Getenv(EnvRoot), filepath.Join(xdg.ConfigHome, AppDirName))
	env.dataDir = firstNonEmpty(opts.DataDir, os.Getenv(EnvDataDir), filepath.Join(xdg.DataHome, AppDirName))
	env.stateDir = firstNonEmpty(opts.StateDir, os.Getenv(EnvStateDir), filepath.Join(xdg.StateHome, AppDirName))

	for _, dir := range []*string{&env.repoDir, &env.dataDir, &env.stateDir} {
		abs, err := filepath.Abs(env.ExpandHome(*dir))
		if err != nil {
			return Environment{}, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for %s", *dir)
		}
		*dir = abs
	}

	return env, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// HomeDir returns the user's home directory
func (e Environment) HomeDir() string {
	return e.homeDir
}

// RepoDir returns the managed, version-controlled directory
func (e Environment) RepoDir() string {
	return e.repoDir
}

// DataDir returns the machine-local, unsynced directory
func (e Environment) DataDir() string {
	return e.dataDir
}

// StateDir returns the directory holding the log file
func (e Environment) StateDir() string {
	return e.stateDir
}

// ConfigFile returns the path of the declarative model
func (e Environment) ConfigFile() string {
	return filepath.Join(e.repoDir, ConfigFileName)
}

// SecretsDir returns the repository subtree holding ciphertext
func (e Environment) SecretsDir() string {
	return filepath.Join(e.repoDir, SecretsDirName)
}

// GitDir returns the repository metadata directory
func (e Environment) GitDir() string {
	return filepath.Join(e.repoDir, GitDirName)
}

// StateFile returns the path of the machine role state
func (e Environment) StateFile() string {
	return filepath.Join(e.dataDir, StateFileName)
}

// KeyFile returns the path of the machine private key
func (e Environment) KeyFile() string {
	return filepath.Join(e.dataDir, KeyFileName)
}

// SettingsFile returns the path of the machine-local tool settings
func (e Environment) SettingsFile() string {
	return filepath.Join(e.dataDir, SettingsFileName)
}

// LogFile returns the path of the log file
func (e Environment) LogFile() string {
	return filepath.Join(e.stateDir, LogFileName)
}

// RepoPath resolves a repository-relative source path
func (e Environment) RepoPath(source string) string {
	return filepath.Join(e.repoDir, filepath.FromSlash(source))
}

// SecretSource returns the repository-relative ciphertext path for a file name
func SecretSource(fileName string) string {
	return SecretsDirName + "/" + fileName + SecretSuffix
}

// ExpandHome expands a leading ~ to the environment's home directory
func (e Environment) ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) == 1 {
		return e.homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(e.homeDir, path[2:])
	}
	// ~user forms are not ours to expand
	return path
}

// ContractHome rewrites an absolute path under the home directory as ~/...
func (e Environment) ContractHome(path string) string {
	clean := filepath.Clean(path)
	if clean == e.homeDir {
		return "~"
	}
	rel, err := filepath.Rel(e.homeDir, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return clean
	}
	return "~/" + filepath.ToSlash(rel)
}

// IsInRepo reports whether path lies inside the managed directory
func (e Environment) IsInRepo(path string) bool {
	return IsWithin(e.repoDir, path)
}

// IsWithin reports whether path equals root or lies below it
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
