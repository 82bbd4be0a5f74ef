package config

import (
	"os"
	"strings"
	"time"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override settings.
// CONFIGSYNC_GIT_AUTHOR_NAME maps to git.author_name.
const EnvPrefix = "CONFIGSYNC_"

// Config holds the machine-local tool settings
type Config struct {
	Git     Git     `koanf:"git"`
	Watch   Watch   `koanf:"watch"`
	History History `koanf:"history"`
	Logging Logging `koanf:"logging"`
}

// Git holds the commit identity and messages used for automated commits
type Git struct {
	Remote          string `koanf:"remote"`
	AuthorName      string `koanf:"author_name"`
	AuthorEmail     string `koanf:"author_email"`
	InitMessage     string `koanf:"init_message"`
	CommitMessage   string `koanf:"commit_message"`
	AutosyncMessage string `koanf:"autosync_message"`
}

// Watch holds the change watcher settings
type Watch struct {
	Debounce time.Duration `koanf:"debounce"`
}

// History holds the history listing settings
type History struct {
	Limit int `koanf:"limit"`
}

// Logging holds the log file rotation settings
type Logging struct {
	MaxSizeMB  int `koanf:"max_size_mb"`
	MaxBackups int `koanf:"max_backups"`
	MaxAgeDays int `koanf:"max_age_days"`
}

// FileOutput returns the rotating file settings for path
func (l Logging) FileOutput(path string) logging.FileOutput {
	return logging.FileOutput{
		Path:       path,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
	}
}

// Default returns the built-in settings
func Default() *Config {
	cfg, err := load("")
	if err != nil {
		// The embedded defaults are part of the binary
		panic(err)
	}
	return cfg
}

// Load builds the settings from the embedded defaults, the settings file at
// settingsFile (if it exists) and CONFIGSYNC_* environment variables
func Load(settingsFile string) (*Config, error) {
	return load(settingsFile)
}

func load(settingsFile string) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default settings")
	}

	if settingsFile != "" {
		if _, err := os.Stat(settingsFile); err == nil {
			if err := k.Load(file.Provider(settingsFile), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse settings file %s", settingsFile).
					WithDetail("path", settingsFile)
			}
			logger.Debug().Str("path", settingsFile).Msg("Loaded settings file")
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to stat settings file %s", settingsFile)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment settings")
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode settings")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps CONFIGSYNC_SECTION_SOME_KEY to section.some_key
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func (c *Config) validate() error {
	if c.Git.Remote == "" {
		return errors.New(errors.ErrConfigParse, "git.remote must not be empty")
	}
	if c.Watch.Debounce <= 0 {
		return errors.Newf(errors.ErrConfigParse, "watch.debounce must be positive, got %s", c.Watch.Debounce)
	}
	return nil
}
