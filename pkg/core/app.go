package core

import (
	"fmt"

	"github.com/arthur-debert/configsync/pkg/config"
	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/filesystem"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/arthur-debert/configsync/pkg/manifest"
	"github.com/arthur-debert/configsync/pkg/paths"
	"github.com/arthur-debert/configsync/pkg/reconcile"
	"github.com/arthur-debert/configsync/pkg/repository"
	"github.com/arthur-debert/configsync/pkg/secrets"
	"github.com/arthur-debert/configsync/pkg/types"
	"github.com/rs/zerolog"
)

// Options assemble an App. Only Env is required.
type Options struct {
	Env         paths.Environment
	Settings    *config.Config
	FS          types.FS
	Credentials repository.CredentialProvider
}

// App runs configsync commands for one machine
type App struct {
	env      paths.Environment
	settings *config.Config
	fs       types.FS
	creds    repository.CredentialProvider
	vault    *secrets.Vault
	logger   zerolog.Logger
}

// New builds an App, filling unset options with defaults
func New(opts Options) *App {
	if opts.Settings == nil {
		opts.Settings = config.Default()
	}
	if opts.FS == nil {
		opts.FS = filesystem.NewOS()
	}
	if opts.Credentials == nil {
		opts.Credentials = repository.AgentCredentials{}
	}
	return &App{
		env:      opts.Env,
		settings: opts.Settings,
		fs:       opts.FS,
		creds:    opts.Credentials,
		vault:    secrets.NewVault(opts.FS, opts.Env.KeyFile()),
		logger:   logging.GetLogger("core"),
	}
}

// Env returns the resolved locations the App works on
func (a *App) Env() paths.Environment {
	return a.env
}

// Result carries the non-fatal outcomes of a command
type Result struct {
	// Warnings are problems the command recovered from
	Warnings []string
	// Pull is set when the command pulled
	Pull *repository.PullResult
	// Commit is set when the command created a commit
	Commit *repository.CommitInfo
	// Report is set when the command reconciled
	Report *reconcile.Report
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (a *App) repoOptions() repository.Options {
	return repository.Options{
		Remote:      a.settings.Git.Remote,
		AuthorName:  a.settings.Git.AuthorName,
		AuthorEmail: a.settings.Git.AuthorEmail,
		Credentials: a.creds,
	}
}

// openRepository opens the managed directory on the branch the model names
func (a *App) openRepository() (*repository.Repository, error) {
	opts := a.repoOptions()
	opts.Branch = a.modelBranch()
	return repository.Open(a.env.RepoDir(), opts)
}

// modelBranch returns the model's branch, or "" to keep HEAD's branch when the
// model is missing or unreadable
func (a *App) modelBranch() string {
	cfg, err := a.loadModel()
	if err != nil {
		if !errors.IsErrorCode(err, errors.ErrNotInitialized) {
			a.logger.Warn().Err(err).Msg("Could not read branch from model, using HEAD")
		}
		return ""
	}
	return cfg.Repository.Branch
}

func (a *App) loadModel() (*types.TeamConfig, error) {
	return manifest.LoadTeamConfig(a.fs, a.env.ConfigFile())
}

func (a *App) saveModel(cfg *types.TeamConfig) error {
	return manifest.SaveTeamConfig(a.fs, a.env.ConfigFile(), cfg)
}

func (a *App) loadState() (*types.LocalState, error) {
	return manifest.LoadState(a.fs, a.env.StateFile())
}

// Apply reconciles the model against this machine
func (a *App) Apply() (*Result, error) {
	cfg, err := a.loadModel()
	if err != nil {
		return nil, err
	}
	state, err := a.loadState()
	if err != nil {
		return nil, err
	}

	report := reconcile.New(a.fs, a.env, a.vault).Apply(cfg, state)
	result := &Result{Report: report}
	for _, p := range report.Problems() {
		result.warn("%s %s: %v", p.Outcome, p.Entry.Destination, p.Err)
	}
	return result, nil
}
