package core

import (
	"context"
	"os"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/manifest"
	"github.com/arthur-debert/configsync/pkg/repository"
	"github.com/arthur-debert/configsync/pkg/types"
)

// InitOptions configure Init
type InitOptions struct {
	// URL clones an existing remote instead of starting a new repository
	URL string
	// Roles are assigned to this machine
	Roles []string
}

// Init sets up the managed directory, records this machine's roles and
// applies the model once. An already initialized directory is left as is.
func (a *App) Init(ctx context.Context, opts InitOptions) (*Result, error) {
	logger := a.logger.With().Str("command", "init").Logger()

	if _, err := a.AddRoles(opts.Roles...); err != nil {
		return nil, err
	}

	_, openErr := a.openRepository()
	switch {
	case openErr == nil:
		applied, err := a.Apply()
		if err != nil {
			return nil, err
		}
		applied.Warnings = append([]string{"configsync is already initialized at " + a.env.RepoDir()}, applied.Warnings...)
		return applied, nil
	case !errors.IsErrorCode(openErr, errors.ErrNotInitialized):
		return nil, openErr
	}

	var repo *repository.Repository
	var err error
	if opts.URL != "" {
		logger.Info().Str("url", opts.URL).Str("path", a.env.RepoDir()).Msg("Cloning repository")
		repo, err = repository.Clone(ctx, opts.URL, a.env.RepoDir(), a.repoOptions())
	} else {
		logger.Info().Str("path", a.env.RepoDir()).Msg("Initializing repository")
		ro := a.repoOptions()
		ro.Branch = types.DefaultBranch
		repo, err = repository.Init(a.env.RepoDir(), ro)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if _, err := a.fs.Stat(a.env.ConfigFile()); os.IsNotExist(err) {
		cfg := types.DefaultTeamConfig()
		cfg.Repository.URL = opts.URL
		cfg.Repository.Branch = repo.Branch()
		if err := manifest.SaveTeamConfig(a.fs, a.env.ConfigFile(), cfg); err != nil {
			return nil, err
		}
		commit, err := repo.CommitAll(a.settings.Git.InitMessage)
		if err != nil {
			return nil, err
		}
		result.Commit = &commit
		logger.Info().Str("path", a.env.ConfigFile()).Msg("Created default model")
	}

	applied, err := a.Apply()
	if err != nil {
		return nil, err
	}
	result.Report = applied.Report
	result.Warnings = append(result.Warnings, applied.Warnings...)
	return result, nil
}
