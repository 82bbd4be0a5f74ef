package core

import (
	"context"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/paths"
	"github.com/arthur-debert/configsync/pkg/repository"
	"github.com/arthur-debert/configsync/pkg/watch"
)

// Push commits pending changes and sends them to the remote. A failed push
// is a warning: the local commit stands.
func (a *App) Push(ctx context.Context) (*Result, error) {
	repo, err := a.openRepository()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	changed, err := repo.HasChanges()
	if err != nil {
		return nil, err
	}
	if changed {
		commit, err := repo.CommitAll(a.settings.Git.CommitMessage)
		if err != nil {
			return nil, err
		}
		result.Commit = &commit
	} else {
		a.logger.Info().Msg("Nothing to commit")
	}

	if err := repo.Push(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Push failed, changes are committed locally")
		result.warn("push failed: %v", err)
	}
	return result, nil
}

// Pull fast-forwards to the remote and applies the model. Uncommitted
// changes, divergence and fetch failures abort before anything is applied.
func (a *App) Pull(ctx context.Context) (*Result, error) {
	repo, err := a.openRepository()
	if err != nil {
		return nil, err
	}

	dirty, err := repo.HasChanges()
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, errors.Newf(errors.ErrConflict,
			"%s has uncommitted changes, run 'configsync push' first", a.env.RepoDir())
	}

	outcome, err := repo.Pull(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Info().Stringer("result", outcome).Msg("Pulled")

	result, err := a.Apply()
	if err != nil {
		return nil, err
	}
	result.Pull = &outcome
	return result, nil
}

// Watch commits and pushes every settled batch of changes in the managed
// directory until ctx ends
func (a *App) Watch(ctx context.Context) error {
	repo, err := a.openRepository()
	if err != nil {
		return err
	}

	w, err := watch.New(a.env.RepoDir(), watch.Options{
		Debounce: a.settings.Watch.Debounce,
		Ignore:   []string{paths.GitDirName},
	})
	if err != nil {
		return err
	}
	return w.Run(ctx, a.autoSync(repo))
}

// autoSync returns the watch handler: commit with the auto-sync message if
// the tree differs from HEAD, then push
func (a *App) autoSync(repo *repository.Repository) watch.BatchFunc {
	return func(ctx context.Context, batch watch.Batch) error {
		logger := a.logger.With().Str("batch", batch.ID).Logger()

		changed, err := repo.HasChanges()
		if err != nil {
			return err
		}
		if !changed {
			logger.Debug().Msg("Working tree matches HEAD, nothing to sync")
			return nil
		}

		commit, err := repo.CommitAll(a.settings.Git.AutosyncMessage)
		if err != nil {
			return err
		}
		logger.Info().Str("commit", commit.ShortHash).Msg("Auto-committed")
		return repo.Push(ctx)
	}
}
