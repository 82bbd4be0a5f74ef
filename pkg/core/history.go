package core

import (
	"github.com/arthur-debert/configsync/pkg/repository"
)

// History lists up to limit commits, newest first. A non-positive limit uses
// the configured default.
func (a *App) History(limit int) ([]repository.CommitInfo, error) {
	if limit <= 0 {
		limit = a.settings.History.Limit
	}
	repo, err := a.openRepository()
	if err != nil {
		return nil, err
	}
	return repo.History(limit)
}

// Undo reverts rev (HEAD when empty) with a new commit and applies the
// resulting model
func (a *App) Undo(rev string) (*Result, error) {
	repo, err := a.openRepository()
	if err != nil {
		return nil, err
	}

	commit, err := repo.Revert(rev)
	if err != nil {
		return nil, err
	}
	a.logger.Info().Str("commit", commit.ShortHash).Str("summary", commit.Summary).Msg("Reverted")

	result, err := a.Apply()
	if err != nil {
		return nil, err
	}
	result.Commit = &commit
	return result, nil
}
