package repository

import (
	"time"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// HasChanges reports whether the working tree differs from HEAD
func (r *Repository) HasChanges() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrRepository, "failed to open worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrRepository, "failed to read worktree status")
	}
	return !status.IsClean(), nil
}

// CommitAll stages every addition, modification and deletion not excluded by
// .gitignore and commits it. Empty commits are allowed.
func (r *Repository) CommitAll(message string) (CommitInfo, error) {
	logger := logging.GetLogger("repository")

	wt, err := r.repo.Worktree()
	if err != nil {
		return CommitInfo{}, errors.Wrap(err, errors.ErrRepository, "failed to open worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return CommitInfo{}, errors.Wrap(err, errors.ErrRepository, "failed to read worktree status")
	}

	for path, s := range status {
		switch {
		case s.Worktree == git.Unmodified:
			continue
		case s.Worktree == git.Deleted:
			if _, err := wt.Remove(path); err != nil {
				return CommitInfo{}, errors.Wrapf(err, errors.ErrRepository, "failed to stage removal of %s", path)
			}
		default:
			if _, err := wt.Add(path); err != nil {
				return CommitInfo{}, errors.Wrapf(err, errors.ErrRepository, "failed to stage %s", path)
			}
		}
		logger.Trace().Str("path", path).Msg("Staged")
	}

	sig := &object.Signature{
		Name:  r.opts.AuthorName,
		Email: r.opts.AuthorEmail,
		When:  time.Now(),
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return CommitInfo{}, errors.Wrap(err, errors.ErrRepository, "failed to commit")
	}

	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, errors.Wrap(err, errors.ErrRepository, "failed to read new commit")
	}

	info := newCommitInfo(commit)
	logger.Info().Str("commit", info.ShortHash).Str("summary", info.Summary).Msg("Committed")
	return info, nil
}
