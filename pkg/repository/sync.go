package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// PullResult classifies the outcome of a successful pull
type PullResult int

const (
	// UpToDate means local history already contains the remote branch
	UpToDate PullResult = iota
	// FastForwarded means the local branch advanced to the remote tip
	FastForwarded
)

func (p PullResult) String() string {
	switch p {
	case UpToDate:
		return "up-to-date"
	case FastForwarded:
		return "fast-forwarded"
	default:
		return fmt.Sprintf("PullResult(%d)", int(p))
	}
}

// Push sends the local branch to the same branch on the remote. A remote
// that already has it is a success.
func (r *Repository) Push(ctx context.Context) error {
	logger := logging.GetLogger("repository")

	remote, err := r.remote()
	if err != nil {
		return err
	}
	auth, err := authFor(r.opts.Credentials, firstURL(remote))
	if err != nil {
		return err
	}

	ref := plumbing.NewBranchReferenceName(r.branch)
	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.opts.Remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(ref.String() + ":" + ref.String())},
		Auth:       auth,
	})
	switch {
	case err == nil:
		logger.Info().Str("remote", r.opts.Remote).Str("branch", r.branch).Msg("Pushed")
		return nil
	case stderrors.Is(err, git.NoErrAlreadyUpToDate):
		logger.Debug().Str("remote", r.opts.Remote).Msg("Remote already up to date")
		return nil
	case stderrors.Is(err, git.ErrNonFastForwardUpdate), stderrors.Is(err, plumbing.ErrReferenceNotFound):
		return errors.Wrapf(err, errors.ErrPushRejected, "push of %s to %s was rejected", r.branch, r.opts.Remote).
			WithDetail("branch", r.branch)
	default:
		return errors.Wrapf(err, errors.ErrPush, "failed to push %s to %s", r.branch, r.opts.Remote).
			WithDetail("branch", r.branch)
	}
}

// Pull fetches the remote branch and fast-forwards to it when local history
// is behind. Diverged histories fail with ErrDiverged and change nothing.
func (r *Repository) Pull(ctx context.Context) (PullResult, error) {
	logger := logging.GetLogger("repository")

	remote, err := r.remote()
	if err != nil {
		return UpToDate, err
	}
	auth, err := authFor(r.opts.Credentials, firstURL(remote))
	if err != nil {
		return UpToDate, err
	}

	remoteRefName := plumbing.NewRemoteReferenceName(r.opts.Remote, r.branch)
	branchRefName := plumbing.NewBranchReferenceName(r.branch)
	refSpec := config.RefSpec(fmt.Sprintf("+%s:%s", branchRefName, remoteRefName))

	err = r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: r.opts.Remote,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       auth,
	})
	var noMatch git.NoMatchingRefSpecError
	switch {
	case err == nil, stderrors.Is(err, git.NoErrAlreadyUpToDate):
	case stderrors.Is(err, transport.ErrEmptyRemoteRepository), stderrors.As(err, &noMatch):
		logger.Info().Str("remote", r.opts.Remote).Str("branch", r.branch).Msg("Remote has no such branch yet")
		return UpToDate, nil
	default:
		return UpToDate, errors.Wrapf(err, errors.ErrFetch, "failed to fetch %s from %s", r.branch, r.opts.Remote)
	}

	remoteRef, err := r.repo.Reference(remoteRefName, true)
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return UpToDate, nil
		}
		return UpToDate, errors.Wrapf(err, errors.ErrRepository, "failed to read %s", remoteRefName)
	}

	localRef, err := r.repo.Reference(branchRefName, true)
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return r.fastForward(remoteRef.Hash())
	}
	if err != nil {
		return UpToDate, errors.Wrapf(err, errors.ErrRepository, "failed to read %s", branchRefName)
	}

	if localRef.Hash() == remoteRef.Hash() {
		logger.Debug().Str("branch", r.branch).Msg("Already up to date")
		return UpToDate, nil
	}

	localCommit, err := r.repo.CommitObject(localRef.Hash())
	if err != nil {
		return UpToDate, errors.Wrap(err, errors.ErrRepository, "failed to read local head")
	}
	remoteCommit, err := r.repo.CommitObject(remoteRef.Hash())
	if err != nil {
		return UpToDate, errors.Wrap(err, errors.ErrRepository, "failed to read remote head")
	}

	behind, err := localCommit.IsAncestor(remoteCommit)
	if err != nil {
		return UpToDate, errors.Wrap(err, errors.ErrRepository, "failed to compare histories")
	}
	if behind {
		return r.fastForward(remoteRef.Hash())
	}

	ahead, err := remoteCommit.IsAncestor(localCommit)
	if err != nil {
		return UpToDate, errors.Wrap(err, errors.ErrRepository, "failed to compare histories")
	}
	if ahead {
		logger.Debug().Str("branch", r.branch).Msg("Local history is ahead of remote")
		return UpToDate, nil
	}

	return UpToDate, errors.Newf(errors.ErrDiverged,
		"local %s and %s/%s have diverged, resolve manually", r.branch, r.opts.Remote, r.branch).
		WithDetail("local", localRef.Hash().String()).
		WithDetail("remote", remoteRef.Hash().String())
}

func (r *Repository) fastForward(target plumbing.Hash) (PullResult, error) {
	branchRefName := plumbing.NewBranchReferenceName(r.branch)

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(branchRefName, target)); err != nil {
		return UpToDate, errors.Wrapf(err, errors.ErrRepository, "failed to advance %s", r.branch)
	}
	if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branchRefName)); err != nil {
		return UpToDate, errors.Wrap(err, errors.ErrRepository, "failed to attach HEAD")
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return UpToDate, errors.Wrap(err, errors.ErrRepository, "failed to open worktree")
	}
	if err := wt.Reset(&git.ResetOptions{Commit: target, Mode: git.HardReset}); err != nil {
		return UpToDate, errors.Wrap(err, errors.ErrRepository, "failed to update working tree")
	}

	logger := logging.GetLogger("repository")
	logger.Info().
		Str("branch", r.branch).
		Str("commit", target.String()[:shortHashLen]).
		Msg("Fast-forwarded")
	return FastForwarded, nil
}

func firstURL(remote *git.Remote) string {
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}
