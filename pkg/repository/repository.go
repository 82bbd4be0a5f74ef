package repository

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Defaults used when Options leave a field empty
const (
	DefaultBranch      = "main"
	DefaultRemote      = "origin"
	DefaultAuthorName  = "configsync"
	DefaultAuthorEmail = "configsync@localhost"
)

// Options configure how a repository is created or opened
type Options struct {
	// Branch overrides the branch; empty means HEAD's branch, else main.
	// Open attaches HEAD to an explicit branch.
	Branch string
	// Remote names the remote used by push and pull
	Remote string
	// AuthorName and AuthorEmail identify automated commits
	AuthorName  string
	AuthorEmail string
	// Credentials authenticate network operations
	Credentials CredentialProvider
}

func (o Options) withDefaults() Options {
	if o.Remote == "" {
		o.Remote = DefaultRemote
	}
	if o.AuthorName == "" {
		o.AuthorName = DefaultAuthorName
	}
	if o.AuthorEmail == "" {
		o.AuthorEmail = DefaultAuthorEmail
	}
	if o.Credentials == nil {
		o.Credentials = AgentCredentials{}
	}
	return o
}

// Repository is an opened managed directory
type Repository struct {
	repo   *git.Repository
	path   string
	branch string
	opts   Options
}

// Init creates a new non-bare repository at path whose unborn HEAD points at
// the configured branch
func Init(path string, opts Options) (*Repository, error) {
	opts = opts.withDefaults()
	branch := opts.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	r, err := git.PlainInitWithOptions(path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(branch),
		},
	})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryAlreadyExists) {
			return nil, errors.Wrapf(err, errors.ErrAlreadyExists, "repository already exists at %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrRepository, "failed to initialize repository at %s", path)
	}

	logger := logging.GetLogger("repository")
	logger.Info().Str("path", path).Str("branch", branch).Msg("Initialized repository")
	return &Repository{repo: r, path: path, branch: branch, opts: opts}, nil
}

// Clone copies the repository at url into path. Path must be absent or an
// empty directory. An empty remote yields an initialized repository with the
// remote registered.
func Clone(ctx context.Context, url, path string, opts Options) (*Repository, error) {
	opts = opts.withDefaults()
	logger := logging.GetLogger("repository")

	if entries, err := os.ReadDir(path); err == nil && len(entries) > 0 {
		return nil, errors.Newf(errors.ErrAlreadyExists, "%s exists and is not empty", path).
			WithDetail("path", path)
	}

	auth, err := authFor(opts.Credentials, url)
	if err != nil {
		return nil, err
	}

	cloneOpts := &git.CloneOptions{
		URL:        url,
		Auth:       auth,
		RemoteName: opts.Remote,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}

	r, err := git.PlainCloneContext(ctx, path, false, cloneOpts)
	if stderrors.Is(err, transport.ErrEmptyRemoteRepository) {
		logger.Info().Str("url", url).Msg("Remote is empty, initializing locally")
		repo, err := Init(path, opts)
		if err != nil {
			return nil, err
		}
		if _, err := repo.repo.CreateRemote(&config.RemoteConfig{Name: opts.Remote, URLs: []string{url}}); err != nil {
			return nil, errors.Wrapf(err, errors.ErrRepository, "failed to register remote %s", opts.Remote)
		}
		return repo, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRepository, "failed to clone %s", url).WithDetail("url", url)
	}

	repo := &Repository{repo: r, path: path, opts: opts}
	repo.branch = resolveBranch(r, opts.Branch)
	if _, err := r.Head(); stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		// nothing was checked out; point the unborn HEAD at our branch
		if opts.Branch == "" {
			repo.branch = DefaultBranch
		}
		head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(repo.branch))
		if err := r.Storer.SetReference(head); err != nil {
			return nil, errors.Wrap(err, errors.ErrRepository, "failed to set HEAD")
		}
	}
	logger.Info().Str("url", url).Str("path", path).Str("branch", repo.branch).Msg("Cloned repository")
	return repo, nil
}

// Open opens the existing repository at path
func Open(path string, opts Options) (*Repository, error) {
	opts = opts.withDefaults()

	r, err := git.PlainOpen(path)
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.Newf(errors.ErrNotInitialized, "no repository at %s, run 'configsync init' first", path).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrRepository, "failed to open repository at %s", path)
	}

	repo := &Repository{repo: r, path: path, branch: resolveBranch(r, opts.Branch), opts: opts}
	if opts.Branch != "" {
		if err := repo.attach(); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// attach points HEAD at the repository's branch. A branch missing locally
// starts at the current commit; an existing one is checked out, which
// requires a clean working tree.
func (r *Repository) attach() error {
	target := plumbing.NewBranchReferenceName(r.branch)
	head, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return errors.Wrap(err, errors.ErrRepository, "failed to read HEAD")
	}
	if head.Type() == plumbing.SymbolicReference && head.Target() == target {
		return nil
	}

	current, headErr := r.repo.Head()
	if headErr != nil && !stderrors.Is(headErr, plumbing.ErrReferenceNotFound) {
		return errors.Wrap(headErr, errors.ErrRepository, "failed to read HEAD")
	}

	local, err := r.repo.Reference(target, true)
	switch {
	case stderrors.Is(err, plumbing.ErrReferenceNotFound):
		if headErr == nil {
			if err := r.repo.Storer.SetReference(plumbing.NewHashReference(target, current.Hash())); err != nil {
				return errors.Wrapf(err, errors.ErrRepository, "failed to create branch %s", r.branch)
			}
		}
	case err != nil:
		return errors.Wrapf(err, errors.ErrRepository, "failed to read branch %s", r.branch)
	case headErr != nil || local.Hash() != current.Hash():
		dirty, err := r.HasChanges()
		if err != nil {
			return err
		}
		if dirty {
			return errors.Newf(errors.ErrConflict, "cannot switch to branch %s with uncommitted changes", r.branch).
				WithDetail("branch", r.branch)
		}
		wt, err := r.repo.Worktree()
		if err != nil {
			return errors.Wrap(err, errors.ErrRepository, "failed to open worktree")
		}
		if err := wt.Checkout(&git.CheckoutOptions{Branch: target}); err != nil {
			return errors.Wrapf(err, errors.ErrRepository, "failed to check out branch %s", r.branch)
		}
	}

	if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, target)); err != nil {
		return errors.Wrap(err, errors.ErrRepository, "failed to set HEAD")
	}
	logger := logging.GetLogger("repository")
	logger.Info().Str("branch", r.branch).Msg("Switched branch")
	return nil
}

// resolveBranch picks the explicit branch, else the branch HEAD points at, else main
func resolveBranch(r *git.Repository, explicit string) string {
	if explicit != "" {
		return explicit
	}
	head, err := r.Reference(plumbing.HEAD, false)
	if err == nil && head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		return head.Target().Short()
	}
	return DefaultBranch
}

// Path returns the working tree root
func (r *Repository) Path() string {
	return r.path
}

// Branch returns the branch push and pull operate on
func (r *Repository) Branch() string {
	return r.branch
}

// RemoteName returns the remote push and pull operate on
func (r *Repository) RemoteName() string {
	return r.opts.Remote
}

// RemoteURL returns the first URL of the configured remote, or "" if it is missing
func (r *Repository) RemoteURL() string {
	remote, err := r.repo.Remote(r.opts.Remote)
	if err != nil || len(remote.Config().URLs) == 0 {
		return ""
	}
	return remote.Config().URLs[0]
}

// Head returns the current head commit, or false if the branch is unborn
func (r *Repository) Head() (CommitInfo, bool, error) {
	ref, err := r.repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return CommitInfo{}, false, nil
	}
	if err != nil {
		return CommitInfo{}, false, errors.Wrap(err, errors.ErrRepository, "failed to read HEAD")
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return CommitInfo{}, false, errors.Wrap(err, errors.ErrRepository, "failed to read head commit")
	}
	return newCommitInfo(commit), true, nil
}

func (r *Repository) remote() (*git.Remote, error) {
	remote, err := r.repo.Remote(r.opts.Remote)
	if err != nil {
		if stderrors.Is(err, git.ErrRemoteNotFound) {
			return nil, errors.Newf(errors.ErrRemoteNotFound, "remote %q is not configured", r.opts.Remote).
				WithDetail("remote", r.opts.Remote)
		}
		return nil, errors.Wrapf(err, errors.ErrRepository, "failed to read remote %q", r.opts.Remote)
	}
	return remote, nil
}
