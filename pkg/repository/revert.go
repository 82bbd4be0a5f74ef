package repository

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// inverse is one path restored by a revert. A nil content means delete.
type inverse struct {
	path    string
	content []byte
	mode    filemode.FileMode
}

// Revert undoes the changes introduced by rev and commits the result. Rev may
// be a full or abbreviated hash or any revision expression; empty means HEAD.
// The working tree must be clean and every path the commit touched must still
// hold the commit's version in HEAD, otherwise ErrRevertConflict is returned
// and nothing is written.
func (r *Repository) Revert(rev string) (CommitInfo, error) {
	logger := logging.GetLogger("repository")

	target, err := r.resolveCommit(rev)
	if err != nil {
		return CommitInfo{}, err
	}

	inverses, err := r.inverseOf(target)
	if err != nil {
		return CommitInfo{}, err
	}
	if err := r.checkRevertable(target, inverses); err != nil {
		return CommitInfo{}, err
	}

	for _, inv := range inverses {
		if err := r.restore(inv); err != nil {
			return CommitInfo{}, err
		}
		logger.Debug().Str("path", inv.path).Bool("delete", inv.content == nil).Msg("Restored")
	}

	info := newCommitInfo(target)
	message := fmt.Sprintf("Revert %q\n\nThis reverts commit %s.\n", info.Summary, info.Hash)
	return r.CommitAll(message)
}

func (r *Repository) resolveCommit(rev string) (*object.Commit, error) {
	if rev == "" {
		rev = "HEAD"
	}

	if plumbing.IsHash(rev) {
		if c, err := r.repo.CommitObject(plumbing.NewHash(rev)); err == nil {
			return c, nil
		}
	}

	if hash, err := r.repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
		if c, err := r.repo.CommitObject(*hash); err == nil {
			return c, nil
		}
	}

	if c, err := r.findByPrefix(strings.ToLower(rev)); err != nil || c != nil {
		return c, err
	}

	return nil, errors.Newf(errors.ErrCommitNotFound, "no commit matches %q", rev).WithDetail("revision", rev)
}

// findByPrefix looks up an abbreviated hash, returning nil when nothing matches
func (r *Repository) findByPrefix(prefix string) (*object.Commit, error) {
	if len(prefix) < 4 || !isHex(prefix) {
		return nil, nil
	}

	commits, err := r.repo.CommitObjects()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRepository, "failed to list commits")
	}
	defer commits.Close()

	var found *object.Commit
	err = commits.ForEach(func(c *object.Commit) error {
		if !strings.HasPrefix(c.Hash.String(), prefix) {
			return nil
		}
		if found != nil && found.Hash != c.Hash {
			return errors.Newf(errors.ErrCommitNotFound, "abbreviated hash %q is ambiguous", prefix).
				WithDetail("revision", prefix)
		}
		found = c
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.ConfigSyncError); ok {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrRepository, "failed to list commits")
	}
	return found, nil
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// inverseOf computes the content each path touched by c had before c
func (r *Repository) inverseOf(c *object.Commit) ([]inverse, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRepository, "failed to read commit tree")
	}
	parentTree := &object.Tree{}
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrRepository, "failed to read parent commit")
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, errors.Wrap(err, errors.ErrRepository, "failed to read parent tree")
		}
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRepository, "failed to diff commit")
	}

	var out []inverse
	for _, ch := range changes {
		from, to, err := ch.Files()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrRepository, "failed to read changed files")
		}
		switch {
		case from == nil && to != nil:
			out = append(out, inverse{path: to.Name})
		case from != nil:
			content, err := fileBytes(from)
			if err != nil {
				return nil, err
			}
			out = append(out, inverse{path: from.Name, content: content, mode: from.Mode})
		}
	}
	return out, nil
}

// checkRevertable verifies that the working tree is clean and that every
// touched path still holds c's version in HEAD
func (r *Repository) checkRevertable(c *object.Commit, inverses []inverse) error {
	head, err := r.repo.Head()
	if err != nil {
		return errors.Wrap(err, errors.ErrRepository, "failed to read HEAD")
	}
	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return errors.Wrap(err, errors.ErrRepository, "failed to read head commit")
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return errors.Wrap(err, errors.ErrRepository, "failed to read head tree")
	}
	postTree, err := c.Tree()
	if err != nil {
		return errors.Wrap(err, errors.ErrRepository, "failed to read commit tree")
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return errors.Wrap(err, errors.ErrRepository, "failed to open worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return errors.Wrap(err, errors.ErrRepository, "failed to read worktree status")
	}

	var dirty []string
	for path, s := range status {
		if s.Worktree != git.Unmodified || s.Staging != git.Unmodified {
			dirty = append(dirty, path)
		}
	}
	if len(dirty) > 0 {
		sort.Strings(dirty)
		return errors.Newf(errors.ErrRevertConflict,
			"cannot revert %s: uncommitted changes in %s", c.Hash.String()[:shortHashLen], strings.Join(dirty, ", ")).
			WithDetail("paths", dirty)
	}

	var conflicts []string
	for _, inv := range inverses {
		if !sameEntry(postTree, headTree, inv.path) {
			conflicts = append(conflicts, inv.path)
		}
	}

	if len(conflicts) > 0 {
		return errors.Newf(errors.ErrRevertConflict,
			"cannot revert %s: %s changed since", c.Hash.String()[:shortHashLen], strings.Join(conflicts, ", ")).
			WithDetail("paths", conflicts)
	}
	return nil
}

// sameEntry reports whether path has the same blob and mode in both trees,
// counting absence from both as the same
func sameEntry(a, b *object.Tree, path string) bool {
	fa, errA := a.File(path)
	fb, errB := b.File(path)
	if errA != nil || errB != nil {
		return errA != nil && errB != nil
	}
	return fa.Hash == fb.Hash && fa.Mode == fb.Mode
}

func (r *Repository) restore(inv inverse) error {
	full := filepath.Join(r.path, filepath.FromSlash(inv.path))

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to remove %s", full)
	}
	if inv.content == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory for %s", full)
	}

	if inv.mode == filemode.Symlink {
		if err := os.Symlink(string(inv.content), full); err != nil {
			return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to restore link %s", full)
		}
		return nil
	}

	perm := os.FileMode(0644)
	if mode, err := inv.mode.ToOSFileMode(); err == nil {
		perm = mode.Perm()
	}
	if err := os.WriteFile(full, inv.content, perm); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to restore %s", full)
	}
	return nil
}

func fileBytes(f *object.File) ([]byte, error) {
	rd, err := f.Reader()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRepository, "failed to read blob for %s", f.Name)
	}
	defer rd.Close()
	content, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRepository, "failed to read blob for %s", f.Name)
	}
	if content == nil {
		content = []byte{}
	}
	return content, nil
}
