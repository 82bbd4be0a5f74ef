package reconcile

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/arthur-debert/configsync/pkg/paths"
	"github.com/arthur-debert/configsync/pkg/types"
	"github.com/rs/zerolog"
)

const secretFileMode = 0600

// SecretOpener decrypts ciphertext with this machine's identity
type SecretOpener interface {
	Open(ciphertext []byte) ([]byte, error)
}

// Engine applies a team model to one machine
type Engine struct {
	fs     types.FS
	env    paths.Environment
	opener SecretOpener
	logger zerolog.Logger
}

// New returns an engine working on env. The opener is consulted only for
// secret entries and may be nil when the model has none.
func New(fs types.FS, env paths.Environment, opener SecretOpener) *Engine {
	return &Engine{
		fs:     fs,
		env:    env,
		opener: opener,
		logger: logging.GetLogger("reconcile"),
	}
}

// Apply reconciles every entry of cfg against the machine described by state
func (e *Engine) Apply(cfg *types.TeamConfig, state *types.LocalState) *Report {
	report := &Report{}
	claimed := make(map[string]string)

	for _, entry := range cfg.Files {
		res := Result{
			Entry:       entry,
			Destination: filepath.Clean(e.env.ExpandHome(entry.Destination)),
		}

		switch {
		case !state.InScope(entry):
			res.Outcome = Skipped
		case claimed[res.Destination] != "":
			res.Outcome = Conflict
			res.Err = errors.Newf(errors.ErrConflict, "%s is already claimed by %s", entry.Destination, claimed[res.Destination])
		default:
			claimed[res.Destination] = entry.Source
			if entry.Kind.IsLinked() {
				res.Outcome, res.Err = e.link(entry, res.Destination)
			} else {
				res.Outcome, res.Err = e.materialize(entry, res.Destination)
			}
		}

		e.log(res)
		report.add(res)
	}

	e.logger.Info().
		Int("linked", report.Count(Linked)).
		Int("materialized", report.Count(Materialized)).
		Int("unchanged", report.Count(Unchanged)).
		Int("skipped", report.Count(Skipped)).
		Int("problems", len(report.Problems())).
		Msg("Reconciliation finished")
	return report
}

func (e *Engine) log(res Result) {
	var ev *zerolog.Event
	switch res.Outcome {
	case Conflict, Failed:
		ev = e.logger.Warn().Err(res.Err)
	case Skipped, Unchanged:
		ev = e.logger.Debug()
	default:
		ev = e.logger.Info()
	}
	ev.Str("source", res.Entry.Source).
		Str("destination", res.Destination).
		Str("scope", res.Entry.Scope.String()).
		Stringer("outcome", res.Outcome).
		Msg("Applied entry")
}

// link exposes a plain file or directory at dst as a symlink into the repository
func (e *Engine) link(entry types.TrackedEntry, dst string) (Outcome, error) {
	src := e.env.RepoPath(entry.Source)
	if _, err := e.fs.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return Failed, errors.Newf(errors.ErrSourceMissing, "%s is missing from the repository", entry.Source).
				WithDetail("source", src)
		}
		return Failed, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %s", src)
	}

	info, err := e.fs.Lstat(dst)
	switch {
	case os.IsNotExist(err):
		if err := e.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return Failed, errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent of %s", dst)
		}
		if err := e.fs.Symlink(src, dst); err != nil {
			return Failed, errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to link %s", dst)
		}
		return Linked, nil
	case err != nil:
		return Failed, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %s", dst)
	case info.Mode()&os.ModeSymlink == 0:
		return Conflict, errors.Newf(errors.ErrConflict, "%s exists and is not a link", dst)
	}

	if LinksTo(e.fs, dst, src) {
		return Unchanged, nil
	}
	return Conflict, errors.Newf(errors.ErrConflict, "%s links somewhere else", dst)
}

// LinksTo reports whether the link at dst leads to src, either by its
// literal target or after resolving every link on both sides
func LinksTo(fs types.FS, dst, src string) bool {
	if target, err := fs.Readlink(dst); err == nil {
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(dst), target)
		}
		if filepath.Clean(target) == filepath.Clean(src) {
			return true
		}
	}

	resolvedDst, err := fs.EvalSymlinks(dst)
	if err != nil {
		return false
	}
	resolvedSrc, err := fs.EvalSymlinks(src)
	if err != nil {
		return false
	}
	return resolvedDst == resolvedSrc
}

// materialize decrypts a secret entry into an owner-only regular file at dst
func (e *Engine) materialize(entry types.TrackedEntry, dst string) (Outcome, error) {
	info, err := e.fs.Lstat(dst)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return Failed, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %s", dst)
	}
	if exists && !info.Mode().IsRegular() {
		return Conflict, errors.Newf(errors.ErrConflict, "%s exists and is not a regular file", dst)
	}

	if e.opener == nil {
		return Failed, errors.New(errors.ErrKeyNotFound, "no identity available to decrypt secrets")
	}

	src := e.env.RepoPath(entry.Source)
	ciphertext, err := e.fs.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return Failed, errors.Newf(errors.ErrSourceMissing, "%s is missing from the repository", entry.Source).
				WithDetail("source", src)
		}
		return Failed, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", src)
	}

	plaintext, err := e.opener.Open(ciphertext)
	if err != nil {
		return Failed, err
	}

	if exists {
		// restrict before writing: WriteFile keeps the mode of an existing file
		if info.Mode().Perm() != secretFileMode {
			if err := e.fs.Chmod(dst, secretFileMode); err != nil {
				return Failed, errors.Wrapf(err, errors.ErrPermission, "failed to restrict %s", dst)
			}
		}
		current, err := e.fs.ReadFile(dst)
		if err != nil {
			return Failed, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", dst)
		}
		if bytes.Equal(current, plaintext) {
			return Unchanged, nil
		}
	}

	if err := e.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return Failed, errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent of %s", dst)
	}
	if err := e.fs.WriteFile(dst, plaintext, secretFileMode); err != nil {
		return Failed, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", dst)
	}
	return Materialized, nil
}
