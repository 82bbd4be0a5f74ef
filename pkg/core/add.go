package core

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/paths"
	"github.com/arthur-debert/configsync/pkg/types"
)

// reserved names at the repository root that tracked items may not take
var reserved = map[string]struct{}{
	paths.ConfigFileName: {},
	paths.SecretsDirName: {},
	paths.GitDirName:     {},
	".gitignore":         {},
}

// Add moves path into the repository, links it back and tracks it. With
// roles the entry applies only to machines holding one of them.
func (a *App) Add(path string, roles []string) (types.TrackedEntry, error) {
	cfg, err := a.loadModel()
	if err != nil {
		return types.TrackedEntry{}, err
	}

	abs, info, err := a.resolveInput(path)
	if err != nil {
		return types.TrackedEntry{}, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := a.fs.EvalSymlinks(abs); err == nil && a.env.IsInRepo(resolved) {
			return types.TrackedEntry{}, errors.Newf(errors.ErrAlreadyExists, "%s is already managed by configsync", path).
				WithDetail("path", abs)
		}
	}

	name := filepath.Base(abs)
	if _, ok := reserved[name]; ok {
		return types.TrackedEntry{}, errors.Newf(errors.ErrInvalidInput, "%s cannot be tracked under the reserved name %q", path, name)
	}

	source := name
	target := a.env.RepoPath(source)
	destination := a.env.ContractHome(abs)

	if _, err := a.fs.Lstat(target); err == nil || cfg.FindBySource(source) >= 0 {
		return types.TrackedEntry{}, errors.Newf(errors.ErrAlreadyExists, "%s already exists in the repository", source).
			WithDetail("source", source)
	}
	if cfg.FindByDestination(destination) >= 0 {
		return types.TrackedEntry{}, errors.Newf(errors.ErrAlreadyExists, "%s is already tracked", destination).
			WithDetail("destination", destination)
	}

	kind := types.KindFile
	if info.IsDir() {
		kind = types.KindDirectory
	}

	if err := a.fs.Rename(abs, target); err != nil {
		return types.TrackedEntry{}, errors.Wrapf(err, errors.ErrFileWrite, "failed to move %s into the repository", abs)
	}
	if err := a.fs.Symlink(target, abs); err != nil {
		if rbErr := a.fs.Rename(target, abs); rbErr != nil {
			a.logger.Error().Err(rbErr).Str("path", abs).Str("moved_to", target).Msg("Failed to restore moved item")
		}
		return types.TrackedEntry{}, errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to link %s", abs)
	}

	entry := types.TrackedEntry{
		Source:      source,
		Destination: destination,
		Kind:        kind,
		Platforms:   []string{types.AllPlatforms},
		Scope:       types.OnlyRoles(roles...),
	}
	cfg.Files = append(cfg.Files, entry)
	if err := a.saveModel(cfg); err != nil {
		return types.TrackedEntry{}, err
	}

	a.logger.Info().
		Str("source", entry.Source).
		Str("destination", entry.Destination).
		Stringer("kind", entry.Kind).
		Str("scope", entry.Scope.String()).
		Msg("Tracked")
	return entry, nil
}

// AddSecret encrypts path to this machine's identity and stores the
// ciphertext in the repository. The plaintext is left in place. Re-adding an
// already tracked secret only refreshes the ciphertext; a destination tracked
// as another kind or a base name already taken by another secret is rejected.
func (a *App) AddSecret(path string) (types.TrackedEntry, error) {
	cfg, err := a.loadModel()
	if err != nil {
		return types.TrackedEntry{}, err
	}

	abs, info, err := a.resolveInput(path)
	if err != nil {
		return types.TrackedEntry{}, err
	}
	if !info.Mode().IsRegular() {
		return types.TrackedEntry{}, errors.Newf(errors.ErrInvalidInput, "%s is not a regular file", path)
	}

	source := paths.SecretSource(filepath.Base(abs))
	destination := a.env.ContractHome(abs)
	existing := cfg.FindByDestination(destination)
	if existing >= 0 {
		if kind := cfg.Files[existing].Kind; kind != types.KindSecret {
			return types.TrackedEntry{}, errors.Newf(errors.ErrAlreadyExists, "%s is already tracked as a %s", destination, kind).
				WithDetail("destination", destination)
		}
		source = cfg.Files[existing].Source
	} else if idx := cfg.FindBySource(source); idx >= 0 {
		return types.TrackedEntry{}, errors.Newf(errors.ErrAlreadyExists, "%s already holds the secret for %s", source, cfg.Files[idx].Destination).
			WithDetail("source", source)
	}

	plaintext, err := a.fs.ReadFile(abs)
	if err != nil {
		return types.TrackedEntry{}, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", abs)
	}
	ciphertext, err := a.vault.Seal(plaintext)
	if err != nil {
		return types.TrackedEntry{}, err
	}

	if err := a.fs.MkdirAll(a.env.SecretsDir(), 0755); err != nil {
		return types.TrackedEntry{}, errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", a.env.SecretsDir())
	}
	if err := a.fs.WriteFile(a.env.RepoPath(source), ciphertext, 0644); err != nil {
		return types.TrackedEntry{}, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", source)
	}
	cfg.MarkEncrypted(source)

	var entry types.TrackedEntry
	if existing >= 0 {
		entry = cfg.Files[existing]
		a.logger.Info().Str("destination", destination).Msg("Already tracked, refreshed ciphertext")
	} else {
		entry = types.TrackedEntry{
			Source:      source,
			Destination: destination,
			Kind:        types.KindSecret,
			Platforms:   []string{types.AllPlatforms},
			Scope:       types.Universal(),
		}
		cfg.Files = append(cfg.Files, entry)
		a.logger.Info().Str("source", source).Str("destination", destination).Msg("Tracked secret")
	}

	if err := a.saveModel(cfg); err != nil {
		return types.TrackedEntry{}, err
	}
	return entry, nil
}

// InitSecrets creates this machine's identity unless one exists or force is
// set, and returns the public recipient
func (a *App) InitSecrets(force bool) (string, error) {
	return a.vault.Ensure(force)
}

// resolveInput makes a user supplied path absolute and checks that it exists
// outside the repository
func (a *App) resolveInput(path string) (string, os.FileInfo, error) {
	abs, err := filepath.Abs(a.env.ExpandHome(path))
	if err != nil {
		return "", nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid path %s", path)
	}

	info, err := a.fs.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, errors.Newf(errors.ErrNotFound, "%s does not exist", path).WithDetail("path", abs)
		}
		return "", nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %s", abs)
	}

	if a.env.IsInRepo(abs) {
		return "", nil, errors.Newf(errors.ErrInvalidInput, "%s is inside the managed directory", path).
			WithDetail("path", abs)
	}
	return abs, info, nil
}
