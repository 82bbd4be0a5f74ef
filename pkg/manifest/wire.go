package manifest

import (
	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/types"
)

type teamConfigFile struct {
	Team       teamFile       `toml:"team"`
	Repository repositoryFile `toml:"repository"`
	Files      []entryFile    `toml:"files"`
	Secrets    secretsFile    `toml:"secrets"`
}

type teamFile struct {
	Name        string   `toml:"name"`
	Maintainers []string `toml:"maintainers"`
}

type repositoryFile struct {
	URL                string  `toml:"url"`
	Branch             string  `toml:"branch"`
	AutoUpdateInterval *uint64 `toml:"auto_update_interval,omitempty"`
}

type entryFile struct {
	Source      string   `toml:"source"`
	Destination string   `toml:"destination"`
	Type        string   `toml:"type"`
	Platforms   []string `toml:"platforms"`
	Critical    bool     `toml:"critical"`
	Protect     bool     `toml:"protect"`
	Roles       []string `toml:"roles,omitempty"`
}

type secretsFile struct {
	VaultEnabled   bool     `toml:"vault_enabled"`
	VaultType      string   `toml:"vault_type"`
	EncryptedFiles []string `toml:"encrypted_files"`
}

type stateFile struct {
	Roles []string `toml:"roles"`
}

func toModel(f *teamConfigFile) (*types.TeamConfig, error) {
	cfg := &types.TeamConfig{
		Team: types.Team{
			Name:        f.Team.Name,
			Maintainers: nonNil(f.Team.Maintainers),
		},
		Repository: types.RepositoryMetadata{
			URL:                f.Repository.URL,
			Branch:             f.Repository.Branch,
			AutoUpdateInterval: types.DefaultAutoUpdateInterval,
		},
		Files: make([]types.TrackedEntry, 0, len(f.Files)),
		Secrets: types.SecretsConfig{
			VaultEnabled:   f.Secrets.VaultEnabled,
			VaultType:      f.Secrets.VaultType,
			EncryptedFiles: nonNil(f.Secrets.EncryptedFiles),
		},
	}
	if f.Repository.AutoUpdateInterval != nil {
		cfg.Repository.AutoUpdateInterval = *f.Repository.AutoUpdateInterval
	}

	for i, e := range f.Files {
		if e.Source == "" || e.Destination == "" {
			return nil, errors.Newf(errors.ErrConfigParse, "files[%d]: source and destination are required", i)
		}
		kind, err := types.ParseEntryKind(e.Type)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "files[%d]", i).
				WithDetail("source", e.Source)
		}
		cfg.Files = append(cfg.Files, types.TrackedEntry{
			Source:      e.Source,
			Destination: e.Destination,
			Kind:        kind,
			Platforms:   nonNil(e.Platforms),
			Critical:    e.Critical,
			Protect:     e.Protect,
			Scope:       types.OnlyRoles(e.Roles...),
		})
	}
	return cfg, nil
}

func fromModel(cfg *types.TeamConfig) *teamConfigFile {
	interval := cfg.Repository.AutoUpdateInterval
	f := &teamConfigFile{
		Team: teamFile{
			Name:        cfg.Team.Name,
			Maintainers: nonNil(cfg.Team.Maintainers),
		},
		Repository: repositoryFile{
			URL:                cfg.Repository.URL,
			Branch:             cfg.Repository.Branch,
			AutoUpdateInterval: &interval,
		},
		Files: make([]entryFile, 0, len(cfg.Files)),
		Secrets: secretsFile{
			VaultEnabled:   cfg.Secrets.VaultEnabled,
			VaultType:      cfg.Secrets.VaultType,
			EncryptedFiles: nonNil(cfg.Secrets.EncryptedFiles),
		},
	}
	for _, e := range cfg.Files {
		f.Files = append(f.Files, entryFile{
			Source:      e.Source,
			Destination: e.Destination,
			Type:        e.Kind.String(),
			Platforms:   nonNil(e.Platforms),
			Critical:    e.Critical,
			Protect:     e.Protect,
			Roles:       e.Scope.Roles(),
		})
	}
	return f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
