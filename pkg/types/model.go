package types

import (
	"fmt"
	"strings"
)

// Defaults applied to a freshly initialized model
const (
	DefaultTeamName           = "default-team"
	DefaultBranch             = "main"
	DefaultAutoUpdateInterval = 300
)

// AllPlatforms is the platform tag recorded for entries added without a platform filter
const AllPlatforms = "*"

// EntryKind describes how a tracked entry is materialized on a machine
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
	KindSecret
)

var kindNames = map[EntryKind]string{
	KindFile:      "file",
	KindDirectory: "directory",
	KindSecret:    "secret",
}

// String returns the on-disk name of the kind
func (k EntryKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EntryKind(%d)", int(k))
}

// IsLinked reports whether entries of this kind are deployed as symlinks
func (k EntryKind) IsLinked() bool {
	return k == KindFile || k == KindDirectory
}

// ParseEntryKind converts an on-disk kind name into an EntryKind
func ParseEntryKind(s string) (EntryKind, error) {
	for kind, name := range kindNames {
		if strings.EqualFold(name, s) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown entry type %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (k EntryKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown entry kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *EntryKind) UnmarshalText(text []byte) error {
	parsed, err := ParseEntryKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Team holds the team metadata
type Team struct {
	Name        string
	Maintainers []string
}

// RepositoryMetadata describes the shared store. It is informational for the
// reconciliation engine; the branch is resolved once when the repository opens.
type RepositoryMetadata struct {
	URL                string
	Branch             string
	AutoUpdateInterval uint64
}

// SecretsConfig records which repository items hold ciphertext
type SecretsConfig struct {
	VaultEnabled   bool
	VaultType      string
	EncryptedFiles []string
}

// TrackedEntry maps one repository item onto a destination on a machine
type TrackedEntry struct {
	// Source is relative to the repository root
	Source string
	// Destination may start with ~ and is expanded at reconciliation time
	Destination string
	Kind        EntryKind
	Platforms   []string
	// Critical and Protect are carried through but not acted on yet
	Critical bool
	Protect  bool
	Scope    RoleScope
}

// TeamConfig is the declarative model stored in the repository
type TeamConfig struct {
	Team       Team
	Repository RepositoryMetadata
	Files      []TrackedEntry
	Secrets    SecretsConfig
}

// DefaultTeamConfig returns the model written by a fresh initialization
func DefaultTeamConfig() *TeamConfig {
	return &TeamConfig{
		Team: Team{
			Name:        DefaultTeamName,
			Maintainers: []string{},
		},
		Repository: RepositoryMetadata{
			URL:                "",
			Branch:             DefaultBranch,
			AutoUpdateInterval: DefaultAutoUpdateInterval,
		},
		Files:   []TrackedEntry{},
		Secrets: SecretsConfig{EncryptedFiles: []string{}},
	}
}

// FindByDestination returns the index of the entry with the given destination, or -1
func (c *TeamConfig) FindByDestination(destination string) int {
	for i, entry := range c.Files {
		if entry.Destination == destination {
			return i
		}
	}
	return -1
}

// FindBySource returns the index of the entry with the given source, or -1
func (c *TeamConfig) FindBySource(source string) int {
	for i, entry := range c.Files {
		if entry.Source == source {
			return i
		}
	}
	return -1
}

// HasSecrets reports whether any entry is a secret
func (c *TeamConfig) HasSecrets() bool {
	for _, entry := range c.Files {
		if entry.Kind == KindSecret {
			return true
		}
	}
	return false
}

// MarkEncrypted records source in the secrets section once
func (c *TeamConfig) MarkEncrypted(source string) {
	for _, existing := range c.Secrets.EncryptedFiles {
		if existing == source {
			return
		}
	}
	c.Secrets.EncryptedFiles = append(c.Secrets.EncryptedFiles, source)
	c.Secrets.VaultEnabled = true
	if c.Secrets.VaultType == "" {
		c.Secrets.VaultType = "age"
	}
}
