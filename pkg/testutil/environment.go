package testutil

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/configsync/pkg/filesystem"
	"github.com/arthur-debert/configsync/pkg/paths"
	"github.com/arthur-debert/configsync/pkg/types"
	"github.com/stretchr/testify/require"
)

// TestEnvironment is one simulated machine: a home directory, a managed
// directory and machine-local data and state directories, all under a
// temporary root
type TestEnvironment struct {
	Root     string
	HomeDir  string
	RepoDir  string
	DataDir  string
	StateDir string

	Env paths.Environment
	FS  types.FS

	t *testing.T
}

// NewTestEnvironment creates an isolated machine layout under t.TempDir
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	return NewMachine(t, t.TempDir())
}

// NewMachine creates an isolated machine layout under root. Several machines
// can share one root by giving each its own directory.
func NewMachine(t *testing.T, root string) *TestEnvironment {
	t.Helper()

	te := &TestEnvironment{
		Root:     root,
		HomeDir:  filepath.Join(root, "home"),
		RepoDir:  filepath.Join(root, "home", ".config", "configsync"),
		DataDir:  filepath.Join(root, "home", ".local", "share", "configsync"),
		StateDir: filepath.Join(root, "home", ".local", "state", "configsync"),
		FS:       filesystem.NewOS(),
		t:        t,
	}
	require.NoError(t, te.FS.MkdirAll(te.HomeDir, 0755))

	env, err := paths.New(paths.Options{
		HomeDir:  te.HomeDir,
		RepoDir:  te.RepoDir,
		DataDir:  te.DataDir,
		StateDir: te.StateDir,
	})
	require.NoError(t, err)
	te.Env = env
	return te
}

// Home returns a path below the home directory
func (te *TestEnvironment) Home(rel string) string {
	return filepath.Join(te.HomeDir, filepath.FromSlash(rel))
}

// Repo returns a path below the managed directory
func (te *TestEnvironment) Repo(rel string) string {
	return filepath.Join(te.RepoDir, filepath.FromSlash(rel))
}

// WriteHome creates a file below the home directory
func (te *TestEnvironment) WriteHome(rel, content string) string {
	te.t.Helper()
	return CreateFile(te.t, te.HomeDir, filepath.FromSlash(rel), content)
}

// WriteRepo creates a file below the managed directory
func (te *TestEnvironment) WriteRepo(rel, content string) string {
	te.t.Helper()
	return CreateFile(te.t, te.RepoDir, filepath.FromSlash(rel), content)
}
