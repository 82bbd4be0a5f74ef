package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateFile writes content to dir/name, creating parent directories
func CreateFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "create parent of %s", path)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "write %s", path)
	return path
}

// CreateDir creates parent/name
func CreateDir(t *testing.T, parent, name string) string {
	t.Helper()

	path := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(path, 0755), "create %s", path)
	return path
}

// CreateSymlink creates link pointing at target
func CreateSymlink(t *testing.T, target, link string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0755), "create parent of %s", link)
	require.NoError(t, os.Symlink(target, link), "symlink %s -> %s", link, target)
}

// SymlinkExists reports whether path is a symbolic link
func SymlinkExists(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// ReadFile returns the content of path
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "read %s", path)
	return string(content)
}

// AssertFileContent checks that path, after following links, is a file
// holding expected
func AssertFileContent(t *testing.T, path, expected string) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err, "stat %s", path)
	require.True(t, info.Mode().IsRegular(), "%s is not a regular file", path)
	require.Equal(t, expected, ReadFile(t, path), "content of %s", path)
}

// AssertSymlink checks that link resolves to expectedTarget
func AssertSymlink(t *testing.T, link, expectedTarget string) {
	t.Helper()

	require.True(t, SymlinkExists(link), "%s is not a symlink", link)
	target, err := os.Readlink(link)
	require.NoError(t, err)
	require.Equal(t, expectedTarget, target, "target of %s", link)
}

// AssertNoFile checks that nothing exists at path, not even a dangling link
func AssertNoFile(t *testing.T, path string) {
	t.Helper()

	_, err := os.Lstat(path)
	require.True(t, os.IsNotExist(err), "%s exists but should not", path)
}

// AssertMode checks the permission bits of path
func AssertMode(t *testing.T, path string, expected os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err, "stat %s", path)
	require.Equal(t, expected, info.Mode().Perm(), "mode of %s", path)
}
