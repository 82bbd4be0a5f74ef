package testutil

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

// NewBareRemote creates an empty bare repository whose HEAD points at branch
// and returns its path, usable as a remote URL
func NewBareRemote(t *testing.T, branch string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "remote.git")
	_, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		Bare: true,
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(branch),
		},
	})
	require.NoError(t, err)
	return dir
}

// RemoteHead returns the hash branch points at in the bare repository at dir,
// or "" if the branch does not exist
func RemoteHead(t *testing.T, dir, branch string) string {
	t.Helper()

	r, err := git.PlainOpen(dir)
	require.NoError(t, err)
	ref, err := r.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}
