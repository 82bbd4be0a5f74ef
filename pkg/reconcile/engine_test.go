package reconcile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/reconcile"
	"github.com/arthur-debert/configsync/pkg/secrets"
	"github.com/arthur-debert/configsync/pkg/testutil"
	"github.com/arthur-debert/configsync/pkg/types"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileEntry(source, destination string, roles ...string) types.TrackedEntry {
	return types.TrackedEntry{
		Source:      source,
		Destination: destination,
		Kind:        types.KindFile,
		Platforms:   []string{types.AllPlatforms},
		Scope:       types.OnlyRoles(roles...),
	}
}

func secretEntry(name, destination string) types.TrackedEntry {
	return types.TrackedEntry{
		Source:      "secrets/" + name + ".age",
		Destination: destination,
		Kind:        types.KindSecret,
		Scope:       types.Universal(),
	}
}

func modelWith(entries ...types.TrackedEntry) *types.TeamConfig {
	cfg := types.DefaultTeamConfig()
	cfg.Files = append(cfg.Files, entries...)
	return cfg
}

// newVault creates an identity for the machine and returns the vault
func newVault(t *testing.T, te *testutil.TestEnvironment) *secrets.Vault {
	t.Helper()
	vault := secrets.NewVault(te.FS, te.Env.KeyFile())
	_, err := vault.Ensure(false)
	require.NoError(t, err)
	return vault
}

func sealInto(t *testing.T, te *testutil.TestEnvironment, vault *secrets.Vault, name, plaintext string) {
	t.Helper()
	ciphertext, err := vault.Seal([]byte(plaintext))
	require.NoError(t, err)
	testutil.CreateFile(t, te.RepoDir, filepath.Join("secrets", name+".age"), string(ciphertext))
}

func TestApply_LinksFilesAndDirectories(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo(".vimrc", "set number\n")
	te.WriteRepo("nvim/init.lua", "-- lua\n")

	dir := fileEntry("nvim", "~/.config/nvim")
	dir.Kind = types.KindDirectory
	cfg := modelWith(fileEntry(".vimrc", "~/.vimrc"), dir)

	report := reconcile.New(te.FS, te.Env, nil).Apply(cfg, &types.LocalState{})

	require.True(t, report.OK())
	assert.NoError(t, report.Err())
	assert.Equal(t, 2, report.Count(reconcile.Linked))
	testutil.AssertSymlink(t, te.Home(".vimrc"), te.Repo(".vimrc"))
	testutil.AssertSymlink(t, te.Home(".config/nvim"), te.Repo("nvim"))
	testutil.AssertFileContent(t, te.Home(".config/nvim/init.lua"), "-- lua\n")
}

func TestApply_IsIdempotent(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo(".vimrc", "set number\n")
	cfg := modelWith(fileEntry(".vimrc", "~/.vimrc"))
	engine := reconcile.New(te.FS, te.Env, nil)

	first := engine.Apply(cfg, &types.LocalState{})
	require.Equal(t, reconcile.Linked, first.Results[0].Outcome)

	second := engine.Apply(cfg, &types.LocalState{})
	assert.Equal(t, reconcile.Unchanged, second.Results[0].Outcome)
	testutil.AssertSymlink(t, te.Home(".vimrc"), te.Repo(".vimrc"))
}

func TestApply_RecognizesIndirectLinks(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo(".vimrc", "set number\n")

	// a relative link and a link through another link both lead to the source
	rel, err := filepath.Rel(te.HomeDir, te.Repo(".vimrc"))
	require.NoError(t, err)
	testutil.CreateSymlink(t, rel, te.Home(".vimrc"))
	testutil.CreateSymlink(t, te.Home(".vimrc"), te.Home(".exrc"))

	cfg := modelWith(fileEntry(".vimrc", "~/.vimrc"), fileEntry(".vimrc", "~/.exrc"))
	report := reconcile.New(te.FS, te.Env, nil).Apply(cfg, &types.LocalState{})

	assert.Equal(t, 2, report.Count(reconcile.Unchanged))
}

func TestApply_ConflictsLeaveDestinationAlone(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo(".bashrc", "# team\n")
	te.WriteRepo(".zshrc", "# team\n")
	te.WriteHome(".bashrc", "# mine\n")
	testutil.CreateSymlink(t, te.Home("elsewhere"), te.Home(".zshrc"))

	cfg := modelWith(fileEntry(".bashrc", "~/.bashrc"), fileEntry(".zshrc", "~/.zshrc"))
	report := reconcile.New(te.FS, te.Env, nil).Apply(cfg, &types.LocalState{})

	assert.Equal(t, 2, report.Count(reconcile.Conflict))
	testutil.AssertFileContent(t, te.Home(".bashrc"), "# mine\n")
	testutil.AssertSymlink(t, te.Home(".zshrc"), te.Home("elsewhere"))

	err := report.Err()
	require.Error(t, err)
	assert.Equal(t, errors.ErrPartialApply, errors.GetErrorCode(err))
	assert.Equal(t, errors.CategoryConflict, errors.CategoryOf(err))
}

func TestApply_MissingSourceFails(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	report := reconcile.New(te.FS, te.Env, nil).Apply(modelWith(fileEntry("gone", "~/gone")), &types.LocalState{})

	require.Len(t, report.Problems(), 1)
	assert.Equal(t, reconcile.Failed, report.Results[0].Outcome)
	assert.Equal(t, errors.ErrSourceMissing, errors.GetErrorCode(report.Results[0].Err))
	testutil.AssertNoFile(t, te.Home("gone"))
}

func TestApply_RoleScoping(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo("work.conf", "work\n")
	te.WriteRepo("common.conf", "common\n")
	cfg := modelWith(
		fileEntry("work.conf", "~/work.conf", "work"),
		fileEntry("common.conf", "~/common.conf"),
	)
	engine := reconcile.New(te.FS, te.Env, nil)

	report := engine.Apply(cfg, &types.LocalState{Roles: []string{"home"}})
	assert.Equal(t, reconcile.Skipped, report.Results[0].Outcome)
	assert.Equal(t, reconcile.Linked, report.Results[1].Outcome)
	assert.True(t, report.OK(), "skipped entries are not problems")
	testutil.AssertNoFile(t, te.Home("work.conf"))

	report = engine.Apply(cfg, &types.LocalState{Roles: []string{"home", "work"}})
	assert.Equal(t, reconcile.Linked, report.Results[0].Outcome)
	testutil.AssertSymlink(t, te.Home("work.conf"), te.Repo("work.conf"))
}

func TestApply_DuplicateDestination(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo("a", "a")
	te.WriteRepo("b", "b")
	cfg := modelWith(fileEntry("a", "~/same"), fileEntry("b", "~/same"))

	report := reconcile.New(te.FS, te.Env, nil).Apply(cfg, &types.LocalState{})
	assert.Equal(t, reconcile.Linked, report.Results[0].Outcome)
	assert.Equal(t, reconcile.Conflict, report.Results[1].Outcome)
	testutil.AssertSymlink(t, te.Home("same"), te.Repo("a"))
}

func TestApply_DuplicateOutOfScopeIsNotConflict(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo("a", "a")
	te.WriteRepo("b", "b")
	cfg := modelWith(fileEntry("a", "~/same", "work"), fileEntry("b", "~/same", "home"))

	report := reconcile.New(te.FS, te.Env, nil).Apply(cfg, &types.LocalState{Roles: []string{"home"}})
	assert.Equal(t, reconcile.Skipped, report.Results[0].Outcome)
	assert.Equal(t, reconcile.Linked, report.Results[1].Outcome)
}

func TestApply_MaterializesSecrets(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	vault := newVault(t, te)
	sealInto(t, te, vault, ".netrc", "machine example.com password s3cret\n")
	cfg := modelWith(secretEntry(".netrc", "~/.netrc"))
	engine := reconcile.New(te.FS, te.Env, vault)

	report := engine.Apply(cfg, &types.LocalState{})
	require.True(t, report.OK(), "%v", report.Err())
	assert.Equal(t, reconcile.Materialized, report.Results[0].Outcome)
	testutil.AssertFileContent(t, te.Home(".netrc"), "machine example.com password s3cret\n")
	testutil.AssertMode(t, te.Home(".netrc"), 0600)
	assert.False(t, testutil.SymlinkExists(te.Home(".netrc")))

	// identical content with loose permissions is tightened, not rewritten
	require.NoError(t, os.Chmod(te.Home(".netrc"), 0644))
	report = engine.Apply(cfg, &types.LocalState{})
	assert.Equal(t, reconcile.Unchanged, report.Results[0].Outcome)
	testutil.AssertMode(t, te.Home(".netrc"), 0600)

	// drifted content is replaced by the decrypted plaintext
	require.NoError(t, os.WriteFile(te.Home(".netrc"), []byte("stale"), 0644))
	report = engine.Apply(cfg, &types.LocalState{})
	assert.Equal(t, reconcile.Materialized, report.Results[0].Outcome)
	testutil.AssertFileContent(t, te.Home(".netrc"), "machine example.com password s3cret\n")
	testutil.AssertMode(t, te.Home(".netrc"), 0600)
}

// writeModes records the permissions a file had just before it was overwritten
type writeModes struct {
	types.FS
	modes map[string]os.FileMode
}

func (w *writeModes) WriteFile(name string, data []byte, perm os.FileMode) error {
	if info, err := w.FS.Stat(name); err == nil {
		w.modes[name] = info.Mode().Perm()
	}
	return w.FS.WriteFile(name, data, perm)
}

func TestApply_SecretRestrictedBeforeRewrite(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	vault := newVault(t, te)
	sealInto(t, te, vault, ".netrc", "password s3cret\n")
	te.WriteHome(".netrc", "stale")
	require.NoError(t, os.Chmod(te.Home(".netrc"), 0644))

	recorder := &writeModes{FS: te.FS, modes: map[string]os.FileMode{}}
	report := reconcile.New(recorder, te.Env, vault).Apply(modelWith(secretEntry(".netrc", "~/.netrc")), &types.LocalState{})
	require.True(t, report.OK(), "%v", report.Err())
	assert.Equal(t, reconcile.Materialized, report.Results[0].Outcome)

	assert.Equal(t, os.FileMode(0600), recorder.modes[te.Home(".netrc")])
	testutil.AssertFileContent(t, te.Home(".netrc"), "password s3cret\n")
	testutil.AssertMode(t, te.Home(".netrc"), 0600)
}

func TestApply_SecretFailures(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	vault := newVault(t, te)

	other, err := secrets.GenerateIdentity()
	require.NoError(t, err)
	foreign, err := secrets.Encrypt([]byte("not for us"), other.Recipient())
	require.NoError(t, err)
	testutil.CreateFile(t, te.RepoDir, "secrets/foreign.age", string(foreign))

	sealInto(t, te, vault, "linked", "x")
	testutil.CreateSymlink(t, te.Home("target"), te.Home("linked"))

	cfg := modelWith(
		secretEntry("missing", "~/missing"),
		secretEntry("foreign", "~/foreign"),
		secretEntry("linked", "~/linked"),
	)
	report := reconcile.New(te.FS, te.Env, vault).Apply(cfg, &types.LocalState{})

	require.Len(t, report.Results, 3)
	assert.Equal(t, reconcile.Failed, report.Results[0].Outcome)
	assert.Equal(t, errors.ErrSourceMissing, errors.GetErrorCode(report.Results[0].Err))
	assert.Equal(t, reconcile.Failed, report.Results[1].Outcome)
	assert.Equal(t, errors.ErrWrongRecipient, errors.GetErrorCode(report.Results[1].Err))
	assert.Equal(t, reconcile.Conflict, report.Results[2].Outcome)

	testutil.AssertNoFile(t, te.Home("missing"))
	testutil.AssertNoFile(t, te.Home("foreign"))
	assert.True(t, testutil.SymlinkExists(te.Home("linked")))
}

func TestApply_SecretWithoutKey(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo("secrets/token.age", "ciphertext")
	vault := secrets.NewVault(te.FS, te.Env.KeyFile())

	report := reconcile.New(te.FS, te.Env, vault).Apply(modelWith(secretEntry("token", "~/token")), &types.LocalState{})
	assert.Equal(t, reconcile.Failed, report.Results[0].Outcome)
	assert.Equal(t, errors.ErrKeyNotFound, errors.GetErrorCode(report.Results[0].Err))
}

func TestReport_WriteTo(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo(".vimrc", "set number\n")
	te.WriteRepo("work.conf", "work\n")
	te.WriteRepo(".bashrc", "# team\n")
	te.WriteHome(".bashrc", "# mine\n")

	cfg := modelWith(
		fileEntry(".vimrc", "~/.vimrc"),
		fileEntry("work.conf", "~/work.conf", "work"),
		fileEntry(".bashrc", "~/.bashrc"),
		fileEntry("gone", "~/gone"),
	)
	report := reconcile.New(te.FS, te.Env, nil).Apply(cfg, &types.LocalState{})

	var buf bytes.Buffer
	_, err := report.WriteTo(&buf)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "report", buf.Bytes())
}
