package doctor_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/arthur-debert/configsync/pkg/doctor"
	"github.com/arthur-debert/configsync/pkg/manifest"
	"github.com/arthur-debert/configsync/pkg/reconcile"
	"github.com/arthur-debert/configsync/pkg/repository"
	"github.com/arthur-debert/configsync/pkg/secrets"
	"github.com/arthur-debert/configsync/pkg/testutil"
	"github.com/arthur-debert/configsync/pkg/types"
	"github.com/arthur-debert/configsync/pkg/ui/styles"
	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
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

// setup initializes a repository holding cfg and returns the doctor for it
func setup(t *testing.T, te *testutil.TestEnvironment, cfg *types.TeamConfig) *doctor.Doctor {
	t.Helper()
	repo, err := repository.Init(te.RepoDir, repository.Options{})
	require.NoError(t, err)
	require.NoError(t, manifest.SaveTeamConfig(te.FS, te.Env.ConfigFile(), cfg))
	_, err = repo.CommitAll("Initialize configsync")
	require.NoError(t, err)
	return doctor.New(te.FS, te.Env, repository.Options{})
}

func find(t *testing.T, report *doctor.Report, name string) doctor.Check {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q in %+v", name, report.Checks)
	return doctor.Check{}
}

func TestRun_MissingRepositoryDirectory(t *testing.T) {
	te := testutil.NewTestEnvironment(t)

	report := doctor.New(te.FS, te.Env, repository.Options{}).Run()

	require.Len(t, report.Checks, 1)
	assert.Equal(t, doctor.StatusFail, report.Checks[0].Status)
	assert.Contains(t, report.Checks[0].Detail, "configsync init")
	assert.False(t, report.Healthy())
}

func TestRun_HealthyMachine(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo(".bashrc", "export A=1\n")
	cfg := types.DefaultTeamConfig()
	cfg.Files = append(cfg.Files, fileEntry(".bashrc", "~/.bashrc"))
	doc := setup(t, te, cfg)

	reconcile.New(te.FS, te.Env, nil).Apply(cfg, &types.LocalState{})
	report := doc.Run()

	assert.True(t, report.Healthy(), "%+v", report.Checks)
	assert.Equal(t, doctor.StatusOK, find(t, report, "repository directory").Status)
	assert.Equal(t, doctor.StatusOK, find(t, report, "team config").Status)
	assert.Contains(t, find(t, report, "git repository").Detail, "branch main at")
	assert.Equal(t, doctor.StatusWarn, find(t, report, "remote").Status)
	assert.Equal(t, doctor.StatusOK, find(t, report, "~/.bashrc").Status)
	assert.Equal(t, 1, report.Count(doctor.StatusWarn))
}

func TestRun_EntryProblems(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	te.WriteRepo(".bashrc", "export A=1\n")
	te.WriteRepo(".vimrc", "set nu\n")
	te.WriteRepo(".zshrc", "setopt\n")
	te.WriteHome(".vimrc", "local copy\n")
	testutil.CreateSymlink(t, te.Home("elsewhere"), te.Home(".zshrc"))

	cfg := types.DefaultTeamConfig()
	cfg.Files = append(cfg.Files,
		fileEntry(".bashrc", "~/.bashrc"),
		fileEntry(".vimrc", "~/.vimrc"),
		fileEntry(".zshrc", "~/.zshrc"),
		fileEntry(".gone", "~/.gone"),
	)
	report := setup(t, te, cfg).Run()

	assert.Equal(t, doctor.StatusWarn, find(t, report, "~/.bashrc").Status)
	assert.Equal(t, doctor.StatusFail, find(t, report, "~/.vimrc").Status)
	assert.Contains(t, find(t, report, "~/.zshrc").Detail, "somewhere other than")
	assert.Contains(t, find(t, report, "~/.gone").Detail, "missing")
	assert.False(t, report.Healthy())
}

func TestRun_SkipsOutOfScopeEntries(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	cfg := types.DefaultTeamConfig()
	cfg.Files = append(cfg.Files, fileEntry(".work", "~/.work", "work"))
	report := setup(t, te, cfg).Run()

	for _, c := range report.Checks {
		assert.NotEqual(t, "~/.work", c.Name)
	}
	assert.Contains(t, find(t, report, "machine roles").Detail, "universal")
}

func TestRun_UnparsableModel(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	doc := setup(t, te, types.DefaultTeamConfig())
	te.WriteRepo("team-config.toml", "[team\n")

	report := doc.Run()

	last := report.Checks[len(report.Checks)-1]
	assert.Equal(t, "team config", last.Name)
	assert.Equal(t, doctor.StatusFail, last.Status)
}

func TestRun_Secrets(t *testing.T) {
	te := testutil.NewTestEnvironment(t)
	cfg := types.DefaultTeamConfig()
	cfg.Files = append(cfg.Files, types.TrackedEntry{
		Source:      "secrets/.netrc.age",
		Destination: "~/.netrc",
		Kind:        types.KindSecret,
		Scope:       types.Universal(),
	})
	cfg.MarkEncrypted("secrets/.netrc.age")
	doc := setup(t, te, cfg)

	t.Run("no identity", func(t *testing.T) {
		te.WriteRepo("secrets/.netrc.age", "ciphertext")
		report := doc.Run()
		assert.Equal(t, doctor.StatusFail, find(t, report, "identity").Status)
		assert.Equal(t, doctor.StatusWarn, find(t, report, "~/.netrc").Status)
	})

	vault := secrets.NewVault(te.FS, te.Env.KeyFile())
	_, err := vault.Ensure(false)
	require.NoError(t, err)
	ciphertext, err := vault.Seal([]byte("machine example.com\n"))
	require.NoError(t, err)
	te.WriteRepo("secrets/.netrc.age", string(ciphertext))
	reconcile.New(te.FS, te.Env, vault).Apply(cfg, &types.LocalState{})

	t.Run("applied", func(t *testing.T) {
		report := doc.Run()
		assert.Equal(t, doctor.StatusOK, find(t, report, "identity").Status)
		assert.Equal(t, doctor.StatusOK, find(t, report, "~/.netrc").Status)
	})

	t.Run("loose permissions", func(t *testing.T) {
		require.NoError(t, os.Chmod(te.Env.KeyFile(), 0644))
		require.NoError(t, os.Chmod(te.Home(".netrc"), 0644))
		report := doc.Run()
		assert.Equal(t, doctor.StatusWarn, find(t, report, "identity").Status)
		assert.Contains(t, find(t, report, "~/.netrc").Detail, "0644")
	})
}

func sampleReport() *doctor.Report {
	return &doctor.Report{Checks: []doctor.Check{
		{Name: "repository directory", Status: doctor.StatusOK, Detail: "/home/me/.config/configsync"},
		{Name: "remote", Status: doctor.StatusWarn, Detail: "origin is not configured, push and pull are unavailable"},
		{Name: "~/.bashrc", Status: doctor.StatusFail, Detail: "exists and is not a link"},
	}}
}

func TestReport_WriteText(t *testing.T) {
	styles.SetNoColor(true)
	t.Cleanup(func() { styles.SetNoColor(false) })

	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteText(&buf))

	g := goldie.New(t)
	g.Assert(t, "report", buf.Bytes())
}

func TestReport_WriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteYAML(&buf))

	var decoded doctor.Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	if diff := cmp.Diff(sampleReport(), &decoded); diff != "" {
		t.Errorf("YAML round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, buf.String(), "status: warn")
}
