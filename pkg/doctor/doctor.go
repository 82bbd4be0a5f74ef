package doctor

import (
	"os"
	"strings"

	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/arthur-debert/configsync/pkg/manifest"
	"github.com/arthur-debert/configsync/pkg/paths"
	"github.com/arthur-debert/configsync/pkg/reconcile"
	"github.com/arthur-debert/configsync/pkg/repository"
	"github.com/arthur-debert/configsync/pkg/secrets"
	"github.com/arthur-debert/configsync/pkg/types"
)

const (
	privateMode   = 0600
	applyHint     = "run 'configsync apply'"
	checkRepoDir  = "repository directory"
	checkModel    = "team config"
	checkRepo     = "git repository"
	checkRemote   = "remote"
	checkState    = "machine roles"
	checkIdentity = "identity"
)

// Doctor runs read-only checks against one machine
type Doctor struct {
	fs       types.FS
	env      paths.Environment
	repoOpts repository.Options
}

// New returns a Doctor for env
func New(fs types.FS, env paths.Environment, repoOpts repository.Options) *Doctor {
	return &Doctor{fs: fs, env: env, repoOpts: repoOpts}
}

// Run performs every check. Checks that depend on a failed one are skipped.
func (d *Doctor) Run() *Report {
	report := &Report{}
	logger := logging.GetLogger("doctor")

	info, err := d.fs.Stat(d.env.RepoDir())
	switch {
	case err != nil:
		report.add(checkRepoDir, StatusFail, "%s is missing, run 'configsync init'", d.env.RepoDir())
		return report
	case !info.IsDir():
		report.add(checkRepoDir, StatusFail, "%s is not a directory", d.env.RepoDir())
		return report
	}
	report.add(checkRepoDir, StatusOK, "%s", d.env.RepoDir())

	d.checkRepository(report)

	cfg, err := manifest.LoadTeamConfig(d.fs, d.env.ConfigFile())
	if err != nil {
		report.add(checkModel, StatusFail, "%v", err)
		return report
	}
	report.add(checkModel, StatusOK, "team %s, %d entries", cfg.Team.Name, len(cfg.Files))

	state, err := manifest.LoadState(d.fs, d.env.StateFile())
	if err != nil {
		report.add(checkState, StatusFail, "%v", err)
		return report
	}
	if len(state.Roles) == 0 {
		report.add(checkState, StatusOK, "none, only universal entries apply")
	} else {
		report.add(checkState, StatusOK, "%s", strings.Join(state.Roles, ", "))
	}

	for _, entry := range cfg.Files {
		if state.InScope(entry) {
			d.checkEntry(report, entry)
		}
	}

	if cfg.HasSecrets() {
		d.checkIdentity(report)
	}

	logger.Debug().
		Int("ok", report.Count(StatusOK)).
		Int("warn", report.Count(StatusWarn)).
		Int("fail", report.Count(StatusFail)).
		Msg("Doctor finished")
	return report
}

func (d *Doctor) checkRepository(report *Report) {
	repo, err := repository.Open(d.env.RepoDir(), d.repoOpts)
	if err != nil {
		report.add(checkRepo, StatusFail, "%v", err)
		return
	}

	head, ok, err := repo.Head()
	switch {
	case err != nil:
		report.add(checkRepo, StatusFail, "%v", err)
	case !ok:
		report.add(checkRepo, StatusWarn, "branch %s has no commits", repo.Branch())
	default:
		report.add(checkRepo, StatusOK, "branch %s at %s", repo.Branch(), head.ShortHash)
	}

	if url := repo.RemoteURL(); url != "" {
		report.add(checkRemote, StatusOK, "%s %s", repo.RemoteName(), url)
	} else {
		report.add(checkRemote, StatusWarn, "%s is not configured, push and pull are unavailable", repo.RemoteName())
	}
}

func (d *Doctor) checkEntry(report *Report, entry types.TrackedEntry) {
	name := entry.Destination
	src := d.env.RepoPath(entry.Source)
	dst := d.env.ExpandHome(entry.Destination)

	if _, err := d.fs.Stat(src); err != nil {
		report.add(name, StatusFail, "source %s is missing", entry.Source)
		return
	}

	info, err := d.fs.Lstat(dst)
	switch {
	case os.IsNotExist(err):
		report.add(name, StatusWarn, "not applied, %s", applyHint)
		return
	case err != nil:
		report.add(name, StatusFail, "%v", err)
		return
	}

	if entry.Kind.IsLinked() {
		switch {
		case info.Mode()&os.ModeSymlink == 0:
			report.add(name, StatusFail, "exists and is not a link")
		case !reconcile.LinksTo(d.fs, dst, src):
			report.add(name, StatusFail, "links somewhere other than %s", entry.Source)
		default:
			report.add(name, StatusOK, "linked to %s", entry.Source)
		}
		return
	}

	switch {
	case !info.Mode().IsRegular():
		report.add(name, StatusFail, "secret is not a regular file")
	case info.Mode().Perm() != privateMode:
		report.add(name, StatusWarn, "secret has mode %04o, %s", info.Mode().Perm(), applyHint)
	default:
		report.add(name, StatusOK, "decrypted from %s", entry.Source)
	}
}

func (d *Doctor) checkIdentity(report *Report) {
	vault := secrets.NewVault(d.fs, d.env.KeyFile())
	if _, err := vault.LoadIdentity(); err != nil {
		report.add(checkIdentity, StatusFail, "%v", err)
		return
	}

	info, err := d.fs.Stat(vault.KeyPath())
	if err != nil {
		report.add(checkIdentity, StatusFail, "%v", err)
		return
	}
	if info.Mode().Perm() != privateMode {
		report.add(checkIdentity, StatusWarn, "%s has mode %04o, expected 0600", vault.KeyPath(), info.Mode().Perm())
		return
	}
	report.add(checkIdentity, StatusOK, "%s", vault.KeyPath())
}
