// Package cli assembles the configsync command tree. Commands are thin:
// they parse flags, call pkg/core and render the outcome.
package cli

import (
	"io"
	"os"

	"github.com/arthur-debert/configsync/internal/version"
	"github.com/arthur-debert/configsync/pkg/config"
	"github.com/arthur-debert/configsync/pkg/core"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/arthur-debert/configsync/pkg/paths"
	"github.com/arthur-debert/configsync/pkg/ui/styles"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runtime is the state shared by every command of one invocation
type runtime struct {
	verbosity int
	noColor   bool
	root      string

	app *core.App
}

// setup resolves locations and settings, configures logging and builds the App
func (rt *runtime) setup(cmd *cobra.Command) error {
	styles.SetNoColor(rt.noColor || !isTerminal(cmd.OutOrStdout()))

	env, err := paths.New(paths.Options{RepoDir: rt.root})
	if err != nil {
		logging.SetupLogger(rt.verbosity, logging.FileOutput{})
		return err
	}
	settings, err := config.Load(env.SettingsFile())
	if err != nil {
		logging.SetupLogger(rt.verbosity, logging.FileOutput{})
		return err
	}

	logging.SetupLogger(rt.verbosity, settings.Logging.FileOutput(env.LogFile()))
	log.Debug().Str("command", cmd.CommandPath()).Str("repo", env.RepoDir()).Msg("Command started")

	rt.app = core.New(core.Options{Env: env, Settings: settings})
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:     "configsync",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&rt.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&rt.noColor, "no-color", false, MsgFlagNoColor)
	rootCmd.PersistentFlags().StringVar(&rt.root, "root", "", MsgFlagRoot)

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "COMMANDS:"},
		&cobra.Group{ID: "sync", Title: "SYNC:"},
		&cobra.Group{ID: "misc", Title: "MISC:"},
	)

	for _, cmd := range []*cobra.Command{
		newInitCmd(rt), newAddCmd(rt), newSecretsCmd(rt), newRoleCmd(rt), newApplyCmd(rt),
	} {
		cmd.GroupID = "core"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{
		newPushCmd(rt), newPullCmd(rt), newWatchCmd(rt), newHistoryCmd(rt), newUndoCmd(rt),
	} {
		cmd.GroupID = "sync"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{newDoctorCmd(rt), newVersionCmd()} {
		cmd.GroupID = "misc"
		rootCmd.AddCommand(cmd)
	}
	rootCmd.SetCompletionCommandGroupID("misc")
	rootCmd.SetHelpCommandGroupID("misc")

	return rootCmd
}
