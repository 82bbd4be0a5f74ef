package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/configsync/internal/version"
	"github.com/arthur-debert/configsync/pkg/core"
	"github.com/arthur-debert/configsync/pkg/doctor"
	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/spf13/cobra"
)

func newInitCmd(rt *runtime) *cobra.Command {
	var opts core.InitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: MsgInitShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := rt.app.Init(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "", MsgFlagURL)
	cmd.Flags().StringSliceVar(&opts.Roles, "role", nil, MsgFlagRole)
	return cmd
}

func newAddCmd(rt *runtime) *cobra.Command {
	var roles []string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: MsgAddShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := rt.app.Add(args[0], roles)
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "role", nil, MsgFlagRole)
	return cmd
}

func newSecretsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: MsgSecretsShort,
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: MsgSecretsInit,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient, err := rt.app.InitSecrets(force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgPublicKey, rt.app.Env().KeyFile(), recipient)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, MsgFlagForce)

	addCmd := &cobra.Command{
		Use:   "add <path>",
		Short: MsgSecretsAdd,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := rt.app.AddSecret(args[0])
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}

	cmd.AddCommand(initCmd, addCmd)
	return cmd
}

func newRoleCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: MsgRoleShort,
	}

	addCmd := &cobra.Command{
		Use:   "add <role>...",
		Short: MsgRoleAdd,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := rt.app.AddRoles(args...)
			if err != nil {
				return err
			}
			printRoles(cmd.OutOrStdout(), roles)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: MsgRoleList,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := rt.app.Roles()
			if err != nil {
				return err
			}
			printRoles(cmd.OutOrStdout(), roles)
			return nil
		},
	}

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}

func newApplyCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: MsgApplyShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := rt.app.Apply()
			if err != nil {
				return err
			}
			if err := printResult(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			return result.Report.Err()
		},
	}
}

func newPushCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: MsgPushShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := rt.app.Push(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}

func newPullCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: MsgPullShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := rt.app.Pull(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}

func newWatchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: MsgWatchShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), MsgWatching, rt.app.Env().RepoDir())
			return rt.app.Watch(ctx)
		},
	}
}

func newHistoryCmd(rt *runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: MsgHistoryShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			commits, err := rt.app.History(limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), commits)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, MsgFlagLimit)
	return cmd
}

func newUndoCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "undo [commit]",
		Short: MsgUndoShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rev string
			if len(args) == 1 {
				rev = args[0]
			}
			result, err := rt.app.Undo(rev)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}

func newDoctorCmd(rt *runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: MsgDoctorShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "yaml" {
				return errors.Newf(errors.ErrInvalidInput, MsgErrFormat, format)
			}

			report := rt.app.Doctor()
			var err error
			if format == "yaml" {
				err = report.WriteYAML(cmd.OutOrStdout())
			} else {
				err = report.WriteText(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}

			if !report.Healthy() {
				return errors.Newf(errors.ErrUnhealthy, MsgErrUnhealthy, report.Count(doctor.StatusFail))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", MsgFlagFormat)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		// no environment needed
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
