package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/configsync/pkg/core"
	"github.com/arthur-debert/configsync/pkg/repository"
	"github.com/arthur-debert/configsync/pkg/types"
	"github.com/arthur-debert/configsync/pkg/ui/styles"
)

func printResult(w io.Writer, result *core.Result) error {
	if result.Commit != nil {
		fmt.Fprintf(w, MsgCommitted, styles.Render(styles.Hash, result.Commit.ShortHash), result.Commit.Summary)
	}
	if result.Pull != nil {
		fmt.Fprintf(w, MsgPulled, result.Pull)
	}
	if result.Report != nil {
		if _, err := result.Report.WriteTo(w); err != nil {
			return err
		}
	}
	for _, warning := range result.Warnings {
		fmt.Fprintln(w, styles.Render(styles.Warning, MsgWarning), warning)
	}
	return nil
}

func printEntry(w io.Writer, entry types.TrackedEntry) {
	fmt.Fprintf(w, MsgTracked,
		styles.Render(styles.FilePath, entry.Destination), entry.Source, entry.Kind, entry.Scope)
}

func printRoles(w io.Writer, roles []string) {
	if len(roles) == 0 {
		fmt.Fprintln(w, styles.Render(styles.Muted, MsgNoRoles))
		return
	}
	fmt.Fprintf(w, MsgRoles, strings.Join(roles, ", "))
}

func printHistory(w io.Writer, commits []repository.CommitInfo) {
	if len(commits) == 0 {
		fmt.Fprintln(w, styles.Render(styles.Muted, MsgNoHistory))
		return
	}
	for _, c := range commits {
		fmt.Fprintf(w, MsgHistoryFormat,
			styles.Render(styles.Hash, c.ShortHash),
			styles.Render(styles.Muted, c.When.Local().Format(MsgHistoryTime)),
			c.Summary)
	}
}
