package reconcile

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/types"
)

// Outcome is what happened to one entry during a pass
type Outcome int

const (
	// Linked means a new symlink was created
	Linked Outcome = iota
	// Unchanged means the destination already matched
	Unchanged
	// Materialized means a secret was decrypted and written
	Materialized
	// Skipped means the entry does not apply to this machine
	Skipped
	// Conflict means the destination is occupied by something else
	Conflict
	// Failed means the entry could not be applied
	Failed
)

var outcomeNames = []string{"linked", "unchanged", "materialized", "skipped", "conflict", "failed"}

func (o Outcome) String() string {
	if int(o) >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// IsProblem reports whether the outcome needs the user's attention
func (o Outcome) IsProblem() bool {
	return o == Conflict || o == Failed
}

// Result records the outcome for one entry
type Result struct {
	Entry types.TrackedEntry
	// Destination is the expanded absolute destination
	Destination string
	Outcome     Outcome
	// Err explains Conflict and Failed outcomes
	Err error
}

// Report aggregates the results of one pass in model order
type Report struct {
	Results []Result
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

// Count returns how many entries ended with outcome
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Problems returns the conflicts and failures
func (r *Report) Problems() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome.IsProblem() {
			out = append(out, res)
		}
	}
	return out
}

// OK reports whether every in-scope entry was applied
func (r *Report) OK() bool {
	return len(r.Problems()) == 0
}

// Err returns nil when the pass fully applied, otherwise an ErrPartialApply
// error naming how many entries were not applied
func (r *Report) Err() error {
	problems := r.Problems()
	if len(problems) == 0 {
		return nil
	}
	paths := make([]string, 0, len(problems))
	for _, p := range problems {
		paths = append(paths, p.Entry.Destination)
	}
	return errors.Newf(errors.ErrPartialApply, "%d of %d entries were not applied", len(problems), len(r.Results)).
		WithDetail("destinations", paths)
}

// WriteTo renders the report as one line per entry followed by a summary
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var buf strings.Builder
	for _, res := range r.Results {
		fmt.Fprintf(&buf, "%-12s %s -> %s", res.Outcome, res.Entry.Destination, res.Entry.Source)
		if res.Err != nil {
			fmt.Fprintf(&buf, " [%s]", errors.GetErrorCode(res.Err))
		}
		buf.WriteString("\n")
	}
	fmt.Fprintf(&buf, "%d linked, %d materialized, %d unchanged, %d skipped, %d conflicts, %d failed\n",
		r.Count(Linked), r.Count(Materialized), r.Count(Unchanged), r.Count(Skipped), r.Count(Conflict), r.Count(Failed))

	n, err := io.WriteString(w, buf.String())
	return int64(n), err
}
