package doctor

import (
	"fmt"
	"io"

	"github.com/arthur-debert/configsync/pkg/ui/styles"
	"gopkg.in/yaml.v3"
)

// Status is the verdict of one check
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

func (s Status) style() string {
	switch s {
	case StatusOK:
		return styles.Success
	case StatusWarn:
		return styles.Warning
	default:
		return styles.Error
	}
}

// Check is one finding
type Check struct {
	Name   string `yaml:"name"`
	Status Status `yaml:"status"`
	Detail string `yaml:"detail,omitempty"`
}

// Report is the ordered list of findings
type Report struct {
	Checks []Check `yaml:"checks"`
}

func (r *Report) add(name string, status Status, format string, args ...interface{}) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: fmt.Sprintf(format, args...)})
}

// Count returns how many checks ended with status
func (r *Report) Count(status Status) int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == status {
			n++
		}
	}
	return n
}

// Healthy reports whether no check failed
func (r *Report) Healthy() bool {
	return r.Count(StatusFail) == 0
}

// WriteText renders the report for a terminal
func (r *Report) WriteText(w io.Writer) error {
	for _, c := range r.Checks {
		line := fmt.Sprintf("%s %s", styles.Render(c.Status.style(), fmt.Sprintf("%-4s", c.Status)), c.Name)
		if c.Detail != "" {
			line += " " + styles.Render(styles.Muted, c.Detail)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d ok, %d warnings, %d failed\n",
		r.Count(StatusOK), r.Count(StatusWarn), r.Count(StatusFail))
	return err
}

// WriteYAML renders the report as a YAML document
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
