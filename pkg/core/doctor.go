package core

import "github.com/arthur-debert/configsync/pkg/doctor"

// Doctor inspects the installation without changing it
func (a *App) Doctor() *doctor.Report {
	return doctor.New(a.fs, a.env, a.repoOptions()).Run()
}
