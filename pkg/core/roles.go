package core

import (
	"github.com/arthur-debert/configsync/pkg/manifest"
)

// AddRoles assigns roles to this machine and returns the resulting set
func (a *App) AddRoles(roles ...string) ([]string, error) {
	state, err := a.loadState()
	if err != nil {
		return nil, err
	}

	changed := false
	for _, role := range roles {
		if state.AddRole(role) {
			changed = true
			a.logger.Info().Str("role", role).Msg("Assigned role")
		}
	}
	if changed {
		if err := manifest.SaveState(a.fs, a.env.StateFile(), state); err != nil {
			return nil, err
		}
	}
	return state.Roles, nil
}

// Roles returns the roles assigned to this machine
func (a *App) Roles() ([]string, error) {
	state, err := a.loadState()
	if err != nil {
		return nil, err
	}
	return state.Roles, nil
}
