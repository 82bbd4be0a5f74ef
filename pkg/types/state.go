package types

// LocalState is the machine-private state that never enters the repository
type LocalState struct {
	Roles []string
}

// AddRole assigns role to this machine, reporting whether it was new
func (s *LocalState) AddRole(role string) bool {
	if role == "" || s.HasRole(role) {
		return false
	}
	s.Roles = append(s.Roles, role)
	return true
}

// HasRole reports whether this machine holds role
func (s *LocalState) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// InScope reports whether entry applies to this machine
func (s *LocalState) InScope(entry TrackedEntry) bool {
	var roles []string
	if s != nil {
		roles = s.Roles
	}
	return entry.Scope.AppliesTo(roles)
}
