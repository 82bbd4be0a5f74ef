package types

import "sort"

// RoleScope decides which machines an entry applies to. The zero value is
// Universal; a restricted scope always names at least one role.
type RoleScope struct {
	roles []string
}

// Universal returns the scope that applies to every machine
func Universal() RoleScope {
	return RoleScope{}
}

// OnlyRoles restricts a scope to machines holding at least one of roles.
// Blank and duplicate names are dropped; with nothing left the scope is Universal.
func OnlyRoles(roles ...string) RoleScope {
	return RoleScope{roles: normalizeRoles(roles)}
}

// IsUniversal reports whether the scope applies to every machine
func (s RoleScope) IsUniversal() bool {
	return len(s.roles) == 0
}

// Roles returns a copy of the restricting roles, nil for Universal
func (s RoleScope) Roles() []string {
	if s.IsUniversal() {
		return nil
	}
	out := make([]string, len(s.roles))
	copy(out, s.roles)
	return out
}

// AppliesTo reports whether a machine holding machineRoles is in scope
func (s RoleScope) AppliesTo(machineRoles []string) bool {
	if s.IsUniversal() {
		return true
	}
	for _, want := range s.roles {
		for _, have := range machineRoles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// String renders the scope for logs
func (s RoleScope) String() string {
	if s.IsUniversal() {
		return "universal"
	}
	out := "only("
	for i, r := range s.roles {
		if i > 0 {
			out += ","
		}
		out += r
	}
	return out + ")"
}

func normalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	var out []string
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
