package domain

import "fmt"

// Role enumerates the fixed reporting hierarchy ranks.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTeamLeader Role = "team-leader"
	RoleUser       Role = "user"
)

// AllRoles lists every role ordered by descending authority.
var AllRoles = []Role{RoleAdmin, RoleManager, RoleTeamLeader, RoleUser}

// ParseRole validates a raw role value.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleManager, RoleTeamLeader, RoleUser:
		return Role(raw), nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTeamLeader, RoleUser:
		return true
	}
	return false
}

// Rank returns the authority rank, higher meaning more authority.
// Rank is for display and sorting only; authorization always routes
// through the explicit reporting hierarchy.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 4
	case RoleManager:
		return 3
	case RoleTeamLeader:
		return 2
	case RoleUser:
		return 1
	}
	return 0
}

// CreatableRoles returns the roles a holder of r may create.
func (r Role) CreatableRoles() []Role {
	switch r {
	case RoleAdmin:
		return []Role{RoleManager, RoleTeamLeader, RoleUser}
	case RoleManager:
		return []Role{RoleTeamLeader, RoleUser}
	case RoleTeamLeader:
		return []Role{RoleUser}
	}
	return nil
}

// CanCreate reports whether r may create accounts holding target.
func (r Role) CanCreate(target Role) bool {
	for _, candidate := range r.CreatableRoles() {
		if candidate == target {
			return true
		}
	}
	return false
}

// ReportsToRole returns the single role a holder of r must report to.
// The second return is false for the top of the hierarchy.
func (r Role) ReportsToRole() (Role, bool) {
	switch r {
	case RoleUser:
		return RoleTeamLeader, true
	case RoleTeamLeader:
		return RoleManager, true
	case RoleManager:
		return RoleAdmin, true
	}
	return "", false
}

// DisplayName returns the human-readable role label.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleManager:
		return "Manager"
	case RoleTeamLeader:
		return "Team Leader"
	case RoleUser:
		return "User"
	}
	return string(r)
}
