// Package role defines the closed set of subscriber access tiers and the
// notification authorization table between them.
package role

import "fmt"

// Role is a subscriber access tier. The set is closed; callers must go
// through Parse instead of casting arbitrary strings.
type Role string

const (
	// RoleAdmin is the operator tier with full control over tokens,
	// principals, and broadcasts.
	RoleAdmin Role = "admin"
	// RoleSupervisor oversees support agents and may notify them.
	RoleSupervisor Role = "supervisor"
	// RoleAgent is the support-agent tier; receive-only for broadcasts.
	RoleAgent Role = "agent"
)

// all is the stable iteration order for Roles and broadcast-to-all passes.
var all = []Role{RoleAdmin, RoleSupervisor, RoleAgent}

// Roles returns every known role in stable order.
func Roles() []Role {
	out := make([]Role, len(all))
	copy(out, all)
	return out
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleAgent:
		return true
	}
	return false
}

// String returns the wire form of the role.
func (r Role) String() string { return string(r) }

// Parse returns the Role for s, or an error if s is not a known role.
func Parse(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// notifyTable is the explicit authorization table for broadcast and unicast:
// notifyTable[sender][target] is true when sender may push events to target's
// partition. Admins reach every tier; supervisors reach themselves and
// agents; agents are receive-only.
var notifyTable = map[Role]map[Role]bool{
	RoleAdmin: {
		RoleAdmin:      true,
		RoleSupervisor: true,
		RoleAgent:      true,
	},
	RoleSupervisor: {
		RoleSupervisor: true,
		RoleAgent:      true,
	},
	RoleAgent: {},
}

// CanNotify reports whether sender may deliver events to target's partition.
func CanNotify(sender, target Role) bool {
	return notifyTable[sender][target]
}

// CanNotifyAll reports whether sender may broadcast to every partition.
func CanNotifyAll(sender Role) bool {
	for _, r := range all {
		if !notifyTable[sender][r] {
			return false
		}
	}
	return true
}
