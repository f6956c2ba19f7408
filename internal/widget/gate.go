package widget

import "github.com/pressdeck/editorial-chat/internal/identity"

// Identity is the externally supplied auth fact. The widget performs no
// authentication of its own.
type Identity struct {
	UserID uint64
	Role   string
}

// Allowed reports whether the widget renders at all for the given role.
// Pure function, no state.
func Allowed(id Identity) bool {
	switch id.Role {
	case identity.RoleAdmin, identity.RoleEditor:
		return true
	}
	return false
}
