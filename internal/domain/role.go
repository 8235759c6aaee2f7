package domain

// Role represents a player's hidden role for the game
type Role string

const (
	RoleOriginal Role = "original"
	RoleMirror   Role = "mirror"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsMirror returns true if this role is a mirror
func (r Role) IsMirror() bool {
	return r == RoleMirror
}
