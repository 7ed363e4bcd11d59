package models

// Role is the permission level of a member.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Member is an association member. Members are deactivated, never deleted.
type Member struct {
	ID          int64  `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"name"`
	Role        Role   `json:"role" yaml:"role"`
	IsActive    bool   `json:"is_active" yaml:"-"`
}

// Actor identifies who performs an operation.
type Actor struct {
	MemberID int64
	Role     Role
}

// ActorOf builds an actor from a stored member.
func ActorOf(m *Member) Actor {
	return Actor{MemberID: m.ID, Role: m.Role}
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanModify reports whether the actor may modify a resource owned by ownerID.
func (a Actor) CanModify(ownerID int64) bool {
	return a.IsAdmin() || a.MemberID == ownerID
}
