package core

// Role is the closed classification of accounts. The integer values are the
// seeded ids of the roles reference table.
type Role int

const (
	RoleAdmin   Role = 1
	RoleTeacher Role = 2
	RoleStudent Role = 3
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleTeacher:
		return "Teacher"
	case RoleStudent:
		return "Student"
	default:
		return "Unknown"
	}
}

// Elevated reports whether the role may manage instances and see all query
// history. Admin and Teacher are treated identically for authorization.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// Landing is the role-appropriate landing path for a freshly authenticated
// browser session.
func (r Role) Landing() string {
	if r.Elevated() {
		return "/admin"
	}
	return "/student"
}

// RoleByName resolves a role name as stored in the reference table.
func RoleByName(name string) (Role, bool) {
	switch name {
	case "Admin":
		return RoleAdmin, true
	case "Teacher":
		return RoleTeacher, true
	case "Student":
		return RoleStudent, true
	default:
		return 0, false
	}
}
