package models

// RoleType defines the role carried by an authenticated actor
type RoleType string

const (
	RoleFaculty RoleType = "FACULTY"
	RoleAdmin   RoleType = "ADMIN"
)

// Valid reports whether r is a known role.
func (r RoleType) Valid() bool {
	return r == RoleFaculty || r == RoleAdmin
}

// Actor is the authenticated principal performing an operation. It is passed
// explicitly into every ledger operation.
type Actor struct {
	ID   int64    `json:"id"`
	Role RoleType `json:"role"`
}

// IsAdmin reports whether the actor may administer the catalog and decide entries.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsFaculty reports whether the actor is a faculty member.
func (a Actor) IsFaculty() bool {
	return a.Role == RoleFaculty
}

// Owns reports whether the actor is the faculty member facultyID.
func (a Actor) Owns(facultyID int64) bool {
	return a.IsFaculty() && a.ID == facultyID
}

// CanView reports whether the actor may read ledger data of facultyID.
func (a Actor) CanView(facultyID int64) bool {
	return a.IsAdmin() || a.Owns(facultyID)
}

// Sign is the direction of a credit
type Sign string

const (
	SignPositive Sign = "positive"
	SignNegative Sign = "negative"
)

// Valid reports whether s is a known sign.
func (s Sign) Valid() bool {
	return s == SignPositive || s == SignNegative
}

// Matches reports whether points carry the direction of s.
func (s Sign) Matches(points int64) bool {
	switch s {
	case SignPositive:
		return points > 0
	case SignNegative:
		return points < 0
	}
	return false
}
