package models

// Roles recognised by the platform. Role and display name are fixed at
// registration; the gateway never edits them.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User is the signed-in identity as published by the identity provider,
// merged with its profile record.
type User struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// KnownRole reports whether the role is one the gateway can route for.
func KnownRole(role string) bool {
	return role == RoleStudent || role == RoleTeacher
}
