package dto

import "github.com/lac-hong-legacy/course_api/shared"

// Actor is the authenticated caller as resolved from the bearer token.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == shared.RoleAdmin
}

func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

// CanManage reports whether the caller may mutate content owned by instructorID.
func (a Actor) CanManage(instructorID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == instructorID)
}
