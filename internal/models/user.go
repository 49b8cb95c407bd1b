package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin  string = "admin"
	RoleEditor string = "editor"
	RoleViewer string = "viewer"
)

// OrgSuper is the sentinel organization that bypasses tenant scoping.
const OrgSuper string = "super"

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Organization string    `json:"organization"`
	Is_Active    bool      `json:"is_active"`
	Created_At   time.Time `json:"created_at"`
	Updated_At   time.Time `json:"updated_at"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}
