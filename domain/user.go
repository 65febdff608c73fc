package domain

import "time"

// Marketplace roles.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// User is the authenticated identity snapshot kept under dealease_user.
type User struct {
	ID          string            `json:"id"`
	Email       string            `json:"email,omitempty"`
	Name        string            `json:"name,omitempty"`
	Role        string            `json:"role"`
	Status      string            `json:"status"`
	ProfileID   string            `json:"profile_id,omitempty"`
	IsOnboarded bool              `json:"is_onboarded"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == "active"
}

func ValidRole(role string) bool {
	return role == RoleBuyer || role == RoleSeller
}
