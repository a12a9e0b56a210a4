package entity

import "time"

// ProviderUser mirrors an identity-provider user record, kept in sync by
// lifecycle webhooks. It is a side table; expense operations never read it.
type ProviderUser struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
