package domain

import "time"

// User is an account in the gutenbae catalog app. The review subsystem
// consumes it as a resolved caller identity; account CRUD lives here too
// because deleting an account cascades into review deletion.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`

	// PasswordHash is the encoded argon2id hash. Never serialized.
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Caller is the resolved identity attached to an authenticated request.
type Caller struct {
	ID   string
	Name string
}
