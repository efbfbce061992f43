package auth

import "context"

// System defines the public contract for credential checks.
type System interface {
	Handler() *Handler

	// Authenticate returns the account for username when password matches
	// its stored hash. Unknown users and wrong passwords both return
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// Create stores a new account with a bcrypt hash of cmd.Password.
	Create(ctx context.Context, cmd CreateCommand) (*User, error)
}
