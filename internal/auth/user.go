// Package auth verifies operator credentials against stored bcrypt hashes.
// It issues no sessions or tokens.
package auth

// User is an operator account without its password hash.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateCommand provisions an account. An empty Role defaults to RoleViewer.
type CreateCommand struct {
	Username string
	Password string
	Name     string
	Role     string
}

// Roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

type account struct {
	User
	hash []byte
}
