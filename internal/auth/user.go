package auth

import "context"

// User is an account known to the credential lookup.
type User struct {
	Username              string
	PasswordHash          string
	Authorities           []string
	Enabled               bool
	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool
}

// Credentials are submitted once to the login endpoint and never stored.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CredentialLookup resolves a user by exact, case-sensitive username. It
// returns ErrUserNotFound when no such user exists.
type CredentialLookup interface {
	FindByUsername(ctx context.Context, username string) (User, error)
}
