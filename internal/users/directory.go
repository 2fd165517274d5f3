// Package users provides the read-only user directories behind
// auth.CredentialLookup.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"academy.org/internal/auth"
)

// Seed describes one account before its password is hashed. Exactly one of
// Password and PasswordHash is set. The negative flags keep the zero value
// an active account.
type Seed struct {
	Username           string `koanf:"username"`
	Password           string `koanf:"password"`
	PasswordHash       string `koanf:"password_hash"`
	Role               string `koanf:"role"`
	Disabled           bool   `koanf:"disabled"`
	Locked             bool   `koanf:"locked"`
	Expired            bool   `koanf:"expired"`
	CredentialsExpired bool   `koanf:"credentials_expired"`
}

// DefaultSeeds is the built-in account list.
func DefaultSeeds() []Seed {
	return []Seed{
		{Username: "student1", Password: "password", Role: string(auth.RoleStudent)},
		{Username: "admin1", Password: "password", Role: string(auth.RoleAdmin)},
		{Username: "admintrainee1", Password: "password", Role: string(auth.RoleAdminTrainee)},
	}
}

// Directory is an immutable username → user map.
type Directory struct {
	users map[string]auth.User
	cost  int
}

var (
	_ auth.CredentialLookup = (*Directory)(nil)
	_ auth.PasswordCoster   = (*Directory)(nil)
)

// FromSeeds hashes plaintext passwords at cost and builds the directory.
// Unknown roles and duplicate usernames are rejected.
func FromSeeds(seeds []Seed, cost int) (*Directory, error) {
	users := make(map[string]auth.User, len(seeds))
	maxCost := 0
	for i, s := range seeds {
		u, err := s.user(cost)
		if err != nil {
			return nil, fmt.Errorf("users: seed %d: %w", i, err)
		}
		if _, dup := users[u.Username]; dup {
			return nil, fmt.Errorf("users: duplicate username %q", u.Username)
		}
		hashCost, err := bcrypt.Cost([]byte(u.PasswordHash))
		if err != nil {
			return nil, fmt.Errorf("users: user %q: password_hash is not a bcrypt hash: %w", u.Username, err)
		}
		maxCost = max(maxCost, hashCost)
		users[u.Username] = u
	}
	return &Directory{users: users, cost: maxCost}, nil
}

func (s Seed) user(cost int) (auth.User, error) {
	if strings.TrimSpace(s.Username) == "" {
		return auth.User{}, errors.New("username is required")
	}
	role, err := auth.ParseRole(s.Role)
	if err != nil {
		return auth.User{}, fmt.Errorf("user %q: %w", s.Username, err)
	}

	hash := s.PasswordHash
	switch {
	case hash != "" && s.Password != "":
		return auth.User{}, fmt.Errorf("user %q: set password or password_hash, not both", s.Username)
	case hash == "":
		hash, err = auth.HashPasswordCost(s.Password, cost)
		if err != nil {
			return auth.User{}, fmt.Errorf("user %q: %w", s.Username, err)
		}
	}

	return auth.User{
		Username:              s.Username,
		PasswordHash:          hash,
		Authorities:           role.GrantedAuthorities(),
		Enabled:               !s.Disabled,
		AccountNonExpired:     !s.Expired,
		AccountNonLocked:      !s.Locked,
		CredentialsNonExpired: !s.CredentialsExpired,
	}, nil
}

// FindByUsername matches the username exactly.
func (d *Directory) FindByUsername(_ context.Context, username string) (auth.User, error) {
	u, ok := d.users[username]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	u.Authorities = append([]string(nil), u.Authorities...)
	return u, nil
}

// PasswordCost is the highest bcrypt cost among the stored hashes.
func (d *Directory) PasswordCost() int { return d.cost }

// Len reports the number of accounts.
func (d *Directory) Len() int { return len(d.users) }
