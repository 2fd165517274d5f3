package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks submitted credentials against a CredentialLookup
// and issues a token for the authenticated user.
type Authenticator struct {
	users  CredentialLookup
	tokens *TokenCodec
	now    func() time.Time

	// Unknown usernames are compared against dummyHash so they cost one
	// bcrypt comparison at dummyCost, like a known user.
	dummyCost int
	dummyHash []byte
}

// AuthenticatorOption configures Authenticator behavior.
type AuthenticatorOption func(*Authenticator)

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		if fn != nil {
			a.now = fn
		}
	}
}

// WithDummyCost sets the bcrypt cost of the hash unknown usernames are
// checked against. It overrides the cost reported by a PasswordCoster lookup.
func WithDummyCost(cost int) AuthenticatorOption {
	return func(a *Authenticator) {
		if cost > 0 {
			a.dummyCost = cost
		}
	}
}

// NewAuthenticator binds the authenticator to exactly one lookup and codec.
// The dummy hash cost defaults to the lookup's PasswordCost when it reports
// one, and to bcrypt.DefaultCost otherwise.
func NewAuthenticator(users CredentialLookup, tokens *TokenCodec, opts ...AuthenticatorOption) (*Authenticator, error) {
	if users == nil {
		return nil, errors.New("auth: credential lookup is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token codec is required")
	}
	a := &Authenticator{users: users, tokens: tokens, now: time.Now, dummyCost: bcrypt.DefaultCost}
	if pc, ok := users.(PasswordCoster); ok {
		if cost := pc.PasswordCost(); cost > 0 {
			a.dummyCost = cost
		}
	}
	for _, opt := range opts {
		opt(a)
	}
	hash, err := newDummyHash(a.dummyCost)
	if err != nil {
		return nil, fmt.Errorf("auth: dummy hash at cost %d: %w", a.dummyCost, err)
	}
	a.dummyHash = hash
	return a, nil
}

// IssuedToken is the result of a successful login.
type IssuedToken struct {
	Token       string
	Subject     string
	Authorities []string
	ExpiresAt   time.Time
}

// Authenticate resolves the user and verifies the password. Every failure,
// including a lookup error, wraps ErrAuthenticationFailed; the wrapped
// detail is meant for logs only.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	if creds.Username == "" || creds.Password == "" {
		return User{}, fmt.Errorf("%w: empty username or password", ErrAuthenticationFailed)
	}
	if len(creds.Password) > MaxPasswordBytes {
		return User{}, fmt.Errorf("%w: password longer than %d bytes", ErrAuthenticationFailed, MaxPasswordBytes)
	}
	user, err := a.users.FindByUsername(ctx, creds.Username)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(creds.Password))
		if errors.Is(err, ErrUserNotFound) {
			return User{}, fmt.Errorf("%w: unknown user", ErrAuthenticationFailed)
		}
		return User{}, fmt.Errorf("%w: lookup: %v", ErrAuthenticationFailed, err)
	}
	if err := VerifyPassword(user.PasswordHash, creds.Password); err != nil {
		return User{}, fmt.Errorf("%w: bad credentials", ErrAuthenticationFailed)
	}
	switch {
	case !user.Enabled:
		return User{}, fmt.Errorf("%w: account disabled", ErrAuthenticationFailed)
	case !user.AccountNonLocked:
		return User{}, fmt.Errorf("%w: account locked", ErrAuthenticationFailed)
	case !user.AccountNonExpired:
		return User{}, fmt.Errorf("%w: account expired", ErrAuthenticationFailed)
	case !user.CredentialsNonExpired:
		return User{}, fmt.Errorf("%w: credentials expired", ErrAuthenticationFailed)
	}
	return user, nil
}

// Login authenticates creds and issues exactly one token carrying the
// user's authorities.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) (IssuedToken, error) {
	user, err := a.Authenticate(ctx, creds)
	if err != nil {
		return IssuedToken{}, err
	}
	token, expiresAt, err := a.tokens.Issue(user.Username, user.Authorities, a.now())
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{
		Token:       token,
		Subject:     user.Username,
		Authorities: append([]string(nil), user.Authorities...),
		ExpiresAt:   expiresAt,
	}, nil
}

// VerifyToken verifies a bearer token against the current clock and builds
// the request principal from its claims. No lookup is made.
func (a *Authenticator) VerifyToken(token string) (Principal, error) {
	claims, err := a.tokens.Verify(token, a.now())
	if err != nil {
		return Principal{}, err
	}
	return NewPrincipal(claims.Subject, claims.Authorities), nil
}
