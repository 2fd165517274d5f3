package auth

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedCredentials         = errors.New("auth: malformed credentials")
	ErrAuthenticationFailed         = errors.New("auth: authentication failed")
	ErrMalformedAuthorizationHeader = errors.New("auth: malformed authorization header")
	ErrInvalidToken                 = errors.New("auth: invalid token")
	ErrUnauthenticated              = errors.New("auth: unauthenticated")
	ErrForbidden                    = errors.New("auth: forbidden")
	ErrUnknownRole                  = errors.New("auth: unknown role")
	ErrUserNotFound                 = errors.New("auth: user not found")
)

// Token verification failures. All of them match ErrInvalidToken, which is
// the only kind that may reach a client.
var (
	ErrMalformedToken = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrBadSignature   = fmt.Errorf("%w: bad signature", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
)
