package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"academy.org/internal/config"
	"academy.org/internal/ids"
)

// Claims is the payload of an issued token.
type Claims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256-signed tokens with a single
// process-wide key. It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	key      []byte
	validity time.Duration
}

// NewTokenCodec builds a codec from the JWT settings. A missing or short key
// and a non-positive validity window are configuration errors.
func NewTokenCodec(cfg config.JWTConfig) (*TokenCodec, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("auth: signing key is not configured")
	}
	if n := len(cfg.SecretKey); n < config.MinSecretKeyBytes {
		return nil, fmt.Errorf("auth: signing key must be at least %d bytes, got %d", config.MinSecretKeyBytes, n)
	}
	if cfg.TokenExpirationInDays <= 0 {
		return nil, errors.New("auth: token validity must be at least one day")
	}
	return &TokenCodec{
		key:      []byte(cfg.SecretKey),
		validity: cfg.Validity(),
	}, nil
}

// Issue signs a token for username carrying authorities in the given order.
// Timestamps have second precision; the returned expiry is the exp claim.
func (c *TokenCodec) Issue(username string, authorities []string, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(username) == "" {
		return "", time.Time{}, errors.New("auth: token subject is required")
	}
	issuedAt := now.UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.validity)

	granted := make([]string, len(authorities))
	copy(granted, authorities)

	claims := Claims{
		Authorities: granted,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ids.NewAt(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks structure, signature and expiry, in that order, and returns
// the claims of a token that is valid at now. Failures wrap
// ErrMalformedToken, ErrBadSignature or ErrTokenExpired.
func (c *TokenCodec) Verify(token string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return Claims{}, classifyTokenError(err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, fmt.Errorf("%w: subject missing", ErrMalformedToken)
	}
	if claims.IssuedAt == nil {
		return Claims{}, fmt.Errorf("%w: issued-at missing", ErrMalformedToken)
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
