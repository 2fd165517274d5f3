// Package config loads the immutable process configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables prefixed with ACADEMY_. The loaded Config is passed
// by value to every component that needs it; there is no package-level
// instance.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// AuthorizationHeader is the only header tokens are read from and written to.
const AuthorizationHeader = "Authorization"

// MinSecretKeyBytes is the smallest HS256 key accepted.
const MinSecretKeyBytes = 32

// User directory sources.
const (
	UsersSourceMemory = "memory"
	UsersSourceFile   = "file"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	JWT    JWTConfig    `koanf:"jwt"`
	Auth   AuthConfig   `koanf:"auth"`
	Users  UsersConfig  `koanf:"users"`
	Authz  AuthzConfig  `koanf:"authz"`
	Log    LogConfig    `koanf:"log"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" validate:"gt=0"`

	// RateLimitRequests per RateLimitWindow per client IP, across all
	// routes. Zero disables the limit.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// JWTConfig carries the token settings. SecretKey is used verbatim as the
// HMAC key.
type JWTConfig struct {
	SecretKey             string `koanf:"secret_key" validate:"required"`
	TokenPrefix           string `koanf:"token_prefix" validate:"required"`
	TokenExpirationInDays int    `koanf:"token_expiration_in_days" validate:"gte=1"`
}

// HeaderName reports the header carrying the token. It is not configurable.
func (c JWTConfig) HeaderName() string { return AuthorizationHeader }

// HeaderValue renders the header value for an issued token.
func (c JWTConfig) HeaderValue(token string) string {
	return c.TokenPrefix + " " + token
}

// Validity is the lifetime of an issued token.
func (c JWTConfig) Validity() time.Duration {
	return time.Duration(c.TokenExpirationInDays) * 24 * time.Hour
}

type AuthConfig struct {
	LoginPath       string  `koanf:"login_path" validate:"required,startswith=/"`
	LoginRatePerSec float64 `koanf:"login_rate_per_sec" validate:"gt=0"`
	LoginBurst      int     `koanf:"login_burst" validate:"gte=1"`
}

type UsersConfig struct {
	Source     string `koanf:"source" validate:"oneof=memory file"`
	File       string `koanf:"file" validate:"required_if=Source file"`
	BcryptCost int    `koanf:"bcrypt_cost" validate:"gte=4,lte=31"`
}

type AuthzConfig struct {
	// PolicyPath overrides the embedded path-rule policy when set.
	PolicyPath string `koanf:"policy_path"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the built-in configuration. The signing key is left empty
// on purpose: a deployment has to supply one.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,

			RateLimitRequests:  300,
			RateLimitWindow:    time.Minute,
			CORSAllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		JWT: JWTConfig{
			TokenPrefix:           "Bearer",
			TokenExpirationInDays: 14,
		},
		Auth: AuthConfig{
			LoginPath:       "/login",
			LoginRatePerSec: 5,
			LoginBurst:      10,
		},
		Users: UsersConfig{
			Source:     UsersSourceMemory,
			BcryptCost: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var validate = validator.New()

// Validate reports the first set of invalid fields, including a signing key
// that is too short for HS256.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid fields: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config: %w", err)
	}
	if strings.ContainsAny(c.JWT.TokenPrefix, " \t") {
		return fmt.Errorf("config: jwt.token_prefix must not contain whitespace")
	}
	if n := len(c.JWT.SecretKey); n < MinSecretKeyBytes {
		return fmt.Errorf("config: jwt.secret_key must be at least %d bytes, got %d", MinSecretKeyBytes, n)
	}
	return nil
}
