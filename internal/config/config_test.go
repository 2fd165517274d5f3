package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaultsWithSecretFromEnv(t *testing.T) {
	t.Setenv("ACADEMY_JWT__SECRET_KEY", testSecret)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing-is-not-used.yaml"))
	if err == nil {
		t.Fatalf("expected error for explicit missing file, got config %+v", cfg)
	}

	t.Chdir(t.TempDir())
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.SecretKey != testSecret {
		t.Fatalf("secret not taken from env")
	}
	if cfg.JWT.TokenPrefix != "Bearer" {
		t.Fatalf("unexpected prefix %q", cfg.JWT.TokenPrefix)
	}
	if cfg.JWT.Validity() != 14*24*time.Hour {
		t.Fatalf("unexpected validity %v", cfg.JWT.Validity())
	}
	if cfg.Auth.LoginPath != "/login" {
		t.Fatalf("unexpected login path %q", cfg.Auth.LoginPath)
	}
	if cfg.Users.Source != UsersSourceMemory {
		t.Fatalf("unexpected users source %q", cfg.Users.Source)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9090"
  read_timeout: 5s
jwt:
  secret_key: "` + testSecret + `"
  token_prefix: Token
  token_expiration_in_days: 3
users:
  source: file
  file: /tmp/users.yaml
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ACADEMY_JWT__TOKEN_EXPIRATION_IN_DAYS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("server section not loaded: %+v", cfg.Server)
	}
	if cfg.JWT.TokenPrefix != "Token" {
		t.Fatalf("prefix not loaded: %q", cfg.JWT.TokenPrefix)
	}
	if cfg.JWT.TokenExpirationInDays != 7 {
		t.Fatalf("env override not applied: %d", cfg.JWT.TokenExpirationInDays)
	}
	if cfg.Users.Source != UsersSourceFile || cfg.Users.File != "/tmp/users.yaml" {
		t.Fatalf("users section not loaded: %+v", cfg.Users)
	}
	if got := cfg.JWT.HeaderValue("abc"); got != "Token abc" {
		t.Fatalf("unexpected header value %q", got)
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.JWT.SecretKey = testSecret

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.JWT.SecretKey = "" }, "SecretKey"},
		{"short secret", func(c *Config) { c.JWT.SecretKey = "short" }, "at least 32 bytes"},
		{"zero validity", func(c *Config) { c.JWT.TokenExpirationInDays = 0 }, "TokenExpirationInDays"},
		{"prefix with space", func(c *Config) { c.JWT.TokenPrefix = "Bearer " }, "whitespace"},
		{"unknown source", func(c *Config) { c.Users.Source = "ldap" }, "Source"},
		{"file source without path", func(c *Config) { c.Users.Source = UsersSourceFile }, "File"},
		{"relative login path", func(c *Config) { c.Auth.LoginPath = "login" }, "LoginPath"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
