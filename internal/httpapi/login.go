package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"academy.org/internal/audit"
	"academy.org/internal/auth"
	"academy.org/internal/obs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type loginRequest struct {
	Username string `json:"username" validate:"required,max=256"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.loginFailed(w, r, "malformed", "", fmt.Errorf("%w: %v", auth.ErrMalformedCredentials, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		a.loginFailed(w, r, "malformed", req.Username, fmt.Errorf("%w: %v", auth.ErrMalformedCredentials, err))
		return
	}
	// Counted in bytes; a validator max tag would count runes.
	if len(req.Password) > auth.MaxPasswordBytes {
		a.loginFailed(w, r, "malformed", req.Username, fmt.Errorf("%w: password longer than %d bytes", auth.ErrMalformedCredentials, auth.MaxPasswordBytes))
		return
	}

	issued, err := a.authn.Login(r.Context(), auth.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		result := "failure"
		if !errors.Is(err, auth.ErrAuthenticationFailed) {
			result = "error"
		}
		a.loginFailed(w, r, result, req.Username, err)
		return
	}

	a.metrics.LoginAttempt("success")
	_ = audit.LogEvent(r.Context(), audit.EventLoginSucceeded, map[string]any{
		"username":    issued.Subject,
		"authorities": issued.Authorities,
		"expires_at":  issued.ExpiresAt.Format(time.RFC3339),
	})

	w.Header().Set(a.jwt.HeaderName(), a.jwt.HeaderValue(issued.Token))
	writeJSON(w, http.StatusOK, loginResponse{
		TokenType: a.jwt.TokenPrefix,
		ExpiresAt: issued.ExpiresAt,
	})
}

func (a *API) loginFailed(w http.ResponseWriter, r *http.Request, result, username string, err error) {
	a.metrics.LoginAttempt(result)
	obs.Ctx(r.Context()).Debug().Err(err).Str("result", result).Msg("login rejected")
	_ = audit.LogEvent(r.Context(), audit.EventLoginFailed, map[string]any{
		"username": username,
		"result":   result,
	})
	a.writeAuthError(w, r, err)
}

func (a *API) onLoginRateLimited(r *http.Request) {
	a.metrics.LoginAttempt("rate_limited")
	_ = audit.LogEvent(r.Context(), audit.EventLoginFailed, map[string]any{
		"result": "rate_limited",
		"ip":     clientIP(r),
	})
}
