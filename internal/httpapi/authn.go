package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"academy.org/internal/audit"
	"academy.org/internal/auth"
	"academy.org/internal/config"
	"academy.org/internal/obs"
)

func (a *API) isLoginRequest(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == a.loginPath
}

// verifyToken establishes the principal from the bearer token. Requests
// without an Authorization header pass through anonymously; the login
// request is left to the login handler.
func (a *API) verifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isLoginRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		values := r.Header.Values(config.AuthorizationHeader)
		if len(values) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		if len(values) > 1 {
			a.metrics.TokenVerification("bad_header")
			a.writeAuthError(w, r, auth.ErrMalformedAuthorizationHeader)
			return
		}

		token, err := extractToken(values[0], a.jwt.TokenPrefix)
		if err != nil {
			a.metrics.TokenVerification("bad_header")
			a.writeAuthError(w, r, err)
			return
		}

		principal, err := a.authn.VerifyToken(token)
		if err != nil {
			result := verificationResult(err)
			a.metrics.TokenVerification(result)
			obs.Ctx(r.Context()).Debug().Err(err).Str("result", result).Msg("token rejected")
			a.writeAuthError(w, r, auth.ErrInvalidToken)
			return
		}
		a.metrics.TokenVerification("valid")

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken splits "<prefix> <token>". The prefix is matched without
// regard to case.
func extractToken(header, prefix string) (string, error) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, prefix) {
		return "", auth.ErrMalformedAuthorizationHeader
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", auth.ErrMalformedAuthorizationHeader
	}
	return token, nil
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrBadSignature):
		return "bad_signature"
	default:
		return "malformed"
	}
}

// writeAuthError maps authentication and authorization failures to
// responses. Only the generic kind reaches the client.
func (a *API) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	challenge := func() {
		w.Header().Set("WWW-Authenticate", a.jwt.TokenPrefix)
	}
	switch {
	case errors.Is(err, auth.ErrMalformedCredentials):
		writeError(w, r, http.StatusBadRequest, "malformed credentials")
	case errors.Is(err, auth.ErrAuthenticationFailed):
		challenge()
		writeError(w, r, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, auth.ErrMalformedAuthorizationHeader):
		challenge()
		writeError(w, r, http.StatusUnauthorized, "malformed authorization header")
	case errors.Is(err, auth.ErrInvalidToken):
		challenge()
		writeError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrUnauthenticated):
		challenge()
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrForbidden):
		_ = audit.LogEvent(r.Context(), audit.EventAccessDenied, map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		writeError(w, r, http.StatusForbidden, "access denied")
	default:
		obs.Ctx(r.Context()).Error().Err(err).Msg("authorization error")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
