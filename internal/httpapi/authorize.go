package httpapi

import (
	"errors"
	"net/http"

	"academy.org/internal/auth"
	"academy.org/internal/authz"
	"academy.org/internal/obs"
)

// authorizePaths applies the ordered path rules before routing.
func (a *API) authorizePaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isLoginRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		p, ok := auth.PrincipalFromContext(r.Context())
		rule, err := a.rules.Authorize(r.Method, r.URL.Path, p, ok)
		a.metrics.AuthzDecision("path", decisionLabel(err))
		if err != nil {
			obs.Ctx(r.Context()).Debug().
				Str("rule", rule.String()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Err(err).
				Msg("path rule denied request")
			a.writeAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuthority guards a single operation regardless of the path rules.
func (a *API) requireAuthority(req authz.Requirement, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFromContext(r.Context())
		err := req.Check(p, ok)
		a.metrics.AuthzDecision("operation", decisionLabel(err))
		if err != nil {
			obs.Ctx(r.Context()).Debug().
				Str("requirement", req.String()).
				Err(err).
				Msg("operation requirement not met")
			a.writeAuthError(w, r, err)
			return
		}
		h(w, r)
	}
}

func decisionLabel(err error) string {
	switch {
	case err == nil:
		return "allow"
	case errors.Is(err, auth.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, auth.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
