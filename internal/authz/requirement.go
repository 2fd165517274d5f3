package authz

import (
	"fmt"
	"strings"

	"academy.org/internal/auth"
)

type kind int

const (
	kindPermitAll kind = iota
	kindAuthenticated
	kindDenyAll
	kindHasRole
	kindHasAnyRole
	kindHasAuthority
	kindHasAnyAuthority
)

var kindNames = map[string]kind{
	"permitAll":       kindPermitAll,
	"authenticated":   kindAuthenticated,
	"denyAll":         kindDenyAll,
	"hasRole":         kindHasRole,
	"hasAnyRole":      kindHasAnyRole,
	"hasAuthority":    kindHasAuthority,
	"hasAnyAuthority": kindHasAnyAuthority,
}

// Requirement is a predicate over the request principal.
type Requirement struct {
	kind kind
	args []string
	text string
}

// PermitAll admits every request, with or without a principal.
func PermitAll() Requirement { return Requirement{kind: kindPermitAll, text: "permitAll"} }

// Authenticated admits any principal.
func Authenticated() Requirement {
	return Requirement{kind: kindAuthenticated, text: "authenticated"}
}

// DenyAll admits nothing.
func DenyAll() Requirement { return Requirement{kind: kindDenyAll, text: "denyAll"} }

// HasRole requires the role marker of r.
func HasRole(r auth.Role) Requirement {
	return Requirement{kind: kindHasRole, args: []string{string(r)}, text: "hasRole(" + string(r) + ")"}
}

// HasAnyRole requires the marker of at least one of roles.
func HasAnyRole(roles ...auth.Role) Requirement {
	args := make([]string, len(roles))
	for i, r := range roles {
		args[i] = string(r)
	}
	return Requirement{kind: kindHasAnyRole, args: args, text: "hasAnyRole(" + strings.Join(args, ",") + ")"}
}

// HasAuthority requires the exact permission string.
func HasAuthority(permission string) Requirement {
	return Requirement{kind: kindHasAuthority, args: []string{permission}, text: "hasAuthority(" + permission + ")"}
}

// HasAnyAuthority requires at least one of the permissions.
func HasAnyAuthority(permissions ...string) Requirement {
	args := append([]string(nil), permissions...)
	return Requirement{kind: kindHasAnyAuthority, args: args, text: "hasAnyAuthority(" + strings.Join(args, ",") + ")"}
}

// ParseRequirement reads the textual form used in policy files, e.g.
// "hasAnyRole(ADMIN,ADMINTRAINEE)". Role arguments must name a known role.
func ParseRequirement(s string) (Requirement, error) {
	s = strings.TrimSpace(s)
	name, rest, hasArgs := strings.Cut(s, "(")
	name = strings.TrimSpace(name)
	k, ok := kindNames[name]
	if !ok {
		return Requirement{}, fmt.Errorf("authz: unknown requirement %q", s)
	}

	var args []string
	if hasArgs {
		inner, found := strings.CutSuffix(strings.TrimSpace(rest), ")")
		if !found {
			return Requirement{}, fmt.Errorf("authz: unbalanced parentheses in %q", s)
		}
		for _, a := range strings.Split(inner, ",") {
			a = strings.Trim(strings.TrimSpace(a), `'"`)
			if a == "" {
				return Requirement{}, fmt.Errorf("authz: empty argument in %q", s)
			}
			args = append(args, a)
		}
	}

	switch k {
	case kindPermitAll:
		if len(args) == 0 {
			return PermitAll(), nil
		}
	case kindAuthenticated:
		if len(args) == 0 {
			return Authenticated(), nil
		}
	case kindDenyAll:
		if len(args) == 0 {
			return DenyAll(), nil
		}
	case kindHasRole, kindHasAnyRole:
		if len(args) == 0 || (k == kindHasRole && len(args) != 1) {
			break
		}
		roles := make([]auth.Role, len(args))
		for i, a := range args {
			r, err := auth.ParseRole(a)
			if err != nil {
				return Requirement{}, fmt.Errorf("authz: %q: %w", s, err)
			}
			roles[i] = r
		}
		if k == kindHasRole {
			return HasRole(roles[0]), nil
		}
		return HasAnyRole(roles...), nil
	case kindHasAuthority:
		if len(args) == 1 {
			return HasAuthority(args[0]), nil
		}
	case kindHasAnyAuthority:
		if len(args) > 0 {
			return HasAnyAuthority(args...), nil
		}
	}
	return Requirement{}, fmt.Errorf("authz: wrong number of arguments in %q", s)
}

// String returns the canonical textual form.
func (r Requirement) String() string { return r.text }

// SatisfiedBy reports whether an authenticated principal meets r.
func (r Requirement) SatisfiedBy(p auth.Principal) bool {
	switch r.kind {
	case kindPermitAll, kindAuthenticated:
		return true
	case kindHasRole, kindHasAnyRole:
		return p.HasAnyRole(r.args...)
	case kindHasAuthority, kindHasAnyAuthority:
		return p.HasAnyAuthority(r.args...)
	default:
		return false
	}
}

// Check decides a request. ok is false when the request carries no
// principal. The result is nil, auth.ErrUnauthenticated or auth.ErrForbidden.
func (r Requirement) Check(p auth.Principal, ok bool) error {
	if r.kind == kindPermitAll {
		return nil
	}
	if !ok {
		return auth.ErrUnauthenticated
	}
	if !r.SatisfiedBy(p) {
		return auth.ErrForbidden
	}
	return nil
}
