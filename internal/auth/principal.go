package auth

import "strings"

// Principal is the authenticated identity of one request.
// It is immutable once built.
type Principal struct {
	subject     string
	authorities []string
	set         map[string]struct{}
}

// NewPrincipal constructs a principal with the given authorities, keeping
// their order and dropping duplicates.
func NewPrincipal(subject string, authorities []string) Principal {
	set := make(map[string]struct{}, len(authorities))
	ordered := make([]string, 0, len(authorities))
	for _, a := range authorities {
		if a == "" {
			continue
		}
		if _, ok := set[a]; ok {
			continue
		}
		set[a] = struct{}{}
		ordered = append(ordered, a)
	}
	return Principal{subject: subject, authorities: ordered, set: set}
}

// Subject is the username the principal was authenticated as.
func (p Principal) Subject() string { return p.subject }

// Authorities returns a copy of the granted authorities.
func (p Principal) Authorities() []string {
	out := make([]string, len(p.authorities))
	copy(out, p.authorities)
	return out
}

// HasAuthority reports whether the exact authority string was granted.
func (p Principal) HasAuthority(authority string) bool {
	_, ok := p.set[authority]
	return ok
}

// HasAnyAuthority reports whether any of the authorities was granted.
func (p Principal) HasAnyAuthority(authorities ...string) bool {
	for _, a := range authorities {
		if p.HasAuthority(a) {
			return true
		}
	}
	return false
}

// HasRole checks the role marker authority, adding ROLE_ when missing.
func (p Principal) HasRole(role string) bool {
	if !strings.HasPrefix(role, RolePrefix) {
		role = RolePrefix + role
	}
	return p.HasAuthority(role)
}

// HasAnyRole reports whether any of the roles is held.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
