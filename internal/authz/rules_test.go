package authz

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"academy.org/internal/auth"
)

func loadDefaultRules(t *testing.T) *Rules {
	t.Helper()
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	return rules
}

func principalFor(role auth.Role) auth.Principal {
	return auth.NewPrincipal(strings.ToLower(string(role))+"1", role.GrantedAuthorities())
}

func TestDefaultPolicyOrder(t *testing.T) {
	rules := loadDefaultRules(t).Rules()
	if len(rules) != 12 {
		t.Fatalf("expected 12 rules, got %d", len(rules))
	}
	if first := rules[0]; first.Pattern != "/" || first.Requirement.String() != "permitAll" {
		t.Fatalf("unexpected first rule %s", first)
	}
	if last := rules[len(rules)-1]; last.Pattern != "/**" || last.Requirement.String() != "authenticated" {
		t.Fatalf("unexpected last rule %s", last)
	}
}

func TestDefaultPolicyDecisions(t *testing.T) {
	rules := loadDefaultRules(t)

	none := auth.Principal{}
	student := principalFor(auth.RoleStudent)
	admin := principalFor(auth.RoleAdmin)
	trainee := principalFor(auth.RoleAdminTrainee)

	type who struct {
		p  auth.Principal
		ok bool
	}
	anon := who{none, false}

	cases := []struct {
		name   string
		method string
		path   string
		who    who
		want   error
	}{
		{"root is public", "GET", "/", anon, nil},
		{"index is public", "GET", "/index", anon, nil},
		{"css is public", "GET", "/css/site.css", anon, nil},
		{"js is public", "GET", "/js/app.js", anon, nil},
		{"css does not span segments", "GET", "/css/a/b.css", anon, auth.ErrUnauthenticated},
		{"healthz is public", "GET", "/healthz", anon, nil},
		{"login path has no rule of its own", "POST", "/login", anon, auth.ErrUnauthenticated},
		{"student api needs principal", "GET", "/api/v1/students/1", anon, auth.ErrUnauthenticated},
		{"student api for student", "GET", "/api/v1/students/1", who{student, true}, nil},
		{"student api refuses admin", "GET", "/api/v1/students/1", who{admin, true}, auth.ErrForbidden},
		{"management list for admin", "GET", "/management/api/v1/students", who{admin, true}, nil},
		{"management list for trainee", "GET", "/management/api/v1/students", who{trainee, true}, nil},
		{"management list refuses student", "GET", "/management/api/v1/students", who{student, true}, auth.ErrForbidden},
		{"management write for admin", "POST", "/management/api/v1/students", who{admin, true}, nil},
		{"management write refuses trainee", "PUT", "/management/api/v1/students/1", who{trainee, true}, auth.ErrForbidden},
		{"management delete refuses student", "DELETE", "/management/api/v1/students/1", who{student, true}, auth.ErrForbidden},
		{"management base path", "GET", "/management/api", who{student, true}, auth.ErrForbidden},
		{"patch falls to catch-all", "PATCH", "/management/api/v1/students/1", who{student, true}, nil},
		{"catch-all needs principal", "GET", "/courses", anon, auth.ErrUnauthenticated},
		{"catch-all admits any principal", "GET", "/courses", who{student, true}, nil},
		{"dot segments are cleaned", "GET", "/css/../management/api/v1/students", who{student, true}, auth.ErrForbidden},
		{"method is case-insensitive", "delete", "/management/api/v1/students/2", who{admin, true}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rules.Authorize(tc.method, tc.path, tc.who.p, tc.who.ok)
			if !errors.Is(err, tc.want) || (tc.want == nil && err != nil) {
				t.Fatalf("Authorize(%s %s) = %v, want %v", tc.method, tc.path, err, tc.want)
			}
		})
	}
}

func TestFirstMatchWins(t *testing.T) {
	policy := "p, *, /reports/**, denyAll\n" +
		"p, GET, /reports/public, permitAll\n" +
		"p, *, /**, permitAll\n"
	rules, err := ParseRules(strings.NewReader(policy))
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	rule, err := rules.Authorize("GET", "/reports/public", auth.Principal{}, false)
	if !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected earlier denyAll to win, got %v", err)
	}
	if rule.Pattern != "/reports/**" {
		t.Fatalf("unexpected matching rule %s", rule)
	}

	admin := principalFor(auth.RoleAdmin)
	if _, err := rules.Authorize("GET", "/reports/public", admin, true); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("denyAll with principal must be forbidden, got %v", err)
	}
}

func TestUnmatchedRequestIsDenied(t *testing.T) {
	rules, err := ParseRules(strings.NewReader("p, GET, /only, permitAll\n"))
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if _, found, _ := rules.Match("GET", "/other"); found {
		t.Fatalf("unexpected match")
	}
	if _, err := rules.Authorize("GET", "/other", auth.Principal{}, false); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	student := principalFor(auth.RoleStudent)
	if _, err := rules.Authorize("GET", "/other", student, true); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestParseRulesRejectsBadPolicy(t *testing.T) {
	cases := map[string]string{
		"unknown role":        "p, *, /x, hasRole(ROOT)\n",
		"unknown requirement": "p, *, /x, isCool\n",
		"relative pattern":    "p, *, x/**, permitAll\n",
		"wrong field count":   "p, *, /x\n",
		"wrong type":          "g, alice, admin, x\n",
		"unquoted comma":      "p, GET, /x, hasAnyRole(ADMIN,STUDENT)\n",
		"empty":               "# nothing here\n",
		"duplicate":           "p, *, /x, permitAll\np, *, /x, permitAll\n",
	}
	for name, policy := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRules(strings.NewReader(policy)); err == nil {
				t.Fatalf("expected error for %q", policy)
			}
		})
	}
}

func TestParseRulesUnknownRoleIsErrUnknownRole(t *testing.T) {
	_, err := ParseRules(strings.NewReader(`p, GET, /x, "hasAnyRole(ADMIN,ROOT)"` + "\n"))
	if !errors.Is(err, auth.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestLoadRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	policy := "# custom\np, GET, /open, permitAll\np, *, /**, \"hasAnyAuthority(course:read,course:write)\"\n"
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	trainee := principalFor(auth.RoleAdminTrainee)
	if _, err := rules.Authorize("GET", "/courses/1", trainee, true); err != nil {
		t.Fatalf("trainee holds course:read: %v", err)
	}
	student := principalFor(auth.RoleStudent)
	if _, err := rules.Authorize("GET", "/courses/1", student, true); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestAntMatch(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"/**", "/", true},
		{"/**", "/a/b/c", true},
		{"/api/**", "/api", true},
		{"/api/**", "/api/v1/students/1", true},
		{"/api/**", "/apix", false},
		{"/css/*", "/css/a.css", true},
		{"/css/*", "/css/a/b.css", false},
		{"/", "/", true},
		{"/", "/index", false},
	}
	for _, tc := range cases {
		if got := antMatch(tc.name, tc.pattern); got != tc.want {
			t.Fatalf("antMatch(%q, %q) = %v, want %v", tc.name, tc.pattern, got, tc.want)
		}
	}
}
