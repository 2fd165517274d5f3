// Package authz decides whether a request may proceed, first by ordered path
// rules and then by the requirement each business operation declares.
package authz

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"academy.org/internal/auth"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// AnyMethod matches every HTTP method in a rule.
const AnyMethod = "*"

// Rule is one line of the path policy.
type Rule struct {
	Method      string
	Pattern     string
	Requirement Requirement
}

func (r Rule) String() string {
	return r.Method + " " + r.Pattern + " " + r.Requirement.String()
}

// Rules is the ordered path policy. It is read-only after loading.
type Rules struct {
	enforcer *casbin.SyncedEnforcer
	rules    []Rule
	index    map[[3]string]int
}

// LoadRules reads the policy at policyPath, or the built-in policy when
// policyPath is empty. Any syntax error or unknown role is returned.
func LoadRules(policyPath string) (*Rules, error) {
	if policyPath == "" {
		return ParseRules(strings.NewReader(embeddedPolicy))
	}
	f, err := os.Open(policyPath)
	if err != nil {
		return nil, fmt.Errorf("authz: open policy: %w", err)
	}
	defer f.Close()
	return ParseRules(f)
}

// ParseRules reads policy lines of the form
//
//	p, <method|*>, <pattern>, <requirement>
//
// Fields containing commas are double-quoted. Lines starting with # are
// ignored.
func ParseRules(r io.Reader) (*Rules, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("authz: load model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: create enforcer: %w", err)
	}
	enforcer.AddFunction("antMatch", antMatchFunc)

	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rs := &Rules{enforcer: enforcer, index: make(map[[3]string]int)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("authz: read policy: %w", err)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}
		line, _ := reader.FieldPos(0)
		if record[0] != "p" || len(record) != 4 {
			return nil, fmt.Errorf("authz: policy line %d: want \"p, method, pattern, requirement\"", line)
		}
		rule, err := newRule(record[1], record[2], record[3])
		if err != nil {
			return nil, fmt.Errorf("authz: policy line %d: %w", line, err)
		}
		if err := rs.add(rule); err != nil {
			return nil, fmt.Errorf("authz: policy line %d: %w", line, err)
		}
	}
	if len(rs.rules) == 0 {
		return nil, errors.New("authz: policy has no rules")
	}
	return rs, nil
}

func newRule(method, pattern, requirement string) (Rule, error) {
	method = strings.ToUpper(method)
	if method == "" {
		return Rule{}, errors.New("method is empty")
	}
	if !strings.HasPrefix(pattern, "/") {
		return Rule{}, fmt.Errorf("pattern %q must start with /", pattern)
	}
	if !doublestar.ValidatePattern(pattern) {
		return Rule{}, fmt.Errorf("invalid pattern %q", pattern)
	}
	req, err := ParseRequirement(requirement)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Method: method, Pattern: pattern, Requirement: req}, nil
}

func (rs *Rules) add(rule Rule) error {
	key := [3]string{rule.Method, rule.Pattern, rule.Requirement.String()}
	if _, dup := rs.index[key]; dup {
		return fmt.Errorf("duplicate rule %q", rule)
	}
	if _, err := rs.enforcer.AddPolicy(key[0], key[1], key[2]); err != nil {
		return fmt.Errorf("add rule %q: %w", rule, err)
	}
	rs.index[key] = len(rs.rules)
	rs.rules = append(rs.rules, rule)
	return nil
}

// Rules returns the loaded rules in evaluation order.
func (rs *Rules) Rules() []Rule {
	return append([]Rule(nil), rs.rules...)
}

// Match returns the first rule matching method and the cleaned request path.
func (rs *Rules) Match(method, requestPath string) (Rule, bool, error) {
	ok, explain, err := rs.enforcer.EnforceEx(strings.ToUpper(method), cleanPath(requestPath))
	if err != nil {
		return Rule{}, false, fmt.Errorf("authz: enforce: %w", err)
	}
	if !ok || len(explain) != 3 {
		return Rule{}, false, nil
	}
	i, found := rs.index[[3]string{explain[0], explain[1], explain[2]}]
	if !found {
		return Rule{}, false, fmt.Errorf("authz: enforcer returned unknown rule %v", explain)
	}
	return rs.rules[i], true, nil
}

// Authorize applies the first matching rule to the principal. A request no
// rule matches is denied.
func (rs *Rules) Authorize(method, requestPath string, p auth.Principal, authenticated bool) (Rule, error) {
	rule, found, err := rs.Match(method, requestPath)
	if err != nil {
		return Rule{}, err
	}
	if !found {
		return Rule{}, DenyAll().Check(p, authenticated)
	}
	return rule, rule.Requirement.Check(p, authenticated)
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func antMatchFunc(args ...any) (any, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("antMatch: want 2 arguments, got %d", len(args))
	}
	name, ok1 := args[0].(string)
	pattern, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return false, errors.New("antMatch: arguments must be strings")
	}
	return antMatch(name, pattern), nil
}

// antMatch matches a request path against a pattern where * spans one path
// segment and ** any number of segments. "/x/**" also matches "/x".
func antMatch(name, pattern string) bool {
	if pattern == "/**" {
		return true
	}
	if base, ok := strings.CutSuffix(pattern, "/**"); ok && name == base {
		return true
	}
	matched, err := doublestar.Match(pattern, name)
	return err == nil && matched
}
