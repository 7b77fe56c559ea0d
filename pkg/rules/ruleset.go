package rules

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/gobwas/glob"
)

// RuleSet is an immutable, ordered collection of compiled rules. It is safe
// for concurrent use.
type RuleSet struct {
	rules         []compiledRule
	noExtension   string
	fallback      string
	unmatched     UnmatchedPolicy
	caseSensitive bool
}

// Option configures a RuleSet
type Option func(*RuleSet)

// WithNoExtension sets the destination for names without an extension
func WithNoExtension(destination string) Option {
	return func(rs *RuleSet) {
		rs.noExtension = destination
	}
}

// WithFallback sets the destination used for unmatched files and switches
// the unmatched policy to FallbackUnmatched
func WithFallback(destination string) Option {
	return func(rs *RuleSet) {
		rs.fallback = destination
		rs.unmatched = FallbackUnmatched
	}
}

// WithCaseSensitive overrides the platform default case sensitivity
func WithCaseSensitive(sensitive bool) Option {
	return func(rs *RuleSet) {
		rs.caseSensitive = sensitive
	}
}

// DefaultCaseSensitive reports whether the host's native filesystem is
// usually case sensitive
func DefaultCaseSensitive() bool {
	switch runtime.GOOS {
	case "darwin", "windows", "ios":
		return false
	default:
		return true
	}
}

// New compiles the rules in order. It fails with INVALID_CONFIG when a rule
// has no patterns, no destination, or a pattern that does not compile.
func New(rules []Rule, opts ...Option) (*RuleSet, error) {
	rs := &RuleSet{caseSensitive: DefaultCaseSensitive()}
	for _, opt := range opts {
		opt(rs)
	}

	if rs.unmatched == FallbackUnmatched && rs.fallback == "" {
		return nil, errors.New(errors.ErrInvalidConfig, "fallback policy requires a fallback destination")
	}

	for i, rule := range rules {
		if len(rule.Patterns) == 0 {
			return nil, errors.Newf(errors.ErrInvalidConfig, "rule %d has an empty pattern list", i).
				WithDetail("rule", i)
		}
		if strings.TrimSpace(rule.Destination) == "" {
			return nil, errors.Newf(errors.ErrInvalidConfig, "rule %d has no destination", i).
				WithDetail("rule", i)
		}

		compiled := compiledRule{rule: Rule{
			Patterns:    append([]string(nil), rule.Patterns...),
			Destination: rule.Destination,
		}}
		for _, raw := range rule.Patterns {
			p, err := rs.compile(raw)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrInvalidConfig, "rule %d: invalid pattern %q", i, raw).
					WithDetail("rule", i).
					WithDetail("pattern", raw)
			}
			compiled.patterns = append(compiled.patterns, p)
		}
		rs.rules = append(rs.rules, compiled)
	}

	return rs, nil
}

func (rs *RuleSet) compile(raw string) (pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return pattern{}, errors.New(errors.ErrInvalidInput, "empty pattern")
	}
	source := filepath.ToSlash(raw)
	if !rs.caseSensitive {
		source = strings.ToLower(source)
	}
	matcher, err := glob.Compile(source, '/')
	if err != nil {
		return pattern{}, err
	}
	return pattern{
		raw:      raw,
		matcher:  matcher,
		fullPath: strings.Contains(source, "/"),
	}, nil
}

// Classify returns the destination directory for name, which is either a
// bare file name or a path relative to the watched root. The first rule
// with a matching pattern wins. A name without an extension that no rule
// matched goes to the no-extension destination when one is configured.
// Otherwise the error carries NO_MATCHING_RULE.
func (rs *RuleSet) Classify(name string) (string, error) {
	rel := strings.TrimPrefix(filepath.ToSlash(name), "./")
	base := path.Base(rel)

	subjectPath, subjectBase := rel, base
	if !rs.caseSensitive {
		subjectPath = strings.ToLower(rel)
		subjectBase = strings.ToLower(base)
	}

	for _, rule := range rs.rules {
		for _, p := range rule.patterns {
			subject := subjectBase
			if p.fullPath {
				subject = subjectPath
			}
			if p.matcher.Match(subject) {
				return rule.rule.Destination, nil
			}
		}
	}

	if rs.noExtension != "" && !HasExtension(base) {
		return rs.noExtension, nil
	}

	return "", errors.Newf(errors.ErrNoMatchingRule, "no rule matches %s", name).
		WithDetail("name", name)
}

// Resolve classifies name and applies the unmatched policy
func (rs *RuleSet) Resolve(name string) (string, error) {
	dest, err := rs.Classify(name)
	if err == nil {
		return dest, nil
	}
	if rs.unmatched == FallbackUnmatched && errors.IsErrorCode(err, errors.ErrNoMatchingRule) {
		return rs.fallback, nil
	}
	return "", err
}

// Rules returns a copy of the configured rules in priority order
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = Rule{
			Patterns:    append([]string(nil), r.rule.Patterns...),
			Destination: r.rule.Destination,
		}
	}
	return out
}

// NoExtensionDestination returns the no-extension destination, or "" when unset
func (rs *RuleSet) NoExtensionDestination() string {
	return rs.noExtension
}

// Fallback returns the fallback destination, or "" when unset
func (rs *RuleSet) Fallback() string {
	return rs.fallback
}

// Unmatched returns the unmatched policy
func (rs *RuleSet) Unmatched() UnmatchedPolicy {
	return rs.unmatched
}

// CaseSensitive reports whether patterns are matched case sensitively
func (rs *RuleSet) CaseSensitive() bool {
	return rs.caseSensitive
}

// Destinations returns every destination directory the set can produce,
// in rule order, without duplicates
func (rs *RuleSet) Destinations() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(d string) {
		if d != "" && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, r := range rs.rules {
		add(r.rule.Destination)
	}
	add(rs.noExtension)
	add(rs.fallback)
	return out
}

// HasExtension reports whether the base name of name carries an extension.
// A name starting with a dot and containing no further dot has none.
func HasExtension(name string) bool {
	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndexByte(base, '.')
	return i > 0
}
