package rules

import "github.com/gobwas/glob"

// Rule maps a set of glob patterns to a destination directory
type Rule struct {
	Patterns    []string
	Destination string
}

// UnmatchedPolicy decides what happens to a file no rule matches
type UnmatchedPolicy int

const (
	// LeaveUnmatched keeps the file where it is
	LeaveUnmatched UnmatchedPolicy = iota
	// FallbackUnmatched moves the file to the fallback destination
	FallbackUnmatched
)

// ParseUnmatchedPolicy parses the configuration spelling of a policy
func ParseUnmatchedPolicy(s string) (UnmatchedPolicy, bool) {
	switch s {
	case "", "leave":
		return LeaveUnmatched, true
	case "fallback":
		return FallbackUnmatched, true
	default:
		return LeaveUnmatched, false
	}
}

func (p UnmatchedPolicy) String() string {
	if p == FallbackUnmatched {
		return "fallback"
	}
	return "leave"
}

// pattern is a compiled glob
type pattern struct {
	raw      string
	matcher  glob.Glob
	fullPath bool // pattern contains a separator and matches the relative path
}

type compiledRule struct {
	rule     Rule
	patterns []pattern
}
