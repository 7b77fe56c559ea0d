// Test Type: Unit Test
// Description: Tests for the rules package - ordered glob classification

package rules_test

import (
	"testing"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRuleSet(t *testing.T, ruleList []rules.Rule, opts ...rules.Option) *rules.RuleSet {
	t.Helper()
	rs, err := rules.New(ruleList, opts...)
	require.NoError(t, err)
	return rs
}

func TestRuleSet_Classify(t *testing.T) {
	rs := mustRuleSet(t, []rules.Rule{
		{Patterns: []string{"*.pdf", "*.docx"}, Destination: "/docs"},
		{Patterns: []string{"*.jpg"}, Destination: "/images"},
		{Patterns: []string{"IMG_[0-9]*"}, Destination: "/camera"},
		{Patterns: []string{"*.{mp3,flac}"}, Destination: "/music"},
		{Patterns: []string{"report-??.txt"}, Destination: "/reports"},
		{Patterns: []string{"invoices/**/*.csv"}, Destination: "/accounting"},
	}, rules.WithCaseSensitive(true))

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"first_pattern_of_rule", "report.pdf", "/docs"},
		{"second_pattern_of_rule", "letter.docx", "/docs"},
		{"second_rule", "photo.jpg", "/images"},
		{"character_class", "IMG_2024", "/camera"},
		{"alternation", "song.flac", "/music"},
		{"question_mark", "report-01.txt", "/reports"},
		{"relative_path_uses_base_name", "nested/dir/photo.jpg", "/images"},
		{"full_path_pattern", "invoices/2024/q1/march.csv", "/accounting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest, err := rs.Classify(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dest)
		})
	}

	t.Run("star_does_not_cross_separator", func(t *testing.T) {
		_, err := rs.Classify("report-01/x.txt")
		assert.True(t, errors.IsErrorCode(err, errors.ErrNoMatchingRule))
	})

	t.Run("full_path_pattern_does_not_match_elsewhere", func(t *testing.T) {
		_, err := rs.Classify("other/march.csv")
		assert.True(t, errors.IsErrorCode(err, errors.ErrNoMatchingRule))
	})
}

func TestRuleSet_OrderDeterminesPrecedence(t *testing.T) {
	rs := mustRuleSet(t, []rules.Rule{
		{Patterns: []string{"report.*"}, Destination: "/first"},
		{Patterns: []string{"*.pdf"}, Destination: "/second"},
	})

	dest, err := rs.Classify("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/first", dest)

	reversed := mustRuleSet(t, []rules.Rule{
		{Patterns: []string{"*.pdf"}, Destination: "/second"},
		{Patterns: []string{"report.*"}, Destination: "/first"},
	})
	dest, err = reversed.Classify("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/second", dest)
}

func TestRuleSet_IsDeterministic(t *testing.T) {
	rs := mustRuleSet(t, []rules.Rule{
		{Patterns: []string{"*.pdf"}, Destination: "/docs"},
		{Patterns: []string{"*"}, Destination: "/all"},
	})

	for _, name := range []string{"a.pdf", "b.txt", "Makefile", ".hidden"} {
		first, firstErr := rs.Classify(name)
		for i := 0; i < 50; i++ {
			again, err := rs.Classify(name)
			assert.Equal(t, first, again)
			assert.Equal(t, firstErr, err)
		}
	}
}

func TestRuleSet_NoExtension(t *testing.T) {
	ruleList := []rules.Rule{{Patterns: []string{"*.pdf"}, Destination: "/docs"}}

	t.Run("falls_through_to_no_extension_rule", func(t *testing.T) {
		rs := mustRuleSet(t, ruleList, rules.WithNoExtension("/misc"))
		for _, name := range []string{"Makefile", ".bashrc", "sub/LICENSE"} {
			dest, err := rs.Classify(name)
			require.NoError(t, err, name)
			assert.Equal(t, "/misc", dest, name)
		}
	})

	t.Run("ordinary_rule_still_wins", func(t *testing.T) {
		rs := mustRuleSet(t, []rules.Rule{{Patterns: []string{"Makefile"}, Destination: "/build"}},
			rules.WithNoExtension("/misc"))
		dest, err := rs.Classify("Makefile")
		require.NoError(t, err)
		assert.Equal(t, "/build", dest)
	})

	t.Run("names_with_extension_do_not_use_it", func(t *testing.T) {
		rs := mustRuleSet(t, ruleList, rules.WithNoExtension("/misc"))
		_, err := rs.Classify("notes.txt")
		assert.True(t, errors.IsErrorCode(err, errors.ErrNoMatchingRule))
	})

	t.Run("without_rule_yields_no_match", func(t *testing.T) {
		rs := mustRuleSet(t, ruleList)
		_, err := rs.Classify("Makefile")
		assert.True(t, errors.IsErrorCode(err, errors.ErrNoMatchingRule))
	})
}

func TestRuleSet_Resolve(t *testing.T) {
	ruleList := []rules.Rule{{Patterns: []string{"*.pdf"}, Destination: "/docs"}}

	leave := mustRuleSet(t, ruleList)
	_, err := leave.Resolve("a.txt")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNoMatchingRule))
	assert.Equal(t, rules.LeaveUnmatched, leave.Unmatched())

	fallback := mustRuleSet(t, ruleList, rules.WithFallback("/inbox"))
	dest, err := fallback.Resolve("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "/inbox", dest)

	dest, err = fallback.Resolve("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/docs", dest)
}

func TestRuleSet_CaseSensitivity(t *testing.T) {
	ruleList := []rules.Rule{{Patterns: []string{"*.JPG", "[A-C]*.txt"}, Destination: "/images"}}

	sensitive := mustRuleSet(t, ruleList, rules.WithCaseSensitive(true))
	_, err := sensitive.Classify("photo.jpg")
	assert.Error(t, err)
	_, err = sensitive.Classify("apple.txt")
	assert.Error(t, err)

	insensitive := mustRuleSet(t, ruleList, rules.WithCaseSensitive(false))
	dest, err := insensitive.Classify("photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/images", dest)
	_, err = insensitive.Classify("apple.txt")
	assert.NoError(t, err)
	assert.False(t, insensitive.CaseSensitive())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		rules []rules.Rule
		opts  []rules.Option
	}{
		{"empty_patterns", []rules.Rule{{Destination: "/docs"}}, nil},
		{"empty_destination", []rules.Rule{{Patterns: []string{"*.pdf"}}}, nil},
		{"blank_pattern", []rules.Rule{{Patterns: []string{" "}, Destination: "/docs"}}, nil},
		{"unclosed_class", []rules.Rule{{Patterns: []string{"[abc"}, Destination: "/docs"}}, nil},
		{"fallback_without_destination", nil, []rules.Option{rules.WithFallback("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.New(tt.rules, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestRuleSet_Accessors(t *testing.T) {
	rs := mustRuleSet(t, []rules.Rule{
		{Patterns: []string{"*.pdf"}, Destination: "/docs"},
		{Patterns: []string{"*.doc"}, Destination: "/docs"},
	}, rules.WithNoExtension("/misc"), rules.WithFallback("/inbox"))

	assert.Len(t, rs.Rules(), 2)
	assert.Equal(t, "/misc", rs.NoExtensionDestination())
	assert.Equal(t, "/inbox", rs.Fallback())
	assert.Equal(t, []string{"/docs", "/misc", "/inbox"}, rs.Destinations())

	// Mutating the copy must not affect the set
	copied := rs.Rules()
	copied[0].Patterns[0] = "*.exe"
	dest, err := rs.Classify("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/docs", dest)
}

func TestHasExtension(t *testing.T) {
	tests := map[string]bool{
		"report.pdf":    true,
		"archive.tar.gz": true,
		"Makefile":      false,
		".bashrc":       false,
		".config.toml":  true,
		"dir.d/README":  false,
		`dir\file.txt`:  true,
	}
	for name, want := range tests {
		assert.Equal(t, want, rules.HasExtension(name), name)
	}
}

func TestParseUnmatchedPolicy(t *testing.T) {
	p, ok := rules.ParseUnmatchedPolicy("fallback")
	assert.True(t, ok)
	assert.Equal(t, rules.FallbackUnmatched, p)

	p, ok = rules.ParseUnmatchedPolicy("")
	assert.True(t, ok)
	assert.Equal(t, rules.LeaveUnmatched, p)

	_, ok = rules.ParseUnmatchedPolicy("delete")
	assert.False(t, ok)
}
