package ui

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/rocas/pkg/rules"
	"github.com/charmbracelet/glamour"
)

// RulesMarkdown describes a rule set as a markdown table
func RulesMarkdown(rs *rules.RuleSet, home string) string {
	var b strings.Builder
	b.WriteString("# Rules\n\n")

	sensitivity := "case-insensitive"
	if rs.CaseSensitive() {
		sensitivity = "case-sensitive"
	}
	fmt.Fprintf(&b, "First matching rule wins, matching is %s.\n\n", sensitivity)

	b.WriteString("| # | Patterns | Destination |\n")
	b.WriteString("|---|----------|-------------|\n")
	for i, rule := range rs.Rules() {
		patterns := make([]string, len(rule.Patterns))
		for j, p := range rule.Patterns {
			patterns[j] = "`" + strings.ReplaceAll(p, "|", `\|`) + "`"
		}
		fmt.Fprintf(&b, "| %d | %s | %s |\n", i+1, strings.Join(patterns, " "), ShortenPath(rule.Destination, home))
	}
	b.WriteString("\n")

	if d := rs.NoExtensionDestination(); d != "" {
		fmt.Fprintf(&b, "Files without an extension go to **%s**.\n\n", ShortenPath(d, home))
	}
	if rs.Unmatched() == rules.FallbackUnmatched {
		fmt.Fprintf(&b, "Unmatched files go to **%s**.\n", ShortenPath(rs.Fallback(), home))
	} else {
		b.WriteString("Unmatched files are left in place.\n")
	}
	return b.String()
}

// MarkdownRenderer renders markdown for the terminal with glamour
type MarkdownRenderer struct {
	Style string // "auto", "dark", "light", "notty" or a style path
	Width int    // 0 keeps glamour's default wrapping
}

// NewMarkdownRenderer creates a renderer that detects the terminal style
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{Style: "auto"}
}

// Render converts markdown to terminal output. On any glamour failure the
// markdown is returned unchanged.
func (r *MarkdownRenderer) Render(content string) string {
	var options []glamour.TermRendererOption
	if r.Style != "" && r.Style != "auto" {
		options = append(options, glamour.WithStylePath(r.Style))
	} else {
		options = append(options, glamour.WithAutoStyle())
	}
	if r.Width > 0 {
		options = append(options, glamour.WithWordWrap(r.Width))
	}

	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
