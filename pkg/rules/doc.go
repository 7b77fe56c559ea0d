// Package rules classifies file names into destination directories.
//
// A RuleSet is an ordered list of rules, each mapping one or more glob
// patterns to a destination directory, plus an optional destination for
// files without an extension and an optional fallback destination.
//
// # Pattern Conventions
//
// Patterns are compiled once when the RuleSet is built:
//
//   - `*.pdf` - matched against the base name of the file
//   - `report-??.txt` - `?` matches a single character
//   - `IMG_[0-9]*` - character classes, `[!...]` negates
//   - `*.{jpg,png}` - alternation
//   - `invoices/**/*.pdf` - patterns containing `/` are matched against the
//     path relative to the watched root; `*` never crosses `/`, `**` does
//
// # Rule Priority
//
// Rules are evaluated in the order they were configured. The first rule with
// any matching pattern wins; overlapping rules are resolved by order, never
// by specificity. When no rule matches, a name without an extension goes to
// the no-extension destination if one is configured.
//
// # Configuration
//
//	[[rules]]
//	patterns = ["*.pdf", "*.docx"]
//	destination = "~/Documents"
//
//	[[rules]]
//	patterns = ["*.jpg"]
//	destination = "~/Pictures"
//
//	[no_extension]
//	destination = "~/Downloads/misc"
//
// Classification is a pure function of the name and the RuleSet: it never
// touches the filesystem.
package rules
