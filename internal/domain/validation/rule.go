package validation

import (
	"fmt"
	"regexp"
)

// CharClass is one accepted character class. The regex fragment and the
// human-readable name travel together; rules derive both the compiled
// pattern and the error text from the same ordered class list, which is
// what makes pattern/description drift structurally impossible.
type CharClass struct {
	// Name is the plural, human-readable class name used in error
	// messages ("letters", "dots").
	Name string

	// Fragment is the regex character-class fragment ("a-zA-Z", "\\.").
	Fragment string

	// Example is a single character from the class, used by the
	// registry self-test to prove the compiled pattern accepts it.
	Example string
}

// Canonical character classes shared by the built-in field kinds.
var (
	ClassLetters     = CharClass{Name: "letters", Fragment: "a-zA-Z", Example: "a"}
	ClassNumbers     = CharClass{Name: "numbers", Fragment: "0-9", Example: "7"}
	ClassUnderscores = CharClass{Name: "underscores", Fragment: "_", Example: "_"}
	ClassDots        = CharClass{Name: "dots", Fragment: `\.`, Example: "."}
	ClassHyphens     = CharClass{Name: "hyphens", Fragment: `\-`, Example: "-"}
	ClassSpaces      = CharClass{Name: "spaces", Fragment: " ", Example: " "}
)

// Rule is the immutable per-kind validation rule. Rules are built once
// by NewRegistry and shared read-only across all validation calls.
type Rule struct {
	// Kind is the field kind this rule applies to.
	Kind FieldKind

	// Pattern is the compiled acceptance pattern, anchored at both
	// ends. Nil for KindURI, which is validated structurally.
	Pattern *regexp.Regexp

	// Classes is the ordered character-class list the pattern and the
	// error text are derived from. Empty for KindURI.
	Classes []CharClass

	// MinLength and MaxLength bound the value length in bytes.
	MinLength int
	MaxLength int

	// MustStartWithLetter requires the first character to be a letter.
	MustStartWithLetter bool

	// Schemes is the URI scheme allow-list. Only set for KindURI.
	Schemes []string
}

// AllowedClasses returns the class names in declaration order.
func (r Rule) AllowedClasses() []string {
	names := make([]string, len(r.Classes))
	for i, c := range r.Classes {
		names[i] = c.Name
	}
	return names
}

// buildPattern compiles the acceptance pattern from an ordered class
// list. The character set inside the bracket expression is exactly the
// concatenation of the class fragments; nothing else ever reaches the
// pattern. Patterns are anchored and use a single bounded quantifier,
// so they cannot backtrack pathologically.
func buildPattern(classes []CharClass, mustStartWithLetter bool) (*regexp.Regexp, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("empty character class list")
	}

	set := ""
	for _, c := range classes {
		set += c.Fragment
	}

	expr := "^[" + set + "]+$"
	if mustStartWithLetter {
		expr = "^[a-zA-Z][" + set + "]*$"
	}

	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", expr, err)
	}
	return pattern, nil
}

// newRule builds an immutable Rule from an ordered class list and
// structural flags.
func newRule(kind FieldKind, classes []CharClass, minLen, maxLen int, mustStartWithLetter bool) (Rule, error) {
	pattern, err := buildPattern(classes, mustStartWithLetter)
	if err != nil {
		return Rule{}, fmt.Errorf("rule for %s: %w", kind, err)
	}
	return Rule{
		Kind:                kind,
		Pattern:             pattern,
		Classes:             classes,
		MinLength:           minLen,
		MaxLength:           maxLen,
		MustStartWithLetter: mustStartWithLetter,
	}, nil
}
