package validation

import (
	"fmt"
	"strings"
)

// reject builds a Rejected outcome for the given signal. This is the
// single place rejection text is rendered; for pattern violations the
// message is derived from the rule's class list, so a change to the
// accepted characters automatically updates every message that cites
// the kind.
func reject(label string, signal Signal, rule Rule, findings []Finding) Outcome {
	rejected := &Rejected{
		Field:          label,
		Signal:         signal,
		Reason:         renderReason(label, signal, rule, findings),
		AllowedClasses: rule.AllowedClasses(),
		Findings:       findings,
	}
	return Outcome{Rejection: rejected}
}

// renderReason produces the human-readable rejection text. Pattern
// violations cite the class list verbatim; every other signal has fixed
// kind-appropriate text.
func renderReason(label string, signal Signal, rule Rule, findings []Finding) string {
	switch signal {
	case SignalMissingValue:
		return fmt.Sprintf("%s is required.", label)

	case SignalLengthViolation:
		return fmt.Sprintf("%s must be between %d and %d characters.", label, rule.MinLength, rule.MaxLength)

	case SignalStructuralViolation:
		if rule.Kind == KindURI {
			return fmt.Sprintf("%s must use one of the allowed schemes: %s.", label, strings.Join(rule.Schemes, ", "))
		}
		return fmt.Sprintf("%s must start with a letter.", label)

	case SignalPatternViolation:
		if rule.Kind == KindURI {
			return fmt.Sprintf("%s must be a valid absolute URI.", label)
		}
		return fmt.Sprintf("%s can only contain %s.", label, joinClasses(rule.AllowedClasses()))

	case SignalUnsafeContent:
		return fmt.Sprintf("%s contains disallowed content (%s).", label, joinFindings(findings))
	}
	return fmt.Sprintf("%s is invalid.", label)
}

// joinClasses renders class names as a natural-language list:
// "letters, numbers, underscores, dots, hyphens, and spaces".
func joinClasses(names []string) string {
	switch len(names) {
	case 0:
		return "no characters"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
}

// joinFindings renders the distinct finding kinds of a sanitizer hit.
func joinFindings(findings []Finding) string {
	if len(findings) == 0 {
		return "unsafe content"
	}
	seen := make(map[FindingKind]bool, len(findings))
	var kinds []string
	for _, f := range findings {
		if !seen[f.Kind] {
			seen[f.Kind] = true
			kinds = append(kinds, string(f.Kind))
		}
	}
	return strings.Join(kinds, ", ")
}
