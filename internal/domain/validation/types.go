// Package validation implements the field-level input security validator.
// It rejects malformed or malicious names, identifiers, tool names, and URIs
// before they reach business logic or storage.
//
// The package keeps three things in lockstep: the accepted character set,
// the regular expression that enforces it, and the human-readable error
// text. All three are derived from a single ordered list of character
// classes, so they cannot drift apart.
package validation

import "errors"

// ErrUnknownFieldKind is returned when a FieldKind is not one of the
// declared kinds. This is a programmer or configuration error, never a
// user-facing rejection.
var ErrUnknownFieldKind = errors.New("unknown field kind")

// FieldKind identifies which rule set applies to an input field.
type FieldKind int

const (
	// KindName is a display name: letters, digits, underscore, dot,
	// hyphen, and spaces.
	KindName FieldKind = iota

	// KindIdentifier is a machine identifier: like KindName but without
	// whitespace.
	KindIdentifier

	// KindToolName is a tool name: like KindIdentifier but must start
	// with a letter.
	KindToolName

	// KindURI is a URI validated against RFC 3986 structure and a
	// scheme allow-list.
	KindURI
)

// kindNames maps FieldKind values to their wire/config names.
var kindNames = map[FieldKind]string{
	KindName:       "name",
	KindIdentifier: "identifier",
	KindToolName:   "tool_name",
	KindURI:        "uri",
}

// String returns the config/wire name of the kind, or "unknown".
func (k FieldKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds returns all declared field kinds in declaration order.
func Kinds() []FieldKind {
	return []FieldKind{KindName, KindIdentifier, KindToolName, KindURI}
}

// ParseFieldKind parses a wire/config name into a FieldKind.
// Returns ErrUnknownFieldKind for unrecognized names.
func ParseFieldKind(s string) (FieldKind, error) {
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, ErrUnknownFieldKind
}

// Signal classifies why a value was rejected.
type Signal string

const (
	// SignalMissingValue indicates an empty value for a kind that
	// requires one.
	SignalMissingValue Signal = "missing_value"

	// SignalLengthViolation indicates a value outside the length bounds.
	SignalLengthViolation Signal = "length_violation"

	// SignalStructuralViolation indicates a kind-specific structural
	// rule failed (must start with a letter, disallowed URI scheme).
	SignalStructuralViolation Signal = "structural_violation"

	// SignalPatternViolation indicates the value contains characters
	// outside the kind's accepted set.
	SignalPatternViolation Signal = "pattern_violation"

	// SignalUnsafeContent indicates the secondary sanitizer found
	// injection or control-character content. Unlike the other signals
	// this marks a potential attack rather than a benign typo.
	SignalUnsafeContent Signal = "unsafe_content"
)

// FindingKind classifies a secondary sanitizer hit.
type FindingKind string

const (
	FindingHTMLTag       FindingKind = "html_tag"
	FindingScriptToken   FindingKind = "script_token"
	FindingPathTraversal FindingKind = "path_traversal"
	FindingControlChar   FindingKind = "control_char"
)

// Finding describes a single secondary sanitizer hit. It exists only
// within a single validation call.
type Finding struct {
	// Kind is the category of unsafe content detected.
	Kind FindingKind

	// Span is the matched fragment, capped to a short prefix so callers
	// never echo attacker-controlled content at length.
	Span string
}

// Rejected describes why a value was refused. The Reason text for
// pattern violations is rendered from the rule's character-class list,
// never hand-written, so it always matches the pattern.
type Rejected struct {
	// Field is the caller-supplied label for error messages.
	Field string `json:"field"`

	// Signal classifies the rejection.
	Signal Signal `json:"signal"`

	// Reason is the human-readable explanation.
	Reason string `json:"reason"`

	// AllowedClasses lists the accepted character-class names for the
	// kind, in declaration order. Empty for kinds without a character
	// pattern (URI).
	AllowedClasses []string `json:"allowed_classes,omitempty"`

	// Findings carries sanitizer hits for SignalUnsafeContent.
	Findings []Finding `json:"-"`
}

// Outcome is the result of one validation call. Either Accepted is true
// and Value holds the input unmodified, or Rejection is non-nil.
type Outcome struct {
	Accepted  bool
	Value     string
	Rejection *Rejected
}

// accept returns an accepted outcome passing the value through unchanged.
func accept(value string) Outcome {
	return Outcome{Accepted: true, Value: value}
}
