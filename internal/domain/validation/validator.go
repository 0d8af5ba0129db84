package validation

import (
	"net/url"
)

// Validator composes the pattern registry, structural rules, and the
// secondary sanitizer into the defense-in-depth pipeline. Check order
// is fixed: missing -> length -> structural -> pattern -> sanitizer.
// Length runs before pattern matching so oversized inputs never reach
// the regex engine, and each stage yields the most specific error.
//
// A Validator holds no mutable state and is safe for concurrent use.
type Validator struct {
	registry  *Registry
	sanitizer *Sanitizer
}

// NewValidator creates a Validator over the given registry.
func NewValidator(registry *Registry) *Validator {
	return &Validator{
		registry:  registry,
		sanitizer: NewSanitizer(),
	}
}

// Validate runs the full pipeline for kind against raw. The label is
// used only in rejection text. The error return is non-nil only for an
// unknown kind, which is a programmer error rather than a rejection.
// Validation is idempotent: identical arguments yield equal outcomes.
func (v *Validator) Validate(kind FieldKind, raw, label string) (Outcome, error) {
	rule, err := v.registry.Describe(kind)
	if err != nil {
		return Outcome{}, err
	}

	if kind == KindURI {
		return v.validateURI(rule, raw, label), nil
	}

	if raw == "" {
		return reject(label, SignalMissingValue, rule, nil), nil
	}

	if len(raw) < rule.MinLength || len(raw) > rule.MaxLength {
		return reject(label, SignalLengthViolation, rule, nil), nil
	}

	if rule.MustStartWithLetter && !isASCIILetter(raw[0]) {
		return reject(label, SignalStructuralViolation, rule, nil), nil
	}

	if !rule.Pattern.MatchString(raw) {
		return reject(label, SignalPatternViolation, rule, nil), nil
	}

	// Values the pattern accepts are still scanned; the sanitizer does
	// not trust the pattern.
	if findings := v.sanitizer.Scan(raw); len(findings) > 0 {
		return reject(label, SignalUnsafeContent, rule, findings), nil
	}

	return accept(raw), nil
}

// validateURI validates the URI kind: RFC 3986 parse, scheme allow-list,
// non-empty host, then the path-like sanitizer scan.
func (v *Validator) validateURI(rule Rule, raw, label string) Outcome {
	if raw == "" {
		return reject(label, SignalMissingValue, rule, nil)
	}

	if len(raw) < rule.MinLength || len(raw) > rule.MaxLength {
		return reject(label, SignalLengthViolation, rule, nil)
	}

	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() {
		return reject(label, SignalPatternViolation, rule, nil)
	}

	allowed := false
	for _, scheme := range rule.Schemes {
		if parsed.Scheme == scheme {
			allowed = true
			break
		}
	}
	if !allowed {
		return reject(label, SignalStructuralViolation, rule, nil)
	}

	if parsed.Host == "" {
		return reject(label, SignalPatternViolation, rule, nil)
	}

	if findings := v.sanitizer.ScanPathLike(raw); len(findings) > 0 {
		return reject(label, SignalUnsafeContent, rule, findings)
	}

	return accept(raw)
}

// ValidateName validates a display name field.
func (v *Validator) ValidateName(raw, label string) Outcome {
	outcome, _ := v.Validate(KindName, raw, label)
	return outcome
}

// ValidateIdentifier validates a machine identifier field.
func (v *Validator) ValidateIdentifier(raw, label string) Outcome {
	outcome, _ := v.Validate(KindIdentifier, raw, label)
	return outcome
}

// ValidateToolName validates a tool name field.
func (v *Validator) ValidateToolName(raw, label string) Outcome {
	outcome, _ := v.Validate(KindToolName, raw, label)
	return outcome
}

// ValidateURI validates a URI field against the scheme allow-list.
func (v *Validator) ValidateURI(raw, label string) Outcome {
	outcome, _ := v.Validate(KindURI, raw, label)
	return outcome
}

// ValidateFields validates a batch of labeled values. The map key is
// the field label; returned outcomes are keyed the same way. Fields are
// independent; one rejection does not stop the rest.
func (v *Validator) ValidateFields(fields map[string]FieldValue) (map[string]Outcome, error) {
	outcomes := make(map[string]Outcome, len(fields))
	for label, fv := range fields {
		outcome, err := v.Validate(fv.Kind, fv.Value, label)
		if err != nil {
			return nil, err
		}
		outcomes[label] = outcome
	}
	return outcomes, nil
}

// FieldValue pairs a raw value with its field kind for batch validation.
type FieldValue struct {
	Kind  FieldKind
	Value string
}

// isASCIILetter reports whether b is an ASCII letter.
func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
