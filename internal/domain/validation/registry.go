package validation

import (
	"fmt"
	"regexp"
)

// Default length bounds. 255 matches the common identifier column width;
// URIs get more room for query strings.
const (
	DefaultMinLength    = 1
	DefaultMaxLength    = 255
	DefaultURIMaxLength = 2048
)

// DefaultURISchemes is the default scheme allow-list for KindURI.
var DefaultURISchemes = []string{"http", "https", "ws", "wss"}

// Limits overrides the length bounds for one field kind. Zero values
// fall back to the defaults.
type Limits struct {
	MinLength int
	MaxLength int
}

// URIConfig configures the URI kind: length bounds and scheme allow-list.
type URIConfig struct {
	MinLength int
	MaxLength int
	Schemes   []string
}

// RegistryConfig is the static table the registry is built from. It is
// read once at startup; the registry never consults it again.
type RegistryConfig struct {
	Name       Limits
	Identifier Limits
	ToolName   Limits
	URI        URIConfig
}

// DefaultRegistryConfig returns the built-in rule configuration.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		URI: URIConfig{Schemes: DefaultURISchemes},
	}
}

// Registry holds the canonical acceptance rule for every field kind.
// It is immutable after construction and safe for concurrent use
// without synchronization.
type Registry struct {
	rules map[FieldKind]Rule
}

// NewRegistry builds the rule set from cfg and runs the startup
// self-test on every rule. A self-test failure means a pattern and its
// class list disagree; that is a construction error, never a runtime
// condition.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	nameClasses := []CharClass{ClassLetters, ClassNumbers, ClassUnderscores, ClassDots, ClassHyphens, ClassSpaces}
	identClasses := []CharClass{ClassLetters, ClassNumbers, ClassUnderscores, ClassDots, ClassHyphens}

	rules := make(map[FieldKind]Rule, 4)

	name, err := newRule(KindName, nameClasses, boundOr(cfg.Name.MinLength, DefaultMinLength), boundOr(cfg.Name.MaxLength, DefaultMaxLength), false)
	if err != nil {
		return nil, err
	}
	rules[KindName] = name

	ident, err := newRule(KindIdentifier, identClasses, boundOr(cfg.Identifier.MinLength, DefaultMinLength), boundOr(cfg.Identifier.MaxLength, DefaultMaxLength), false)
	if err != nil {
		return nil, err
	}
	rules[KindIdentifier] = ident

	tool, err := newRule(KindToolName, identClasses, boundOr(cfg.ToolName.MinLength, DefaultMinLength), boundOr(cfg.ToolName.MaxLength, DefaultMaxLength), true)
	if err != nil {
		return nil, err
	}
	rules[KindToolName] = tool

	schemes := cfg.URI.Schemes
	if len(schemes) == 0 {
		schemes = DefaultURISchemes
	}
	rules[KindURI] = Rule{
		Kind:      KindURI,
		MinLength: boundOr(cfg.URI.MinLength, DefaultMinLength),
		MaxLength: boundOr(cfg.URI.MaxLength, DefaultURIMaxLength),
		Schemes:   schemes,
	}

	reg := &Registry{rules: rules}
	if err := reg.SelfTest(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Describe returns the rule for a kind. ErrUnknownFieldKind for kinds
// outside the declared set.
func (r *Registry) Describe(kind FieldKind) (Rule, error) {
	rule, ok := r.rules[kind]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %d", ErrUnknownFieldKind, int(kind))
	}
	return rule, nil
}

// Rules returns all rules in kind declaration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, kind := range Kinds() {
		if rule, ok := r.rules[kind]; ok {
			out = append(out, rule)
		}
	}
	return out
}

// excludedProbes are characters no built-in class may ever admit
// silently. Each probe that is not a member of a rule's declared
// classes must be rejected by that rule's pattern; if the pattern
// accepts one, the pattern and the class list have drifted.
var excludedProbes = []string{"<", ">", "\"", "'", ";", "/", "\\", "|", "$", "&", "\x00", "\t", "\n", " "}

// SelfTest verifies pattern/description consistency for every rule:
// each declared class's example character is accepted, and each
// excluded probe outside the class list is rejected.
func (r *Registry) SelfTest() error {
	for _, kind := range Kinds() {
		rule := r.rules[kind]
		if rule.Pattern == nil {
			continue
		}

		for _, class := range rule.Classes {
			sample := class.Example
			if rule.MustStartWithLetter {
				sample = "a" + sample
			}
			if !rule.Pattern.MatchString(sample) {
				return fmt.Errorf("self-test for %s: pattern rejects declared class %q (example %q)", kind, class.Name, class.Example)
			}
		}

		for _, probe := range excludedProbes {
			if classMember(rule.Classes, probe) {
				continue
			}
			sample := "a" + probe
			if rule.Pattern.MatchString(sample) {
				return fmt.Errorf("self-test for %s: pattern accepts undeclared character %q", kind, probe)
			}
		}
	}
	return nil
}

// classMember reports whether ch belongs to any class in the list,
// judged by the class's own regex fragment.
func classMember(classes []CharClass, ch string) bool {
	for _, c := range classes {
		re, err := regexp.Compile("^[" + c.Fragment + "]$")
		if err != nil {
			continue
		}
		if re.MatchString(ch) {
			return true
		}
	}
	return false
}

func boundOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
