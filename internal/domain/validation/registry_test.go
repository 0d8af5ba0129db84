package validation

import (
	"regexp"
	"testing"
)

func TestRegistry_DescribeKnownKinds(t *testing.T) {
	registry, err := NewRegistry(DefaultRegistryConfig())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	for _, kind := range Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			rule, err := registry.Describe(kind)
			if err != nil {
				t.Fatalf("Describe(%v) error = %v", kind, err)
			}
			if rule.Kind != kind {
				t.Errorf("rule.Kind = %v, want %v", rule.Kind, kind)
			}
			if kind != KindURI && rule.Pattern == nil {
				t.Error("rule.Pattern = nil for a character-class kind")
			}
		})
	}
}

func TestRegistry_DescribeUnknownKind(t *testing.T) {
	registry, err := NewRegistry(DefaultRegistryConfig())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if _, err := registry.Describe(FieldKind(42)); err == nil {
		t.Fatal("Describe(unknown) error = nil, want ErrUnknownFieldKind")
	}
}

// TestRegistry_PatternMatchesClassListExactly is the core consistency
// property: over the full ASCII range, a character is matched by a
// kind's pattern if and only if it belongs to one of the kind's
// declared classes.
func TestRegistry_PatternMatchesClassListExactly(t *testing.T) {
	registry, err := NewRegistry(DefaultRegistryConfig())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	for _, kind := range []FieldKind{KindName, KindIdentifier, KindToolName} {
		t.Run(kind.String(), func(t *testing.T) {
			rule, err := registry.Describe(kind)
			if err != nil {
				t.Fatalf("Describe() error = %v", err)
			}

			for b := byte(0); b < 0x80; b++ {
				ch := string(b)
				declared := classMember(rule.Classes, ch)

				// Prefix a letter so the must-start-with-letter rule
				// never masks the character under test.
				sample := "a" + ch
				matched := rule.Pattern.MatchString(sample)

				if matched != declared {
					t.Errorf("char %q (0x%02x): pattern match = %v, declared = %v", ch, b, matched, declared)
				}
			}
		})
	}
}

func TestRegistry_EveryDeclaredClassHasAcceptedExample(t *testing.T) {
	registry, err := NewRegistry(DefaultRegistryConfig())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	for _, rule := range registry.Rules() {
		if rule.Pattern == nil {
			continue
		}
		for _, class := range rule.Classes {
			sample := class.Example
			if rule.MustStartWithLetter {
				sample = "a" + sample
			}
			if !rule.Pattern.MatchString(sample) {
				t.Errorf("%s: pattern rejects example %q of declared class %q", rule.Kind, class.Example, class.Name)
			}
		}
	}
}

func TestRegistry_SelfTestCatchesDrift(t *testing.T) {
	// A pattern broadened past its class list (it also accepts '<')
	// must fail the self-test.
	drifted := &Registry{rules: map[FieldKind]Rule{
		KindName: {
			Kind:      KindName,
			Pattern:   regexp.MustCompile(`^[a-zA-Z0-9_.\- <]+$`),
			Classes:   []CharClass{ClassLetters, ClassNumbers, ClassUnderscores, ClassDots, ClassHyphens, ClassSpaces},
			MinLength: 1,
			MaxLength: DefaultMaxLength,
		},
	}}

	if err := drifted.SelfTest(); err == nil {
		t.Fatal("SelfTest() = nil for a drifted pattern, want error")
	}
}

func TestRegistry_SelfTestCatchesNarrowedPattern(t *testing.T) {
	// A pattern narrowed past its class list (dots declared but not
	// accepted) must also fail.
	drifted := &Registry{rules: map[FieldKind]Rule{
		KindIdentifier: {
			Kind:      KindIdentifier,
			Pattern:   regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`),
			Classes:   []CharClass{ClassLetters, ClassNumbers, ClassUnderscores, ClassDots, ClassHyphens},
			MinLength: 1,
			MaxLength: DefaultMaxLength,
		},
	}}

	if err := drifted.SelfTest(); err == nil {
		t.Fatal("SelfTest() = nil for a narrowed pattern, want error")
	}
}

func TestRegistry_ConfiguredLimits(t *testing.T) {
	cfg := DefaultRegistryConfig()
	cfg.ToolName = Limits{MinLength: 2, MaxLength: 64}
	cfg.URI.Schemes = []string{"https"}

	registry, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tool, err := registry.Describe(KindToolName)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if tool.MinLength != 2 || tool.MaxLength != 64 {
		t.Errorf("tool limits = [%d,%d], want [2,64]", tool.MinLength, tool.MaxLength)
	}

	uri, err := registry.Describe(KindURI)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(uri.Schemes) != 1 || uri.Schemes[0] != "https" {
		t.Errorf("uri schemes = %v, want [https]", uri.Schemes)
	}

	v := NewValidator(registry)
	if outcome := v.ValidateURI("http://example.com", "URI"); outcome.Accepted {
		t.Error("http URI accepted with https-only allow-list")
	}
	if outcome := v.ValidateToolName("a", "Tool"); outcome.Accepted {
		t.Error("one-char tool name accepted with min length 2")
	}
}
