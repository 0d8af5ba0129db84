package validation

import (
	"strings"
	"testing"
)

func TestSanitizer_CleanValues(t *testing.T) {
	s := NewSanitizer()

	values := []string{
		"my.test.name",
		"my test name",
		"my_tool.v1-beta",
		"plain",
		"",
		"dots.and-hyphens_ok",
	}

	for _, value := range values {
		t.Run(value, func(t *testing.T) {
			if findings := s.Scan(value); len(findings) != 0 {
				t.Errorf("Scan(%q) = %v, want no findings", value, findings)
			}
		})
	}
}

func TestSanitizer_HTMLTags(t *testing.T) {
	s := NewSanitizer()

	cases := []struct {
		value string
		kind  FindingKind
	}{
		{"hello<b>world</b>", FindingHTMLTag},
		{"<img src=x onerror=alert(1)>", FindingHTMLTag},
		{"name<script>alert(1)</script>", FindingHTMLTag},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			findings := s.Scan(tc.value)
			if !hasFinding(findings, tc.kind) {
				t.Errorf("Scan(%q) = %v, want a %s finding", tc.value, findings, tc.kind)
			}
		})
	}
}

func TestSanitizer_ScriptTokens(t *testing.T) {
	s := NewSanitizer()

	cases := []string{
		"<script>alert(1)",
		"<SCRIPT>upper case",
		"javascript:alert(1)",
		"JaVaScRiPt:alert(1)",
		"click here onerror=steal()",
		"data:text/html;base64,PHNjcmlwdD4=",
	}

	for _, value := range cases {
		t.Run(value, func(t *testing.T) {
			findings := s.Scan(value)
			if !hasFinding(findings, FindingScriptToken) {
				t.Errorf("Scan(%q) = %v, want a script_token finding", value, findings)
			}
		})
	}
}

func TestSanitizer_ControlCharacters(t *testing.T) {
	s := NewSanitizer()

	cases := []struct {
		label string
		value string
	}{
		{"null byte", "hello\x00world"},
		{"escape", "hello\x1bworld"},
		{"bell", "hello\aworld"},
		{"delete", "hello\x7fworld"},
		{"newline", "line1\nline2"},
		{"tab", "col1\tcol2"},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			findings := s.Scan(tc.value)
			if !hasFinding(findings, FindingControlChar) {
				t.Errorf("Scan(%q) = %v, want a control_char finding", tc.value, findings)
			}
		})
	}
}

func TestSanitizer_SpaceIsNotControl(t *testing.T) {
	s := NewSanitizer()
	if findings := s.Scan("two words"); len(findings) != 0 {
		t.Errorf("Scan(\"two words\") = %v, want no findings", findings)
	}
}

func TestSanitizer_PathTraversal(t *testing.T) {
	s := NewSanitizer()

	cases := []string{
		"../etc/passwd",
		"a/../b",
		`..\windows\system32`,
	}

	for _, value := range cases {
		t.Run(value, func(t *testing.T) {
			if !hasFinding(s.ScanPathLike(value), FindingPathTraversal) {
				t.Errorf("ScanPathLike(%q) missing path_traversal finding", value)
			}
			// Plain Scan must not flag traversal; only path-like kinds
			// opt in.
			if hasFinding(s.Scan(value), FindingPathTraversal) {
				t.Errorf("Scan(%q) flagged traversal; only ScanPathLike should", value)
			}
		})
	}
}

func TestSanitizer_SpanIsCapped(t *testing.T) {
	s := NewSanitizer()

	long := "<" + strings.Repeat("a", 200) + ">"
	findings := s.Scan(long)
	if !hasFinding(findings, FindingHTMLTag) {
		t.Fatalf("Scan() = %v, want an html_tag finding", findings)
	}
	for _, f := range findings {
		if len(f.Span) > maxSpanLength {
			t.Errorf("Span length = %d, want <= %d", len(f.Span), maxSpanLength)
		}
	}
}

// TestSanitizer_SupersetGuard verifies the sanitizer never fires on a
// value the field patterns already accept: every pattern-accepted value
// is sanitizer-clean.
func TestSanitizer_SupersetGuard(t *testing.T) {
	registry, err := NewRegistry(DefaultRegistryConfig())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	s := NewSanitizer()

	accepted := []struct {
		kind  FieldKind
		value string
	}{
		{KindName, "my test name-v1.0_final"},
		{KindIdentifier, "svc.worker-7_a"},
		{KindToolName, "readFile.v2"},
	}

	for _, tc := range accepted {
		t.Run(tc.value, func(t *testing.T) {
			rule, err := registry.Describe(tc.kind)
			if err != nil {
				t.Fatalf("Describe() error = %v", err)
			}
			if !rule.Pattern.MatchString(tc.value) {
				t.Fatalf("pattern rejects %q; test input invalid", tc.value)
			}
			if findings := s.Scan(tc.value); len(findings) != 0 {
				t.Errorf("Scan(%q) = %v on a pattern-accepted value", tc.value, findings)
			}
		})
	}
}

func hasFinding(findings []Finding, kind FindingKind) bool {
	for _, f := range findings {
		if f.Kind == kind {
			return true
		}
	}
	return false
}
