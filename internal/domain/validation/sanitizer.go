package validation

import (
	"regexp"
	"strings"
)

// maxSpanLength caps the matched fragment carried in a Finding so
// rejection paths never echo attacker-controlled content at length.
const maxSpanLength = 16

// htmlTagPattern matches angle-bracket tag syntax. Intentionally loose:
// any <...> sequence counts, not only well-formed HTML.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// scriptTokens are known script-injection substrings, matched
// case-insensitively. A value containing one of these is unsafe even if
// a loosely configured pattern would accept it.
var scriptTokens = []string{
	"<script",
	"</script",
	"javascript:",
	"vbscript:",
	"data:text/html",
	"onerror=",
	"onload=",
	"onclick=",
	"onmouseover=",
	"onfocus=",
}

// traversalSequences are directory traversal markers checked by
// ScanPathLike.
var traversalSequences = []string{"../", `..\`}

// Sanitizer runs stateless safety checks independent of any field
// kind's pattern. It is a structural safety net: a future
// misconfiguration of a kind's pattern cannot by itself enable
// HTML/script injection, because the sanitizer does not consult the
// pattern registry at all.
type Sanitizer struct{}

// NewSanitizer creates a Sanitizer. It holds no state; one instance may
// be shared by any number of goroutines.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Scan inspects value for unsafe content and returns all findings.
// It is pure and total: no error path, no side effects, and an empty
// result is the happy path. Scan does not check traversal sequences;
// use ScanPathLike for path-like kinds.
func (s *Sanitizer) Scan(value string) []Finding {
	var findings []Finding

	if tag := htmlTagPattern.FindString(value); tag != "" {
		findings = append(findings, Finding{Kind: FindingHTMLTag, Span: capSpan(tag)})
	}

	lower := strings.ToLower(value)
	for _, token := range scriptTokens {
		if strings.Contains(lower, token) {
			findings = append(findings, Finding{Kind: FindingScriptToken, Span: token})
		}
	}

	for _, r := range value {
		if r == 0 || r < 0x20 || r == 0x7f {
			findings = append(findings, Finding{Kind: FindingControlChar, Span: controlSpan(r)})
			break
		}
	}

	return findings
}

// ScanPathLike runs Scan plus directory traversal detection. Traversal
// sequences are only meaningful for path-like kinds (URIs); for the
// character-class kinds the slash is already outside every pattern.
func (s *Sanitizer) ScanPathLike(value string) []Finding {
	findings := s.Scan(value)
	for _, seq := range traversalSequences {
		if strings.Contains(value, seq) {
			findings = append(findings, Finding{Kind: FindingPathTraversal, Span: seq})
		}
	}
	return findings
}

// capSpan truncates a matched fragment to maxSpanLength bytes.
func capSpan(span string) string {
	if len(span) > maxSpanLength {
		return span[:maxSpanLength]
	}
	return span
}

// controlSpan renders a control character as a safe escape for findings.
func controlSpan(r rune) string {
	switch r {
	case 0:
		return `\x00`
	case '\t':
		return `\t`
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	}
	return `\x` + string("0123456789abcdef"[r>>4&0xf]) + string("0123456789abcdef"[r&0xf])
}
