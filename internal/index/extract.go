package index

import (
	"regexp"
	"strings"
)

// classPattern captures the class name and the raw base list of
// `class [JUCE_API] Name [: bases] {`.
var classPattern = regexp.MustCompile(`class\s+(?:JUCE_API\s+)?([A-Za-z0-9_]+)\s*(?::\s*([^\{]+))?\s*\{`)

// ClassMatch is one class declaration found in header text.
type ClassMatch struct {
	Name        string
	Inheritance string
	Signature   string
}

// ExtractClasses returns every class declaration in content, in order of
// appearance. Duplicates are kept.
func ExtractClasses(content string) []ClassMatch {
	found := classPattern.FindAllStringSubmatch(content, -1)
	if len(found) == 0 {
		return nil
	}
	out := make([]ClassMatch, 0, len(found))
	for _, m := range found {
		name, bases := m[1], m[2]
		out = append(out, ClassMatch{
			Name:        name,
			Inheritance: cleanInheritance(bases),
			Signature:   signatureSnippet(content, name),
		})
	}
	return out
}

func cleanInheritance(bases string) string {
	if bases == "" {
		return NoInheritance
	}
	return strings.ReplaceAll(strings.TrimSpace(bases), "\n", " ")
}

// signatureSnippet takes SignatureChars characters starting at the first
// "class Name" (or "class JUCE_API Name") in content. The anchor can land on
// a longer name sharing the prefix; that is accepted.
func signatureSnippet(content, name string) string {
	idx := strings.Index(content, "class "+name)
	if idx == -1 {
		idx = strings.Index(content, "class JUCE_API "+name)
	}
	if idx == -1 {
		return ""
	}
	return Truncate(content[idx:], SignatureChars)
}
