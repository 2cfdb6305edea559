package languages

import (
	"github.com/smacker/go-tree-sitter/cpp"

	"melechmcp/internal/chunker"
)

// RegisterCPP adds the C++ grammar for JUCE headers and sources. Objective-C++
// files parse well enough with it to find their classes and functions.
func RegisterCPP(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Name:     "cpp",
		Language: cpp.GetLanguage(),
		Query: `
			(class_specifier name: (type_identifier) @name) @chunk
			(struct_specifier name: (type_identifier) @name) @chunk
			(enum_specifier name: (type_identifier) @name) @chunk
			(function_definition declarator: (function_declarator declarator: (_) @name)) @chunk
		`,
		Extensions: []string{"h", "hpp", "hh", "cpp", "cc", "cxx", "mm"},
	})
}
