package database

import (
	"strings"
	"unicode"
)

var reserved = map[string]struct{}{}

func init() {
	for _, word := range []string{
		"alignas", "alignof", "and", "asm", "auto", "bool", "break", "case",
		"catch", "char", "class", "const", "constexpr", "continue", "default",
		"delete", "do", "double", "else", "enum", "explicit", "export",
		"extern", "false", "float", "for", "friend", "goto", "if", "inline",
		"int", "long", "mutable", "namespace", "new", "not", "operator", "or",
		"private", "protected", "public", "register", "restrict", "return",
		"short", "signed", "sizeof", "static", "struct", "switch", "template",
		"this", "throw", "true", "try", "typedef", "typename", "union",
		"unsigned", "using", "virtual", "void", "volatile", "while", "xor",
	} {
		reserved[word] = struct{}{}
	}
}

// AccessorName returns the C member name used for f in pack structs. An
// unnamed field takes the name of its register.
func AccessorName(reg *Register, f *Field) string {
	name := f.Name
	if name == "" {
		name = reg.Name
	}
	name = strings.ToLower(name)

	if _, ok := reserved[name]; ok || name == "" || !unicode.IsLetter(rune(name[0])) {
		name = "_" + name
	}
	return name
}
