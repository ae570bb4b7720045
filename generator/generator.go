// Package generator renders a register database as a C header.
package generator

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"omibyte.io/rnn/database"
)

type Generator interface {
	// Generate writes the complete header to w. Nothing is written when
	// an error is returned.
	Generate(w io.Writer) error
}

type Options struct {
	Guard string

	// VarsetType is the C type of the template parameter selecting a
	// variant.
	VarsetType   string
	HexThreshold int64
}

// Guard derives the include guard from the name of the root description
// file.
func Guard(file string, pack bool) string {
	guard := strings.ToUpper(strings.ReplaceAll(filepath.Base(file), ".", "_"))
	if pack {
		guard += "_STRUCTS"
	}
	return guard
}

func writePreamble(w *strings.Builder, guard string) {
	fmt.Fprintf(w, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "#include <assert.h>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "#ifdef __cplusplus")
	fmt.Fprintln(w, "#define __struct_cast(X)")
	fmt.Fprintln(w, "#else")
	fmt.Fprintln(w, "#define __struct_cast(X) (struct X)")
	fmt.Fprintln(w, "#endif")
}

func writeEpilogue(w *strings.Builder, guard string) {
	fmt.Fprintf(w, "\n#endif /* %s */\n", guard)
}

func flush(w io.Writer, b *strings.Builder) error {
	_, err := io.WriteString(w, b.String())
	return err
}

// tabTo writes name and value separated by enough tabs to put value in the
// ninth tab column.
func tabTo(w *strings.Builder, name, value string) {
	count := (68 - (len(name) &^ 7)) / 8
	if count <= 0 {
		count = 1
	}
	fmt.Fprintf(w, "%s%s%s\n", name, strings.Repeat("\t", count), value)
}

// fieldName returns the C name of the mask, shift and encoder of f when
// emitted under prefix.
func fieldName(prefix string, f *database.Field) string {
	if f.Name == "" {
		return prefix
	}
	return prefix + "_" + f.Name
}
