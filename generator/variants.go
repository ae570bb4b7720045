package generator

import (
	"fmt"
	"strings"

	"omibyte.io/rnn/database"
)

// writeVariants emits the merged struct of a variant group and a C++
// template dispatching on the variant to that variant's builder.
func (p *pack) writeVariants(w *strings.Builder, m *database.Merged) {
	name := m.Group.Name
	varset := p.options.VarsetType
	param := strings.ToUpper(varset)

	fmt.Fprintln(w, "#ifdef __cplusplus")
	fmt.Fprintf(w, "struct __%s {\n", name)
	for _, section := range m.Sections {
		fmt.Fprintf(w, "    /* %s fields: */\n", section.Variant)
		for _, mf := range section.Fields {
			if mf.Field.Type.IsAddress() {
				writeBo(w)
				continue
			}
			typ, _ := ctype(mf.Field, "var")
			tabTo(w, "    "+typ, mf.Name+";")
		}
	}
	fmt.Fprintln(w, "    /* fallback fields: */")
	writeFallback(w, m.BitSize)
	fmt.Fprintln(w, "};")

	xtra, xtravar := "", ""
	if m.Array {
		xtra = "int __i, "
		xtravar = "__i, "
	}

	fmt.Fprintf(w, "template <%s %s>\n", varset, param)
	fmt.Fprintln(w, "static inline struct fd_reg_pair")
	fmt.Fprintf(w, "__%s(%sstruct __%s fields) {\n", name, xtra, name)
	for _, member := range m.Group.Members {
		fmt.Fprintf(w, "  if (%s == %s) {\n", param, member.Variant)
		if member.Register.Bitset.Inline {
			writeBuilder(w, member.Register)
		}
		fmt.Fprintln(w, "  } else")
	}
	fmt.Fprintln(w, "    assert(!\"invalid variant\");")
	fmt.Fprintln(w, "}")

	skip := ""
	if m.BitSize == 64 {
		skip = ", { .reg = 0 }"
	}

	fmt.Fprintf(w, "#define %s(VARIANT, %s...) __%s<VARIANT>(%s{__VA_ARGS__})%s\n", name, xtravar, name, xtravar, skip)
	fmt.Fprintln(w, "#endif /* __cplusplus */")
}
