package generator

import (
	"fmt"
	"strings"
)

// writeUsages emits, for C++ consumers, the table of register offsets each
// usage touches per variant.
func (h *header) writeUsages(w *strings.Builder) {
	varset := h.options.VarsetType
	param := strings.ToUpper(varset)

	fmt.Fprintln(w, "#ifdef __cplusplus")

	for _, u := range h.db.Usages() {
		fmt.Fprintf(w, "template<%s %s> constexpr inline uint16_t %s_REGS[] = {};\n", varset, param, strings.ToUpper(u.Name))
	}

	for _, entry := range h.db.UsageTable() {
		fmt.Fprintf(w, "template<> constexpr inline uint16_t %s_REGS<%s>[] = {\n", strings.ToUpper(entry.Usage), entry.Variant)
		for _, offset := range entry.Offsets {
			fmt.Fprintf(w, "\t%#x,\n", offset)
		}
		fmt.Fprintln(w, "};")
	}

	fmt.Fprintln(w, "#endif")
}
