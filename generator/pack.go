package generator

import (
	"fmt"
	"io"
	"strings"

	"omibyte.io/rnn/database"
)

type pack struct {
	db      *database.Database
	merged  []*database.Merged
	options Options
}

// NewPack returns the generator of the pack-struct header: one struct and
// builder per register with an inline bitset, then a variant dispatch for
// every merged variant group.
func NewPack(db *database.Database, merged []*database.Merged, options Options) Generator {
	return &pack{
		db:      db,
		merged:  merged,
		options: options,
	}
}

func (p *pack) Generate(out io.Writer) error {
	var w strings.Builder
	writePreamble(&w, p.options.Guard)

	for _, d := range p.db.Decls {
		if reg, ok := d.(*database.Register); ok && reg.Bitset.Inline {
			p.writeStruct(&w, reg)
		}
	}

	for _, m := range p.merged {
		p.writeVariants(&w, m)
	}

	writeEpilogue(&w, p.options.Guard)
	return flush(out, &w)
}

func writeFallback(w *strings.Builder, bitSize int) {
	if bitSize == 64 {
		tabTo(w, "    uint64_t", "unknown;")
		tabTo(w, "    uint64_t", "qword;")
	} else {
		tabTo(w, "    uint32_t", "unknown;")
		tabTo(w, "    uint32_t", "dword;")
	}
}

func writeBo(w *strings.Builder) {
	tabTo(w, "    __bo_type", "bo;")
	tabTo(w, "    uint32_t", "bo_offset;")
}

func (p *pack) writeStruct(w *strings.Builder, reg *database.Register) {
	name := reg.FullName()
	address := reg.Bitset.AddressField()

	fmt.Fprintf(w, "struct %s {\n", name)
	for _, f := range reg.Bitset.Fields {
		if f.Type.IsAddress() {
			if f == address {
				writeBo(w)
			}
			continue
		}
		typ, _ := ctype(f, "var")
		tabTo(w, "    "+typ, database.AccessorName(reg, f)+";")
	}
	writeFallback(w, reg.BitSize)
	fmt.Fprint(w, "};\n\n")

	if reg.Array != nil {
		fmt.Fprintf(w, "static inline struct fd_reg_pair\npack_%s(uint32_t __i, struct %s fields)\n{\n", name, name)
	} else {
		fmt.Fprintf(w, "static inline struct fd_reg_pair\npack_%s(struct %s fields)\n{\n", name, name)
	}

	writeBuilder(w, reg)

	fmt.Fprint(w, "\n}\n\n")

	skip := ""
	if address != nil {
		skip = ", { .reg = 0 }"
	}

	if reg.Array != nil {
		fmt.Fprintf(w, "#define %s(__i, ...) pack_%s(__i, __struct_cast(%s) { __VA_ARGS__ })%s\n\n", name, name, name, skip)
	} else {
		fmt.Fprintf(w, "#define %s(...) pack_%s(__struct_cast(%s) { __VA_ARGS__ })%s\n\n", name, name, name, skip)
	}
}

// writeBuilder emits the body of a pack function: range assertions on every
// field, then the register/value pair.
func writeBuilder(w *strings.Builder, reg *database.Register) {
	full := uint64(0xffffffff)
	if reg.BitSize == 64 {
		full = ^uint64(0)
	}

	fmt.Fprintln(w, "#ifndef NDEBUG")
	known := uint64(0)
	for _, f := range reg.Bitset.Fields {
		known |= f.Mask()
		switch f.Type.Kind {
		case database.TypeBoolean, database.TypeAddress, database.TypeWaddress:
			continue
		}
		_, val := ctype(f, "fields."+database.AccessorName(reg, f))
		fmt.Fprintf(w, "    assert((%-40s & 0x%08x) == 0);\n", val, full^database.Mask(0, f.High-f.Low))
	}
	fmt.Fprintf(w, "    assert((%-40s & 0x%08x) == 0);\n", "fields.unknown", known)
	fmt.Fprint(w, "#endif\n\n")

	fmt.Fprintln(w, "    return (struct fd_reg_pair) {")
	if reg.Array != nil {
		fmt.Fprintf(w, "        .reg = REG_%s(__i),\n", reg.FullName())
	} else {
		fmt.Fprintf(w, "        .reg = REG_%s,\n", reg.FullName())
	}

	fmt.Fprintln(w, "        .value =")
	for _, f := range reg.Bitset.Fields {
		if f.Type.IsAddress() {
			continue
		}
		_, val := ctype(f, "fields."+database.AccessorName(reg, f))
		fmt.Fprintf(w, "            (%-40s << %2d) |\n", widen(f, val), f.Low)
	}
	valueName := "dword"
	if reg.BitSize == 64 {
		valueName = "qword"
	}
	fmt.Fprintf(w, "            fields.unknown | fields.%s,\n", valueName)

	if address := reg.Bitset.AddressField(); address != nil {
		fmt.Fprintln(w, "        .bo = fields.bo,")
		fmt.Fprintln(w, "        .is_address = true,")
		if address.Type.Kind == database.TypeWaddress {
			fmt.Fprintln(w, "        .bo_write = true,")
		}
		fmt.Fprintln(w, "        .bo_offset = fields.bo_offset,")
		fmt.Fprintf(w, "        .bo_shift = %d,\n", address.Shr)
		fmt.Fprintf(w, "        .bo_low = %d,\n", address.Low)
	}

	fmt.Fprintln(w, "    };")
}
