package generator

import (
	"fmt"
	"io"
	"strings"

	"omibyte.io/rnn/database"
)

type header struct {
	db      *database.Database
	options Options
}

// NewHeader returns the generator of the plain accessor header: enums,
// bitset field encoders, register offsets and the usage table.
func NewHeader(db *database.Database, options Options) Generator {
	return &header{
		db:      db,
		options: options,
	}
}

func (h *header) Generate(out io.Writer) error {
	var w strings.Builder
	writePreamble(&w, h.options.Guard)

	// Enums go first, then standalone bitsets, then registers and arrays
	var enums, bitsets, regs []database.Decl
	for _, d := range h.db.Decls {
		switch d.(type) {
		case *database.Enum:
			enums = append(enums, d)
		case *database.Bitset:
			bitsets = append(bitsets, d)
		default:
			regs = append(regs, d)
		}
	}

	for _, d := range append(append(enums, bitsets...), regs...) {
		switch d := d.(type) {
		case *database.Enum:
			h.writeEnum(&w, d)
		case *database.Bitset:
			h.writeBitset(&w, d, d.Name)
		case *database.Array:
			fmt.Fprintf(&w, "#define REG_%s_%s(i0) (0x%08x + 0x%x*(i0))\n\n", d.Prefix, d.Name, d.Offset, d.Stride)
		case *database.Register:
			h.writeRegister(&w, d)
		default:
			return fmt.Errorf("unexpected declaration %T", d)
		}
	}

	h.writeUsages(&w)
	writeEpilogue(&w, h.options.Guard)
	return flush(out, &w)
}

func (h *header) writeEnum(w *strings.Builder, e *database.Enum) {
	hex := e.UseHex(h.options.HexThreshold)

	fmt.Fprintf(w, "enum %s {\n", e.Name)
	for _, v := range e.Values {
		if hex {
			fmt.Fprintf(w, "\t%s = 0x%08x,\n", v.Name, v.Value)
		} else {
			fmt.Fprintf(w, "\t%s = %d,\n", v.Name, v.Value)
		}
	}
	fmt.Fprint(w, "};\n\n")
}

// writeBitset emits the mask, shift and encoder of every field of b under
// prefix.
func (h *header) writeBitset(w *strings.Builder, b *database.Bitset, prefix string) {
	for _, f := range b.Fields {
		// An unnamed untyped field covering the register from bit 0 needs
		// no accessor.
		if f.Name == "" && f.Low == 0 && f.Shr == 0 {
			switch f.Type.Kind {
			case database.TypeFloat, database.TypeFixed, database.TypeUfixed:
			default:
				continue
			}
		}

		name := fieldName(prefix, f)
		tabTo(w, "#define "+name+"__MASK", fmt.Sprintf("0x%08x", f.Mask()))
		tabTo(w, "#define "+name+"__SHIFT", fmt.Sprintf("%d", f.Low))

		rtype := "uint32_t"
		if f.High >= 32 {
			rtype = "uint64_t"
		}
		typ, val := ctype(f, "val")
		fmt.Fprintf(w, "static inline %s %s(%s val)\n{\n", rtype, name, typ)
		if f.Shr > 0 {
			_, raw := convert(f, "val")
			fmt.Fprintf(w, "\tassert(!(%s & 0x%x));\n", raw, database.Mask(0, f.Shr-1))
		}
		fmt.Fprintf(w, "\treturn ((%s) << %s__SHIFT) & %s__MASK;\n}\n", widen(f, val), name, name)
	}
	fmt.Fprintln(w)
}

func (h *header) writeRegister(w *strings.Builder, reg *database.Register) {
	if reg.Array != nil {
		fmt.Fprintf(w, "static inline uint32_t REG_%s(uint32_t i0) { return 0x%08x + 0x%x*i0; }\n",
			reg.FullName(), reg.Array.Offset+reg.Offset, reg.Array.Stride)
	} else {
		tabTo(w, "#define REG_"+reg.FullName(), fmt.Sprintf("0x%08x", reg.Offset))
	}

	if reg.Bitset.Inline {
		h.writeBitset(w, reg.Bitset, reg.FullName())
	}
	fmt.Fprintln(w)
}
