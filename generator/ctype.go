package generator

import (
	"fmt"

	"omibyte.io/rnn/database"
)

// ctype returns the C parameter type of f and the expression converting the
// variable v into raw field bits.
func ctype(f *database.Field, v string) (typ, val string) {
	typ, val = convert(f, v)
	if f.Shr > 0 {
		val = fmt.Sprintf("(%s >> %d)", val, f.Shr)
	}
	return
}

// convert is ctype without the shr scaling.
func convert(f *database.Field, v string) (typ, val string) {
	val = v
	switch f.Type.Kind {
	case database.TypeNone, database.TypeUint, database.TypeHex:
		typ = "uint32_t"
	case database.TypeBoolean:
		typ = "bool"
	case database.TypeInt:
		typ = "int32_t"
	case database.TypeFixed:
		typ = "float"
		val = fmt.Sprintf("((int32_t)(%s * %d.0))", v, 1<<f.Radix)
	case database.TypeUfixed:
		typ = "float"
		val = fmt.Sprintf("((uint32_t)(%s * %d.0))", v, 1<<f.Radix)
	case database.TypeFloat:
		typ = "float"
		if f.High-f.Low == 31 {
			val = fmt.Sprintf("fui(%s)", v)
		} else {
			val = fmt.Sprintf("_mesa_float_to_half(%s)", v)
		}
	case database.TypeAddress, database.TypeWaddress:
		typ = "uint64_t"
	case database.TypeEnum:
		typ = "enum " + f.Type.Name
	}
	return
}

// widen casts val to 64 bits when f lies above bit 31, so shifting it into
// place stays within the operand width.
func widen(f *database.Field, val string) string {
	if f.High >= 32 {
		return "(uint64_t)(" + val + ")"
	}
	return val
}
