package database

import "fmt"

type TypeKind int

const (
	TypeNone TypeKind = iota
	TypeBoolean
	TypeUint
	TypeHex
	TypeInt
	TypeFixed
	TypeUfixed
	TypeFloat
	TypeAddress
	TypeWaddress
	TypeEnum
)

var builtinTypes = map[string]TypeKind{
	"boolean":  TypeBoolean,
	"uint":     TypeUint,
	"hex":      TypeHex,
	"int":      TypeInt,
	"fixed":    TypeFixed,
	"ufixed":   TypeUfixed,
	"float":    TypeFloat,
	"address":  TypeAddress,
	"waddress": TypeWaddress,
}

// FieldType is the resolved type of a Field. Name holds the type as written
// in the description; for TypeEnum it names the enum.
type FieldType struct {
	Kind TypeKind
	Name string
}

func (t FieldType) IsAddress() bool {
	return t.Kind == TypeAddress || t.Kind == TypeWaddress
}

func (t FieldType) IsFixed() bool {
	return t.Kind == TypeFixed || t.Kind == TypeUfixed
}

func (t FieldType) String() string {
	if t.Kind == TypeNone {
		return "untyped"
	}
	return t.Name
}

// Field is a contiguous run of bits in a Bitset.
type Field struct {
	Name    string
	Low     int
	High    int
	Shr     int
	Radix   int
	Type    FieldType
	Variant string
	Pos     Pos
}

// FieldSpec is an unvalidated field declaration.
type FieldSpec struct {
	Name  string
	Low   int
	High  int
	Shr   int
	Radix *int
	Type  string
	Pos   Pos
}

// Mask returns the mask covering bits low through high inclusive.
func Mask(low, high int) uint64 {
	return (^uint64(0) >> (64 - (high + 1 - low))) << low
}

func (f *Field) Mask() uint64 {
	return Mask(f.Low, f.High)
}

func (f *Field) Width() int {
	return f.High - f.Low + 1
}

// Encode places a raw value into the field's position, dropping the low shr
// bits the way the generated encoder does.
func (f *Field) Encode(raw uint64) uint64 {
	return ((raw >> uint(f.Shr)) << uint(f.Low)) & f.Mask()
}

// Decode extracts the field from a register value and scales it back by shr.
func (f *Field) Decode(word uint64) uint64 {
	return ((word & f.Mask()) >> uint(f.Low)) << uint(f.Shr)
}

func (f *Field) label() string {
	if f.Name == "" {
		return "<unnamed>"
	}
	return f.Name
}

// NewField validates spec against the bit width of the enclosing register or
// bitset and resolves its type.
func (db *Database) NewField(spec FieldSpec, bitSize int) (*Field, error) {
	f := &Field{
		Name: spec.Name,
		Low:  spec.Low,
		High: spec.High,
		Shr:  spec.Shr,
		Pos:  spec.Pos,
	}

	maxpos := bitSize - 1
	switch {
	case spec.Low < 0 || spec.Low > maxpos:
		return nil, fmt.Errorf("field %s: %w: %d", f.label(), ErrLowOutOfRange, spec.Low)
	case spec.High < 0 || spec.High > maxpos:
		return nil, fmt.Errorf("field %s: %w: %d", f.label(), ErrHighOutOfRange, spec.High)
	case spec.High < spec.Low:
		return nil, fmt.Errorf("field %s: %w: low=%d, high=%d", f.label(), ErrLowAboveHigh, spec.Low, spec.High)
	case spec.Shr < 0 || spec.Shr > 63:
		return nil, fmt.Errorf("field %s: %w: %d", f.label(), ErrShrOutOfRange, spec.Shr)
	}

	typ, err := db.ResolveType(spec.Type)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.label(), err)
	}
	f.Type = typ

	switch typ.Kind {
	case TypeBoolean:
		if spec.Low != spec.High {
			return nil, fmt.Errorf("field %s: %w", f.label(), ErrBooleanWidth)
		}
	case TypeFloat:
		if d := spec.High - spec.Low; d != 15 && d != 31 {
			return nil, fmt.Errorf("field %s: %w", f.label(), ErrFloatWidth)
		}
	case TypeFixed, TypeUfixed:
		if spec.Radix == nil {
			return nil, fmt.Errorf("field %s: %w", f.label(), ErrMissingRadix)
		}
		// The encoder scales by 1 << radix
		if *spec.Radix < 0 || *spec.Radix > 62 {
			return nil, fmt.Errorf("field %s: %w: %d", f.label(), ErrRadixOutOfRange, *spec.Radix)
		}
		f.Radix = *spec.Radix
	}

	return f, nil
}

// ResolveType maps a type attribute onto a FieldType. The empty string is an
// untyped field.
func (db *Database) ResolveType(name string) (FieldType, error) {
	if name == "" {
		return FieldType{Kind: TypeNone}, nil
	}
	if kind, ok := builtinTypes[name]; ok {
		return FieldType{Kind: kind, Name: name}, nil
	}
	if _, ok := db.extraTypes[name]; ok {
		return FieldType{Kind: TypeUint, Name: name}, nil
	}
	if _, ok := db.enums[name]; ok {
		return FieldType{Kind: TypeEnum, Name: name}, nil
	}
	return FieldType{}, fmt.Errorf("%w '%s'", ErrUnknownType, name)
}
