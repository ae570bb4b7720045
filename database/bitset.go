package database

// Bitset is a named, ordered collection of fields. An inline bitset is
// emitted under the name of the register that owns it.
type Bitset struct {
	Name   string
	Inline bool
	Fields []*Field
	Pos    Pos
}

func NewBitset(name string) *Bitset {
	return &Bitset{Name: name}
}

// Clone returns a new inline bitset named name that starts with a copy of
// b's field list.
func (b *Bitset) Clone(name string) *Bitset {
	fields := make([]*Field, len(b.Fields))
	copy(fields, b.Fields)
	return &Bitset{
		Name:   name,
		Inline: true,
		Fields: fields,
		Pos:    b.Pos,
	}
}

func (b *Bitset) Append(f *Field) {
	b.Fields = append(b.Fields, f)
}

// AddressField returns the first address or waddress field, if any.
func (b *Bitset) AddressField() *Field {
	for _, f := range b.Fields {
		if f.Type.IsAddress() {
			return f
		}
	}
	return nil
}

// KnownMask is the union of the masks of every field.
func (b *Bitset) KnownMask() (mask uint64) {
	for _, f := range b.Fields {
		mask |= f.Mask()
	}
	return
}

func (*Bitset) isDecl() {}
