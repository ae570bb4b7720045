package database

// Register is a single 32 or 64 bit register. Name is the local name, which
// already carries the array name when the register lives under an array.
type Register struct {
	Name    string
	Prefix  string
	Array   *Array
	Offset  int64
	BitSize int
	Bitset  *Bitset
	Variant string
	Usages  []string
	Pos     Pos
}

func (r *Register) FullName() string {
	return r.Prefix + "_" + r.Name
}

// Offsets returns every dword offset the register occupies, expanding
// arrays element by element. 64 bit registers occupy two consecutive
// offsets.
func (r *Register) Offsets() []int64 {
	var offsets []int64
	add := func(offset int64) {
		offsets = append(offsets, offset)
		if r.BitSize == 64 {
			offsets = append(offsets, offset+1)
		}
	}

	if r.Array != nil {
		for i := int64(0); i < r.Array.Length; i++ {
			add(r.Array.Offset + r.Offset + i*r.Array.Stride)
		}
	} else {
		add(r.Offset)
	}
	return offsets
}

func (*Register) isDecl() {}
