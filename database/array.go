package database

// Array is a block of Length repeated register sets, Stride bytes apart.
type Array struct {
	Name    string
	Prefix  string
	Offset  int64
	Stride  int64
	Length  int64
	Variant string
	Usages  []string
	Pos     Pos
}

// FullName is the qualifying prefix joined with the array name.
func (a *Array) FullName() string {
	return a.Prefix + "_" + a.Name
}

func (*Array) isDecl() {}
