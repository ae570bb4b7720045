package database

import "fmt"

// EnumValue is a single named member of an Enum.
type EnumValue struct {
	Name  string
	Value int64
}

// Enum is an ordered set of named integer constants. An enum may also serve
// as the varset of a domain, in which case its member names are the legal
// variant names.
type Enum struct {
	Name   string
	Values []EnumValue
	Pos    Pos

	next int64
}

func NewEnum(name string) *Enum {
	return &Enum{Name: name}
}

// Add appends a member. Without an explicit value the member takes the
// previous member's value plus one, starting at zero.
func (e *Enum) Add(name string, value *int64) error {
	if e.Has(name) {
		return fmt.Errorf("%w %q in enum %s", ErrDuplicateValue, name, e.Name)
	}

	v := e.next
	if value != nil {
		v = *value
	}
	e.Values = append(e.Values, EnumValue{Name: name, Value: v})
	e.next = v + 1
	return nil
}

func (e *Enum) Has(name string) bool {
	for _, v := range e.Values {
		if v.Name == name {
			return true
		}
	}
	return false
}

// UseHex reports whether any member exceeds threshold, in which case the
// whole enum is printed with hexadecimal literals.
func (e *Enum) UseHex(threshold int64) bool {
	for _, v := range e.Values {
		if v.Value > threshold {
			return true
		}
	}
	return false
}

func (*Enum) isDecl() {}
