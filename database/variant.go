package database

import "fmt"

// VariantMember is the register declared for one variant of a group.
type VariantMember struct {
	Variant  string
	Register *Register
}

// VariantGroup collects registers that share a local name across variants,
// in declaration order.
type VariantGroup struct {
	Name    string
	Members []VariantMember
}

func (g *VariantGroup) set(variant string, reg *Register) {
	for i := range g.Members {
		if g.Members[i].Variant == variant {
			g.Members[i].Register = reg
			return
		}
	}
	g.Members = append(g.Members, VariantMember{Variant: variant, Register: reg})
}

// Member returns the register declared for variant.
func (g *VariantGroup) Member(variant string) (*Register, bool) {
	for _, m := range g.Members {
		if m.Variant == variant {
			return m.Register, true
		}
	}
	return nil, false
}

// MergedField is one member of a merged variant struct.
type MergedField struct {
	Name     string
	Field    *Field
	Register *Register
}

// MergedSection holds the fields first introduced by one variant.
type MergedSection struct {
	Variant string
	Fields  []MergedField
}

// Merged is the union of the fields of every member of a variant group.
type Merged struct {
	Group    *VariantGroup
	Sections []MergedSection
	Address  *MergedField
	BitSize  int
	Array    bool
}

// Fields returns the merged fields in order. The address field, if any,
// appears at the position it was first declared.
func (m *Merged) Fields() []MergedField {
	var fields []MergedField
	for _, s := range m.Sections {
		fields = append(fields, s.Fields...)
	}
	return fields
}

// CheckWidths verifies that every member of every group declares the same
// bit width.
func (db *Database) CheckWidths() error {
	for _, g := range db.groups {
		first := g.Members[0].Register
		for _, m := range g.Members[1:] {
			if m.Register.BitSize != first.BitSize {
				return &Error{
					Pos: m.Register.Pos,
					Err: fmt.Errorf("%w: %s is %d bits for %s but %d bits for %s", ErrVariantSize,
						g.Name, first.BitSize, g.Members[0].Variant, m.Register.BitSize, m.Variant),
				}
			}
		}
	}
	return nil
}

// Merge checks the variant groups and returns the merged form of every group
// with more than one member. A field name seen in more than one variant
// keeps its first definition; only the first address field is kept.
func (db *Database) Merge() ([]*Merged, error) {
	if err := db.CheckWidths(); err != nil {
		return nil, err
	}

	var merged []*Merged
	for _, g := range db.groups {
		if len(g.Members) < 2 {
			continue
		}

		m := &Merged{Group: g}
		seen := map[string]struct{}{}
		for _, member := range g.Members {
			reg := member.Register
			m.BitSize = reg.BitSize
			m.Array = reg.Array != nil

			section := MergedSection{Variant: member.Variant}
			for _, f := range reg.Bitset.Fields {
				name := AccessorName(reg, f)
				if _, ok := seen[name]; ok {
					continue
				}
				seen[name] = struct{}{}

				mf := MergedField{Name: name, Field: f, Register: reg}
				if f.Type.IsAddress() {
					if m.Address == nil {
						m.Address = &mf
						section.Fields = append(section.Fields, mf)
					}
					continue
				}
				section.Fields = append(section.Fields, mf)
			}
			m.Sections = append(m.Sections, section)
		}
		merged = append(merged, m)
	}
	return merged, nil
}
