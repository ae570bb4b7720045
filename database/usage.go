package database

import "golang.org/x/exp/slices"

// UsageEntry is the sorted set of register offsets touched under one usage
// tag for one variant.
type UsageEntry struct {
	Usage   string
	Variant string
	Offsets []int64
}

// UsageTable expands the usage tags into per variant offset lists. Registers
// that belong to a variant group are listed only under their own variant;
// all others are listed under every variant.
func (db *Database) UsageTable() []UsageEntry {
	type key struct{ usage, variant string }

	var order []key
	regs := map[key][]*Register{}
	add := func(k key, reg *Register) {
		if _, ok := regs[k]; !ok {
			order = append(order, k)
		}
		regs[k] = append(regs[k], reg)
	}

	variants := db.Variants()
	for _, u := range db.usages {
		for _, reg := range u.Registers {
			if g, ok := db.groupIndex[reg.Name]; ok {
				// A redeclared variant replaces its register
				if member, ok := g.Member(reg.Variant); ok && member == reg {
					add(key{u.Name, reg.Variant}, reg)
				}
				continue
			}
			for _, v := range variants {
				add(key{u.Name, v}, reg)
			}
		}
	}

	table := make([]UsageEntry, 0, len(order))
	for _, k := range order {
		var offsets []int64
		for _, reg := range regs[k] {
			offsets = append(offsets, reg.Offsets()...)
		}
		slices.Sort(offsets)
		table = append(table, UsageEntry{Usage: k.usage, Variant: k.variant, Offsets: offsets})
	}
	return table
}
