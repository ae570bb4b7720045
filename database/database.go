package database

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Decl is one of *Enum, *Bitset, *Array or *Register.
type Decl interface {
	isDecl()
}

// Database is the model built from one root description unit and
// everything it imports.
type Database struct {
	// Decls lists the declarations of the root unit in encounter order.
	Decls []Decl

	enums      map[string]*Enum
	bitsets    map[string]*Bitset
	registers  []*Register
	extraTypes map[string]struct{}

	groups     []*VariantGroup
	groupIndex map[string]*VariantGroup

	usages     []*Usage
	usageIndex map[string]*Usage
	variants   map[string]struct{}
}

// Usage is a usage tag and the registers tagged with it, in order.
type Usage struct {
	Name      string
	Registers []*Register
}

// New creates an empty database. extraTypes are accepted as field types and
// treated as aliases of uint.
func New(extraTypes ...string) *Database {
	db := &Database{
		enums:      map[string]*Enum{},
		bitsets:    map[string]*Bitset{},
		extraTypes: map[string]struct{}{},
		groupIndex: map[string]*VariantGroup{},
		usageIndex: map[string]*Usage{},
		variants:   map[string]struct{}{},
	}
	for _, typ := range extraTypes {
		db.extraTypes[typ] = struct{}{}
	}
	return db
}

func (db *Database) Declare(d Decl) {
	db.Decls = append(db.Decls, d)
}

// AddEnum registers e. A later enum with the same name shadows the earlier
// one.
func (db *Database) AddEnum(e *Enum) {
	db.enums[e.Name] = e
}

func (db *Database) Enum(name string) (*Enum, bool) {
	e, ok := db.enums[name]
	return e, ok
}

func (db *Database) AddBitset(b *Bitset) {
	db.bitsets[b.Name] = b
}

func (db *Database) Bitset(name string) (*Bitset, bool) {
	b, ok := db.bitsets[name]
	return b, ok
}

// AddRegister records reg regardless of the unit it was declared in.
func (db *Database) AddRegister(reg *Register) {
	db.registers = append(db.registers, reg)
}

func (db *Database) Registers() []*Register {
	return db.registers
}

// AddVariant records reg as the member of its variant group for variant.
func (db *Database) AddVariant(reg *Register, variant string) {
	group, ok := db.groupIndex[reg.Name]
	if !ok {
		group = &VariantGroup{Name: reg.Name}
		db.groupIndex[reg.Name] = group
		db.groups = append(db.groups, group)
	}
	group.set(variant, reg)
}

func (db *Database) Group(name string) (*VariantGroup, bool) {
	g, ok := db.groupIndex[name]
	return g, ok
}

func (db *Database) Groups() []*VariantGroup {
	return db.groups
}

// AddUsages tags reg with every usage in usages. Tagged registers contribute
// their qualifying prefix to the variant list of the usage table.
func (db *Database) AddUsages(reg *Register, usages []string) {
	if len(usages) == 0 {
		return
	}

	for _, name := range usages {
		u, ok := db.usageIndex[name]
		if !ok {
			u = &Usage{Name: name}
			db.usageIndex[name] = u
			db.usages = append(db.usages, u)
		}
		u.Registers = append(u.Registers, reg)
	}
	db.variants[reg.Prefix] = struct{}{}
}

func (db *Database) Usages() []*Usage {
	return db.usages
}

// Bitsets returns every declared bitset, including those from imported
// units, sorted by name.
func (db *Database) Bitsets() []*Bitset {
	names := maps.Keys(db.bitsets)
	slices.Sort(names)

	bitsets := make([]*Bitset, 0, len(names))
	for _, name := range names {
		bitsets = append(bitsets, db.bitsets[name])
	}
	return bitsets
}

// Variants returns the qualifying prefixes of every usage tagged register,
// sorted.
func (db *Database) Variants() []string {
	variants := maps.Keys(db.variants)
	slices.Sort(variants)
	return variants
}
