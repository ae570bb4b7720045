// Package parser builds a register database from rules-ng XML description
// units.
package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"omibyte.io/rnn/config"
	"omibyte.io/rnn/database"
	"omibyte.io/rnn/schema"
)

type Options struct {
	// RnnPath is the directory imports are resolved against.
	RnnPath string
	Config  config.Config

	// Schema, if set, replaces the schema named by the database element.
	Schema *schema.Schema

	// Logger receives notices. Progress messages are only logged when
	// Verbose is set.
	Logger  *log.Logger
	Verbose bool
}

type Parser struct {
	db      *database.Database
	options Options
	logger  *log.Logger
	imports *importGraph
}

// unit is one description file being parsed.
type unit struct {
	file   string
	dec    *xml.Decoder
	schema *schema.Schema

	// Position of the first byte of the current token.
	line, col int
}

func New(options Options) *Parser {
	logger := options.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Parser{
		db:      database.New(options.Config.ExtraTypes...),
		options: options,
		logger:  logger,
		imports: newImportGraph(),
	}
}

// Parse parses the root unit file and everything it imports.
func (p *Parser) Parse(file string) (*database.Database, error) {
	p.imports.node(file)
	if err := p.parseFile(nil, file, rootScope()); err != nil {
		return nil, err
	}
	return p.db, nil
}

func (p *Parser) debugf(format string, args ...any) {
	if p.options.Verbose {
		p.logger.Printf(format, args...)
	}
}

// Files returns every parsed unit, each one ahead of the units it imports.
func (p *Parser) Files() ([]string, error) {
	return p.imports.files()
}

func (p *Parser) parseFile(units []*unit, file string, base scope) error {
	// Open the input file
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	p.debugf("parsing %s", file)

	u := &unit{
		file: file,
		dec:  xml.NewDecoder(f),
	}
	units = append(units, u)

	scopes := []scope{base}
	for {
		u.line, u.col = u.dec.InputPos()
		tok, err := u.dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				return &database.Error{
					Pos: database.Pos{File: file, Line: syntaxErr.Line, Col: 1},
					Err: errors.New(syntaxErr.Msg),
				}
			}
			return u.errorf("%v", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if p.options.Config.Ignored(el.Name.Local) {
				if err := u.dec.Skip(); err != nil {
					return u.errorf("%v", err)
				}
				continue
			}

			next, err := p.start(units, scopes[len(scopes)-1], el)
			if err != nil {
				var perr *database.Error
				if errors.As(err, &perr) {
					return err
				}
				return u.wrap(err)
			}
			scopes = append(scopes, next)
		case xml.EndElement:
			scopes = scopes[:len(scopes)-1]
		}
	}
	return nil
}

func (u *unit) pos() database.Pos {
	return database.Pos{File: u.file, Line: u.line, Col: u.col}
}

func (u *unit) wrap(err error) error {
	return &database.Error{Pos: u.pos(), Err: err}
}

func (u *unit) errorf(format string, args ...any) error {
	return database.Errorf(u.pos(), format, args...)
}

// start handles a start element and returns the scope of its children.
func (p *Parser) start(units []*unit, s scope, el xml.StartElement) (scope, error) {
	u := units[len(units)-1]
	topLevel := len(units) == 1
	kind := el.Name.Local

	if _, ok := allowed[kind]; !ok {
		return s, fmt.Errorf("unknown element <%s>", kind)
	}

	attrs, err := attributes(el)
	if err != nil {
		return s, err
	}

	if kind == "database" {
		if err := p.selectSchema(u, attrs); err != nil {
			return s, err
		}
	}
	if u.schema != nil {
		if err := u.schema.Validate(kind, attrs); err != nil {
			return s, err
		}
	}

	switch kind {
	case "database":
	case "import":
		return s, p.parseImport(units, s, attrs)
	case "domain":
		return s, p.domain(&s, attrs)
	case "stripe":
		stripe, err := p.variant(&s, attrs)
		s.stripe = stripe
		return s, err
	case "enum":
		name, err := required(kind, attrs, "name")
		if err != nil {
			return s, err
		}
		e := database.NewEnum(name)
		e.Pos = u.pos()
		p.db.AddEnum(e)
		if topLevel {
			p.db.Declare(e)
		}
		s.enum = e
	case "value":
		return s, p.value(&s, attrs)
	case "reg32":
		return s, p.register(u, &s, attrs, 32, topLevel)
	case "reg64":
		return s, p.register(u, &s, attrs, 64, topLevel)
	case "array":
		return s, p.array(u, &s, attrs, topLevel)
	case "bitset":
		name, err := required(kind, attrs, "name")
		if err != nil {
			return s, err
		}
		b := database.NewBitset(name)
		b.Inline = attrs["inline"] == "yes"
		b.Pos = u.pos()
		p.db.AddBitset(b)
		if topLevel && !b.Inline {
			p.db.Declare(b)
		}
		s.bitset = b
	case "bitfield":
		if s.bitset == nil {
			return s, errors.New("<bitfield> outside of a bitset or register")
		}
		name, err := required(kind, attrs, "name")
		if err != nil {
			return s, err
		}
		f, err := p.field(u, &s, name, attrs)
		if err != nil {
			return s, err
		}
		if _, ok := attrs["variants"]; ok && (s.varset != nil || attrs["varset"] != "") {
			if f.Variant, err = p.variant(&s, attrs); err != nil {
				return s, err
			}
		}
		s.bitset.Append(f)
	}
	return s, nil
}

// selectSchema enables attribute validation for the rest of the unit when the
// database element names a schema.
func (p *Parser) selectSchema(u *unit, attrs map[string]string) error {
	location, ok := attrs["schemaLocation"]
	if !ok {
		return nil
	}

	if !p.options.Config.Validate {
		p.logger.Printf("%s: schema validation disabled, skipping", u.file)
		return nil
	}

	if p.options.Schema != nil {
		u.schema = p.options.Schema
		return nil
	}

	s, err := schema.Locate(filepath.Dir(u.file), location)
	if err != nil {
		return fmt.Errorf("cannot load schema for %s: %w", u.file, err)
	}
	p.debugf("%s: validating against %s", u.file, s.Source)
	u.schema = s
	return nil
}

func (p *Parser) parseImport(units []*unit, s scope, attrs map[string]string) error {
	u := units[len(units)-1]
	file, err := required("import", attrs, "file")
	if err != nil {
		return err
	}

	path := filepath.Join(p.options.RnnPath, file)
	if err := p.imports.add(u.file, path); err != nil {
		return err
	}

	if err := p.parseFile(units, path, s); err != nil {
		var perr *database.Error
		if errors.As(err, &perr) {
			return err
		}
		return fmt.Errorf("cannot import %s: %w", file, err)
	}
	return nil
}

func (p *Parser) domain(s *scope, attrs map[string]string) error {
	name, err := required("domain", attrs, "name")
	if err != nil {
		return err
	}
	s.domain = name

	if varset, ok := attrs["varset"]; ok {
		e, ok := p.db.Enum(varset)
		if !ok {
			return fmt.Errorf("%w '%s'", database.ErrUnknownVarset, varset)
		}
		s.varset = e
	}

	if prefixType, ok := attrs["prefix"]; ok {
		prefix, err := p.variant(s, attrs)
		if err != nil {
			return err
		}
		s.prefixType = prefixType
		s.prefix = prefix
	} else {
		s.prefixType = ""
		s.prefix = ""
	}
	return nil
}

func (p *Parser) value(s *scope, attrs map[string]string) error {
	if s.enum == nil {
		return errors.New("<value> outside of an enum")
	}

	name, err := required("value", attrs, "name")
	if err != nil {
		return err
	}

	var value *int64
	if str, ok := attrs["value"]; ok {
		v, err := database.ParseInteger(str)
		if err != nil {
			return err
		}
		value = &v
	}
	return s.enum.Add(name, value)
}

func (p *Parser) array(u *unit, s *scope, attrs map[string]string, topLevel bool) error {
	s.bitSize = 32

	variant, err := p.variant(s, attrs)
	if err != nil {
		return err
	}

	arr := &database.Array{
		Name:    attrs["name"],
		Prefix:  s.qualify(variant),
		Variant: variant,
		Usages:  usages(attrs),
		Pos:     u.pos(),
	}
	for _, a := range []struct {
		name string
		dst  *int64
	}{
		{"offset", &arr.Offset},
		{"stride", &arr.Stride},
		{"length", &arr.Length},
	} {
		str, err := required("array", attrs, a.name)
		if err != nil {
			return err
		}
		if *a.dst, err = database.ParseInteger(str); err != nil {
			return err
		}
	}

	if topLevel {
		p.db.Declare(arr)
	}
	s.array = arr
	return nil
}

func (p *Parser) register(u *unit, s *scope, attrs map[string]string, bitSize int, topLevel bool) error {
	kind := fmt.Sprintf("reg%d", bitSize)
	name, err := required(kind, attrs, "name")
	if err != nil {
		return err
	}
	str, err := required(kind, attrs, "offset")
	if err != nil {
		return err
	}
	offset, err := database.ParseInteger(str)
	if err != nil {
		return err
	}

	s.bitSize = bitSize

	// A type naming a bitset selects the register layout. Inline bitsets
	// are copied, shared ones are used as is.
	var bitset *database.Bitset
	if typ, ok := attrs["type"]; ok {
		if b, ok := p.db.Bitset(typ); ok {
			if b.Inline {
				bitset = b.Clone(name)
			} else {
				bitset = b
			}
		}
	}
	if bitset == nil {
		bitset = database.NewBitset(name)
		bitset.Inline = true
		bitset.Pos = u.pos()
		if _, ok := attrs["type"]; ok {
			f, err := p.field(u, s, "", attrs)
			if err != nil {
				return err
			}
			bitset.Append(f)
		}
	}

	variant, err := p.variant(s, attrs)
	if err != nil {
		return err
	}
	if variant == "" && s.array != nil {
		variant = s.array.Variant
	}

	if s.array != nil {
		name = s.array.Name + "_" + name
	}

	reg := &database.Register{
		Name:    name,
		Prefix:  s.qualify(variant),
		Array:   s.array,
		Offset:  offset,
		BitSize: bitSize,
		Bitset:  bitset,
		Variant: variant,
		Pos:     u.pos(),
	}

	p.db.AddRegister(reg)
	if topLevel {
		p.db.Declare(reg)
	}
	if variant != "" {
		p.db.AddVariant(reg, variant)
	}

	tags := usages(attrs)
	if tags == nil && s.array != nil {
		tags = s.array.Usages
	}
	p.db.AddUsages(reg, tags)

	s.bitset = bitset
	return nil
}

// field reads the layout attributes shared by bitfields and registers with
// a whole-register type.
func (p *Parser) field(u *unit, s *scope, name string, attrs map[string]string) (*database.Field, error) {
	spec := database.FieldSpec{
		Name: name,
		Type: attrs["type"],
		Pos:  u.pos(),
	}

	ints := map[string]int{}
	for _, key := range []string{"pos", "low", "high", "shr", "radix"} {
		str, ok := attrs[key]
		if !ok {
			continue
		}
		v, err := database.ParseInteger(str)
		if err != nil {
			return nil, err
		}
		ints[key] = int(v)
	}

	low, hasLow := ints["low"]
	high, hasHigh := ints["high"]
	if pos, ok := ints["pos"]; ok {
		spec.Low, spec.High = pos, pos
	} else if hasLow && hasHigh {
		spec.Low, spec.High = low, high
	} else {
		spec.Low, spec.High = 0, s.bitSize-1
	}
	spec.Shr = ints["shr"]
	if radix, ok := ints["radix"]; ok {
		spec.Radix = &radix
	}

	return p.db.NewField(spec, s.bitSize)
}

func usages(attrs map[string]string) []string {
	str, ok := attrs["usage"]
	if !ok {
		return nil
	}
	return strings.Split(str, ",")
}
