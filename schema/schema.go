// Package schema validates element attributes of a register database
// against a CUE contract.
package schema

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaFS embed.FS

// Schema holds a compiled attribute contract.
type Schema struct {
	// Source names the file the schema was compiled from.
	Source string

	ctx    *cue.Context
	schema cue.Value
}

// Error reports an element whose attributes violate the schema.
type Error struct {
	Element string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema validation failed for <%s>: %v", e.Element, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New compiles the embedded schema.
func New() (*Schema, error) {
	schemaBytes, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema: %w", err)
	}
	return compile("schema.cue", schemaBytes)
}

// Load compiles the schema at path.
func Load(path string) (*Schema, error) {
	schemaBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return compile(path, schemaBytes)
}

func compile(source string, schemaBytes []byte) (*Schema, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaBytes, cue.Filename(source))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	elements := schema.LookupPath(cue.ParsePath("elements"))
	if !elements.Exists() {
		return nil, fmt.Errorf("%s: schema does not define elements", source)
	}

	return &Schema{
		Source: source,
		ctx:    ctx,
		schema: elements,
	}, nil
}

// Hint extracts the schema file name from a schemaLocation attribute, which
// holds a namespace followed by the schema location.
func Hint(location string) string {
	fields := strings.Fields(location)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Locate returns the schema for a description unit in dir carrying the
// given schemaLocation hint. A .cue file with the hinted schema's base name
// next to the unit, or one directory up, takes precedence over the embedded
// schema.
func Locate(dir, location string) (*Schema, error) {
	hint := Hint(location)
	if hint != "" {
		name := strings.TrimSuffix(filepath.Base(hint), filepath.Ext(hint)) + ".cue"
		for _, d := range []string{dir, filepath.Join(dir, "..")} {
			path := filepath.Join(d, name)
			if _, err := os.Stat(path); err == nil {
				return Load(path)
			}
		}
	}
	return New()
}

// Validate checks the attributes of one element. Element kinds the schema
// does not describe are accepted.
func (s *Schema) Validate(kind string, attrs map[string]string) error {
	def := s.schema.LookupPath(cue.MakePath(cue.Str(kind)))
	if !def.Exists() {
		return nil
	}

	data := s.ctx.Encode(attrs)
	if data.Err() != nil {
		return fmt.Errorf("encoding attributes: %w", data.Err())
	}

	unified := def.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		errs := cueerrors.Errors(err)
		if len(errs) > 0 {
			err = errs[0]
		}
		return &Error{Element: kind, Err: err}
	}
	return nil
}
