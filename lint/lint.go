// Package lint runs rego policies over a finished register database.
// Findings are warnings; they never fail a build.
package lint

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"omibyte.io/rnn/database"
)

//go:embed lint.rego
var builtinPolicy string

const query = "data.rnn.lint.violations"

// Engine evaluates the lint policies.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Violation is a single lint finding.
type Violation struct {
	Rule    string `json:"rule"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", v.File, v.Line, v.Rule, v.Message)
}

// Input is the data structure passed to OPA
type Input struct {
	Bitsets   []Bitset   `json:"bitsets"`
	Registers []Register `json:"registers"`
}

type Bitset struct {
	Name   string  `json:"name"`
	File   string  `json:"file"`
	Line   int     `json:"line"`
	Fields []Field `json:"fields"`
}

type Field struct {
	Name    string `json:"name"`
	Low     int    `json:"low"`
	High    int    `json:"high"`
	Variant string `json:"variant"`
	File    string `json:"file"`
	Line    int    `json:"line"`
}

type Register struct {
	Name    string `json:"name"`
	Prefix  string `json:"prefix"`
	Variant string `json:"variant"`
	Offset  int64  `json:"offset"`
	Array   bool   `json:"array"`
	File    string `json:"file"`
	Line    int    `json:"line"`
}

// New prepares the builtin policy together with every .rego file in
// policyDir, if set. Additional policies extend package rnn.lint.
func New(ctx context.Context, policyDir string) (*Engine, error) {
	modules := []func(*rego.Rego){rego.Module("lint.rego", builtinPolicy)}

	if policyDir != "" {
		files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("finding policy files: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no policy files found in %s", policyDir)
		}

		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f, err)
			}
			modules = append(modules, rego.Module(f, string(content)))
		}
	}

	opts := append(modules, rego.Query(query))
	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing violations query: %w", err)
	}
	return &Engine{query: prepared}, nil
}

// NewInput flattens db into the policy input. Register owned bitsets are
// listed under the register's full name.
func NewInput(db *database.Database) Input {
	var input Input
	seen := map[*database.Bitset]struct{}{}

	addBitset := func(name string, b *database.Bitset) {
		if _, ok := seen[b]; ok {
			return
		}
		seen[b] = struct{}{}

		bs := Bitset{Name: name, File: b.Pos.File, Line: b.Pos.Line, Fields: []Field{}}
		for _, f := range b.Fields {
			bs.Fields = append(bs.Fields, Field{
				Name:    f.Name,
				Low:     f.Low,
				High:    f.High,
				Variant: f.Variant,
				File:    f.Pos.File,
				Line:    f.Pos.Line,
			})
		}
		input.Bitsets = append(input.Bitsets, bs)
	}

	for _, b := range db.Bitsets() {
		addBitset(b.Name, b)
	}

	for _, reg := range db.Registers() {
		addBitset(reg.FullName(), reg.Bitset)
		input.Registers = append(input.Registers, Register{
			Name:    reg.Name,
			Prefix:  reg.Prefix,
			Variant: reg.Variant,
			Offset:  reg.Offset,
			Array:   reg.Array != nil,
			File:    reg.Pos.File,
			Line:    reg.Pos.Line,
		})
	}

	if input.Bitsets == nil {
		input.Bitsets = []Bitset{}
	}
	if input.Registers == nil {
		input.Registers = []Register{}
	}
	return input
}

// Evaluate runs the policies against db and returns the findings ordered by
// position.
func (e *Engine) Evaluate(ctx context.Context, db *database.Database) ([]Violation, error) {
	inputMap, err := structToMap(NewInput(db))
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}

	var violations []Violation
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		values, ok := rs[0].Expressions[0].Value.([]interface{})
		if ok {
			for _, v := range values {
				vmap, ok := v.(map[string]interface{})
				if !ok {
					continue
				}
				violations = append(violations, Violation{
					Rule:    getString(vmap, "rule"),
					File:    getString(vmap, "file"),
					Line:    getInt(vmap, "line"),
					Message: getString(vmap, "message"),
				})
			}
		}
	}

	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Message < b.Message
	})
	return violations, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
