package lint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"omibyte.io/rnn/database"
)

func testDatabase(t *testing.T) *database.Database {
	t.Helper()
	db := database.New()

	field := func(name string, low, high int, variant string) *database.Field {
		f, err := db.NewField(database.FieldSpec{Name: name, Low: low, High: high}, 32)
		if err != nil {
			t.Fatal(err)
		}
		f.Variant = variant
		return f
	}

	shared := database.NewBitset("a6xx_cntl")
	shared.Pos = database.Pos{File: "a6xx.xml", Line: 10, Col: 2}
	shared.Append(field("MODE", 0, 3, ""))
	flag := field("FLAG", 3, 3, "")
	flag.Pos = database.Pos{File: "a6xx.xml", Line: 12, Col: 3}
	shared.Append(flag)
	shared.Append(field("A6XX_ONLY", 4, 7, "A6XX"))
	shared.Append(field("A7XX_ONLY", 4, 7, "A7XX"))
	db.AddBitset(shared)

	inline := database.NewBitset("RB_CNTL")
	inline.Inline = true
	inline.Append(field("X", 0, 7, ""))
	inline.Append(field("Y", 8, 15, ""))

	for _, reg := range []*database.Register{
		{Name: "RB_CNTL", Prefix: "A6XX", Offset: 0x20, BitSize: 32, Bitset: inline, Pos: database.Pos{File: "a6xx.xml", Line: 20}},
		{Name: "RB_OTHER", Prefix: "A6XX", Offset: 0x20, BitSize: 32, Bitset: shared, Pos: database.Pos{File: "a6xx.xml", Line: 30}},
		{Name: "RB_CNTL", Prefix: "A7XX", Offset: 0x20, BitSize: 32, Bitset: inline, Pos: database.Pos{File: "a6xx.xml", Line: 40}},
	} {
		db.AddRegister(reg)
	}
	return db
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	engine, err := New(ctx, "")
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	violations, err := engine.Evaluate(ctx, testDatabase(t))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	rules := map[string]int{}
	for _, v := range violations {
		rules[v.Rule]++
	}
	if rules["overlapping_fields"] != 1 {
		t.Errorf("expected one overlapping_fields finding, got %v", violations)
	}
	if rules["duplicate_offset"] != 1 {
		t.Errorf("expected one duplicate_offset finding, got %v", violations)
	}

	for _, v := range violations {
		switch v.Rule {
		case "overlapping_fields":
			if v.Line != 12 || !strings.Contains(v.Message, "MODE and FLAG") {
				t.Errorf("unexpected finding %s", v)
			}
		case "duplicate_offset":
			if v.Line != 30 || !strings.Contains(v.Message, "0x20") {
				t.Errorf("unexpected finding %s", v)
			}
		}
	}
}

func TestPolicyDir(t *testing.T) {
	dir := t.TempDir()
	policy := `package rnn.lint

import rego.v1

violations contains v if {
	some r in input.registers
	startswith(r.name, "RB_OTHER")
	v := {"rule": "no_other", "file": r.file, "line": r.line, "message": r.name}
}
`
	if err := os.WriteFile(filepath.Join(dir, "extra.rego"), []byte(policy), 0640); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	engine, err := New(ctx, dir)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	violations, err := engine.Evaluate(ctx, testDatabase(t))
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, v := range violations {
		if v.Rule == "no_other" && v.Line == 30 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the extra policy to run, got %v", violations)
	}
}

func TestPolicyDirEmpty(t *testing.T) {
	if _, err := New(context.Background(), t.TempDir()); err == nil {
		t.Error("expected an error for a directory without policies")
	}
}

func TestEvaluateEmpty(t *testing.T) {
	ctx := context.Background()
	engine, err := New(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	violations, err := engine.Evaluate(ctx, database.New())
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 0 {
		t.Errorf("expected no findings, got %v", violations)
	}
}
