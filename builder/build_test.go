package builder

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"omibyte.io/rnn/database"
)

func extract(t *testing.T, archive string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		path := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, f.Data, 0640); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func options(dir string, stdout, stderr *bytes.Buffer) Options {
	return Options{
		RnnPath: dir,
		Input:   filepath.Join(dir, "root.xml"),
		Stdout:  stdout,
		Logger:  log.New(stderr, "", 0),
	}
}

const booleanArchive = `
-- root.xml --
<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/">
<domain name="D" width="32">
	<reg32 offset="0x0010" name="R">
		<bitfield name="EN" pos="3" type="boolean"/>
	</reg32>
</domain>
</database>
`

func TestGenerateHeader(t *testing.T) {
	dir := extract(t, booleanArchive)
	var stdout, stderr bytes.Buffer

	if err := Generate(context.Background(), options(dir, &stdout, &stderr)); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	out := stdout.String()
	for _, s := range []string{
		"#ifndef ROOT_XML\n",
		"#define D_R_EN__MASK\t\t\t\t\t\t0x00000008\n",
		"#define D_R_EN__SHIFT\t\t\t\t\t\t3\n",
		"static inline uint32_t D_R_EN(bool val)\n",
		"#endif /* ROOT_XML */\n",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in:\n%s", s, out)
		}
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected log output %q", stderr.String())
	}
}

func TestGeneratePackStructs(t *testing.T) {
	dir := extract(t, booleanArchive)
	var stdout, stderr bytes.Buffer

	opts := options(dir, &stdout, &stderr)
	opts.PackStructs = true
	if err := Generate(context.Background(), opts); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "#ifndef ROOT_XML_STRUCTS\n") {
		t.Errorf("expected the pack guard:\n%s", out)
	}
	if !strings.Contains(out, "struct D_R {\n") || !strings.Contains(out, "pack_D_R(struct D_R fields)") {
		t.Errorf("expected a pack struct for D_R:\n%s", out)
	}
}

const sizeMismatchArchive = `
-- root.xml --
<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/">
<enum name="chip">
	<value name="A6XX"/>
	<value name="A7XX"/>
</enum>
<domain name="A6XX" width="32" prefix="variant" varset="chip">
	<reg32 offset="0x0100" name="CNTL" variants="A6XX"/>
	<reg64 offset="0x0100" name="CNTL" variants="A7XX"/>
</domain>
</database>
`

const floatWidthArchive = `
-- root.xml --
<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/">
<domain name="D" width="32">
	<reg32 offset="0x0010" name="R">
		<bitfield name="DEPTH" low="0" high="19" type="float"/>
	</reg32>
</domain>
</database>
`

const shrArchive = `
-- root.xml --
<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/">
<domain name="D" width="32">
	<reg32 offset="0x0010" name="R">
		<bitfield name="X" low="0" high="7" shr="70" type="uint"/>
	</reg32>
</domain>
</database>
`

const radixArchive = `
-- root.xml --
<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/">
<domain name="D" width="32">
	<reg32 offset="0x0010" name="R">
		<bitfield name="X" low="0" high="7" radix="-1" type="fixed"/>
	</reg32>
</domain>
</database>
`

func TestGenerateFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		archive string
		pack    bool
		err     error
		message string
	}{
		{"size mismatch", sizeMismatchArchive, false, database.ErrVariantSize, "root.xml:9:"},
		{"size mismatch packed", sizeMismatchArchive, true, database.ErrVariantSize, "root.xml:9:"},
		{"float width", floatWidthArchive, false, database.ErrFloatWidth, "field DEPTH"},
		{"shr range", shrArchive, false, database.ErrShrOutOfRange, "root.xml:5:2: field X"},
		{"radix range", radixArchive, true, database.ErrRadixOutOfRange, "root.xml:5:2: field X"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := extract(t, test.archive)
			var stdout, stderr bytes.Buffer

			opts := options(dir, &stdout, &stderr)
			opts.PackStructs = test.pack
			err := Generate(context.Background(), opts)
			if !errors.Is(err, test.err) {
				t.Fatalf("expected %v, got %v", test.err, err)
			}
			if !strings.Contains(err.Error(), test.message) {
				t.Errorf("expected %q in %q", test.message, err)
			}
			if stdout.Len() != 0 {
				t.Errorf("expected no output, got:\n%s", stdout.String())
			}

			output := filepath.Join(dir, "out.h")
			opts = options(dir, nil, &stderr)
			opts.Output = output
			opts.PackStructs = test.pack
			if err := Generate(context.Background(), opts); err == nil {
				t.Fatal("expected an error")
			}
			if _, err := os.Stat(output); !os.IsNotExist(err) {
				t.Errorf("output file should not exist, got %v", err)
			}
		})
	}
}

const importArchive = `
-- root.xml --
<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/">
<import file="common.xml"/>
<domain name="D" width="32">
	<reg32 offset="0x0010" name="R" type="common_mode"/>
</domain>
</database>
-- common.xml --
<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/">
<enum name="common_mode">
	<value name="MODE_A"/>
	<value name="MODE_B"/>
</enum>
</database>
`

func TestGenerateDeps(t *testing.T) {
	dir := extract(t, importArchive)
	var stderr bytes.Buffer

	output := filepath.Join(dir, "out.h")
	deps := filepath.Join(dir, "out.d")
	opts := options(dir, nil, &stderr)
	opts.Output = output
	opts.DepsFile = deps
	if err := Generate(context.Background(), opts); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	header, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(header), "enum common_mode {\n\tMODE_A = 0,\n\tMODE_B = 1,\n};\n") {
		t.Errorf("imported enum missing from header:\n%s", header)
	}

	buf, err := os.ReadFile(deps)
	if err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(dir, "root.xml")
	common := filepath.Join(dir, "common.xml")
	expected := output + ": " + root + " " + common + "\n\n" + root + ":\n\n" + common + ":\n"
	if string(buf) != expected {
		t.Errorf("got depfile %q, expected %q", buf, expected)
	}
}

func TestGenerateOptions(t *testing.T) {
	dir := extract(t, booleanArchive)
	var stdout, stderr bytes.Buffer

	opts := options(dir, &stdout, &stderr)
	opts.DepsFile = filepath.Join(dir, "out.d")
	if err := Generate(context.Background(), opts); !errors.Is(err, ErrDepsNeedsOutput) {
		t.Errorf("expected ErrDepsNeedsOutput, got %v", err)
	}

	opts = options(dir, &stdout, &stderr)
	opts.Input = ""
	if err := Generate(context.Background(), opts); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}

	opts = options(dir, nil, &stderr)
	if err := Generate(context.Background(), opts); !errors.Is(err, ErrNoStdout) {
		t.Errorf("expected ErrNoStdout, got %v", err)
	}
}

const overlapArchive = `
-- root.xml --
<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/">
<domain name="D" width="32">
	<reg32 offset="0x0010" name="R">
		<bitfield name="LO" low="0" high="7" type="uint"/>
		<bitfield name="MID" low="4" high="11" type="uint"/>
	</reg32>
</domain>
</database>
`

func TestGenerateLint(t *testing.T) {
	dir := extract(t, overlapArchive)
	var stdout, stderr bytes.Buffer

	opts := options(dir, &stdout, &stderr)
	if err := Generate(context.Background(), opts); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if stderr.Len() != 0 {
		t.Errorf("lint should be off by default, got %q", stderr.String())
	}

	stdout.Reset()
	opts.Lint = true
	if err := Generate(context.Background(), opts); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(stderr.String(), "warning: ") || !strings.Contains(stderr.String(), "overlapping_fields") {
		t.Errorf("expected an overlap warning, got %q", stderr.String())
	}
	if stdout.Len() == 0 {
		t.Error("lint findings should not suppress output")
	}
}

func TestGenerateConfig(t *testing.T) {
	dir := extract(t, sizeMismatchArchive)
	var stdout, stderr bytes.Buffer

	cfg := filepath.Join(dir, "rnn.yaml")
	if err := os.WriteFile(cfg, []byte("varsetType: 'not valid'\n"), 0640); err != nil {
		t.Fatal(err)
	}

	opts := options(dir, &stdout, &stderr)
	opts.ConfigFile = cfg
	if err := Generate(context.Background(), opts); err == nil || !strings.Contains(err.Error(), "varsetType") {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

const schemaArchive = `
-- root.xml --
<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/"
	xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
	xsi:schemaLocation="http://nouveau.freedesktop.org/ rules-ng.xsd">
<domain name="D" width="32">
	<reg32 offset="0x0010" name="R" access="rx"/>
</domain>
</database>
`

func TestGenerateNoValidate(t *testing.T) {
	dir := extract(t, schemaArchive)
	var stdout, stderr bytes.Buffer

	opts := options(dir, &stdout, &stderr)
	if err := Generate(context.Background(), opts); err == nil {
		t.Fatal("expected a schema error")
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no output, got:\n%s", stdout.String())
	}

	opts.NoValidate = true
	if err := Generate(context.Background(), opts); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(stderr.String(), "schema validation disabled, skipping") {
		t.Errorf("expected a skip notice, got %q", stderr.String())
	}
}
