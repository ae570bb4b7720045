package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const root = `<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://nouveau.freedesktop.org/">
<domain name="D" width="32">
	<reg32 offset="0x0010" name="R">
		<bitfield name="EN" pos="3" type="boolean"/>
		<bitfield name="DEPTH" low="4" high="23" type="float"/>
	</reg32>
</domain>
</database>
`

func writeRoot(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "root.xml")
	if err := os.WriteFile(file, []byte(content), 0640); err != nil {
		t.Fatal(err)
	}
	return dir, file
}

func execute(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	status := run(context.Background(), args, &stdout, log.New(&stderr, "rnn-gen: ", 0))
	return status, stdout.String(), stderr.String()
}

func TestRunErrors(t *testing.T) {
	dir, file := writeRoot(t, root)

	status, stdout, stderr := execute(dir, file)
	if status != 1 {
		t.Errorf("expected exit status 1, got %d", status)
	}
	if stdout != "" {
		t.Errorf("expected no output, got:\n%s", stdout)
	}
	expected := "rnn-gen: " + file + ":6:"
	if !strings.HasPrefix(stderr, expected) || !strings.Contains(stderr, "field DEPTH: floats should be 16 or 32 bit fields") {
		t.Errorf("got %q, expected a positioned error starting with %q", stderr, expected)
	}
}

func TestRunArgs(t *testing.T) {
	if status, _, stderr := execute("only-one"); status != 1 || !strings.Contains(stderr, "accepts 2 arg(s)") {
		t.Errorf("expected an argument error, got %d %q", status, stderr)
	}

	dir, file := writeRoot(t, root)
	if status, _, stderr := execute("-M", filepath.Join(dir, "out.d"), dir, file); status != 1 || !strings.Contains(stderr, "requires an output file") {
		t.Errorf("expected a deps error, got %d %q", status, stderr)
	}
}

func TestRunOutput(t *testing.T) {
	dir, file := writeRoot(t, strings.Replace(root, `high="23"`, `high="19"`, 1))
	output := filepath.Join(dir, "root.xml.h")

	status, stdout, stderr := execute("-v", "-o", output, dir, file)
	if status != 0 {
		t.Fatalf("unexpected failure %q", stderr)
	}
	if stdout != "" {
		t.Errorf("expected the header in %s, got stdout:\n%s", output, stdout)
	}
	if !strings.Contains(stderr, "rnn-gen: parsing "+file) || !strings.Contains(stderr, "rnn-gen: wrote "+output) {
		t.Errorf("expected progress messages, got %q", stderr)
	}

	buf, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buf), "static inline uint32_t D_R_DEPTH(float val)\n{\n\treturn ((_mesa_float_to_half(val)) << D_R_DEPTH__SHIFT) & D_R_DEPTH__MASK;\n}\n") {
		t.Errorf("expected a half float encoder:\n%s", buf)
	}
}
