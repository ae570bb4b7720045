// Package builder runs the complete pipeline from a root description unit to
// a generated header.
package builder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"omibyte.io/rnn/config"
	"omibyte.io/rnn/database"
	"omibyte.io/rnn/generator"
	"omibyte.io/rnn/lint"
	"omibyte.io/rnn/parser"
	"omibyte.io/rnn/schema"
)

// Generate parses options.Input, checks the resulting database and writes
// the header. Nothing is written unless every step succeeds.
func Generate(ctx context.Context, options Options) error {
	if options.Input == "" {
		return ErrNoInput
	}
	if options.DepsFile != "" && options.Output == "" {
		return ErrDepsNeedsOutput
	}
	if options.Output == "" && options.Stdout == nil {
		return ErrNoStdout
	}

	logger := options.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}

	var override *schema.Schema
	if options.SchemaFile != "" {
		if override, err = schema.Load(options.SchemaFile); err != nil {
			return err
		}
	}

	p := parser.New(parser.Options{
		RnnPath: options.RnnPath,
		Config:  cfg,
		Schema:  override,
		Logger:  logger,
		Verbose: options.Verbose,
	})

	db, err := p.Parse(options.Input)
	if err != nil {
		return err
	}

	merged, err := db.Merge()
	if err != nil {
		return err
	}

	if options.Lint {
		if err := runLint(ctx, db, options.PolicyDir, logger); err != nil {
			return err
		}
	}

	genOptions := generator.Options{
		Guard:        generator.Guard(options.Input, options.PackStructs),
		VarsetType:   cfg.VarsetType,
		HexThreshold: cfg.HexThreshold,
	}

	var gen generator.Generator
	if options.PackStructs {
		gen = generator.NewPack(db, merged, genOptions)
	} else {
		gen = generator.NewHeader(db, genOptions)
	}

	var buf bytes.Buffer
	if err := gen.Generate(&buf); err != nil {
		return err
	}

	if options.Output == "" {
		_, err := options.Stdout.Write(buf.Bytes())
		return err
	}

	if err := os.WriteFile(options.Output, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if options.Verbose {
		logger.Printf("wrote %s", options.Output)
	}

	if options.DepsFile != "" {
		files, err := p.Files()
		if err != nil {
			return err
		}
		return writeDeps(options.DepsFile, options.Output, files)
	}
	return nil
}

func loadConfig(options Options) (config.Config, error) {
	cfg := config.Default()
	if options.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(options.ConfigFile); err != nil {
			return config.Config{}, err
		}
	}

	if options.NoValidate {
		cfg.Validate = false
	}
	return cfg, nil
}

func runLint(ctx context.Context, db *database.Database, policyDir string, logger *log.Logger) error {
	engine, err := lint.New(ctx, policyDir)
	if err != nil {
		return err
	}

	violations, err := engine.Evaluate(ctx, db)
	if err != nil {
		return err
	}

	// Findings are warnings only
	for _, v := range violations {
		logger.Printf("warning: %s", v)
	}
	return nil
}

// writeDeps writes a make rule for output listing every description unit,
// followed by an empty rule per unit so removed files do not break the
// build.
func writeDeps(path, output string, files []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", output, strings.Join(files, " "))
	for _, f := range files {
		fmt.Fprintf(&b, "\n%s:\n", f)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
