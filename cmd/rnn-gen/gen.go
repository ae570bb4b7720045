package main

import (
	"io"
	"log"

	"github.com/spf13/cobra"

	"omibyte.io/rnn/builder"
)

func newGenCmd(stdout io.Writer, logger *log.Logger) *cobra.Command {
	var opts builder.Options

	cmd := &cobra.Command{
		Use:   "rnn-gen [flags] <rnn-path> <file.xml>",
		Short: "Generate a C header from a rules-ng register database",
		Long:  "Generate a C header with register offsets, field masks, shifts and encoders from a rules-ng XML register database, or pack structures and variant dispatch helpers with --pack-structs.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RnnPath = args[0]
			opts.Input = args[1]
			opts.Stdout = stdout
			opts.Logger = logger
			return builder.Generate(cmd.Context(), opts)
		},
	}

	// Errors are reported by the caller
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	flags := cmd.Flags()
	flags.BoolVar(&opts.PackStructs, "pack-structs", false, "Generate pack structures and variant dispatch helpers")
	flags.StringVarP(&opts.Output, "output", "o", "", "Output file. Default: stdout")
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file")
	flags.BoolVar(&opts.NoValidate, "no-validate", false, "Disable schema validation")
	flags.StringVar(&opts.SchemaFile, "schema", "", "CUE schema replacing the one named by the database")
	flags.BoolVar(&opts.Lint, "lint", false, "Run lint policies and print warnings")
	flags.StringVar(&opts.PolicyDir, "policy", "", "Directory of additional .rego lint policies")
	flags.StringVarP(&opts.DepsFile, "deps", "M", "", "Write a make dependency file. Requires --output")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log progress")

	return cmd
}
