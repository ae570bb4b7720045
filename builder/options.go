package builder

import (
	"io"
	"log"
)

type Options struct {
	RnnPath     string
	Input       string
	Output      string
	PackStructs bool
	ConfigFile  string
	NoValidate  bool
	SchemaFile  string
	Lint        bool
	PolicyDir   string
	DepsFile    string
	Verbose     bool

	// Stdout receives the header when Output is empty.
	Stdout io.Writer
	Logger *log.Logger
}
