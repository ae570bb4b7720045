package builder

import "errors"

var (
	ErrNoInput         = errors.New("no description file provided")
	ErrDepsNeedsOutput = errors.New("a dependency file requires an output file")
	ErrNoStdout        = errors.New("no output file or writer provided")
)
