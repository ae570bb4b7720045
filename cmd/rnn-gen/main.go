package main

import (
	"context"
	"io"
	"log"
	"os"
)

func main() {
	log.SetPrefix("rnn-gen: ")
	log.SetFlags(0)

	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, log.Default()))
}

// run executes the command line in args and returns the exit status.
func run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	cmd := newGenCmd(stdout, logger)
	cmd.SetArgs(args)
	cmd.SetOut(logger.Writer())
	cmd.SetErr(logger.Writer())

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Print(err)
		return 1
	}
	return 0
}
