package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"lumen/compiler"
	"lumen/lexer"
	"lumen/vm"
)

// runCmd implements the `run` subcommand: compile a source file to a Chunk
// and execute it once against a fresh VM.
type runCmd struct {
	verbose bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "compile and execute a lumen source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Compile and execute a lumen source file.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.verbose, "verbose", false, "log compile/run diagnostics to stderr")
}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 file not provided")
		return subcommands.ExitUsageError
	}

	log := logrus.New()
	if r.verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	chunk, err := compileSource(log, string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	machine := vm.New()
	if err := machine.Run(chunk); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// compileSource runs the lexer then the compiler, logging diagnostic
// counters without touching stdout, which is reserved for `print`.
func compileSource(log *logrus.Logger, source string) (*compiler.Chunk, error) {
	tokens, lexErrs := lexer.New(source).Scan()
	log.WithField("tokenCount", len(tokens)).Debug("lexed source")

	chunk, err := compiler.Compile(tokens, lexErrs)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"constantCount":    len(chunk.Constants),
		"instructionCount": chunk.Len(),
	}).Debug("compiled chunk")
	return chunk, nil
}
