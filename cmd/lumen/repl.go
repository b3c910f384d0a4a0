package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"lumen/vm"
)

var errorColor = color.New(color.FgRed)

const banner = `lumen — a small bytecode-compiled scripting language
type an expression or statement and press enter; Ctrl+D to exit`

// replCmd implements the `repl` subcommand: one persistent vm.VM against
// which each line is compiled and run in turn. Globals survive between
// lines; the VM's stack and pc are reset every line.
type replCmd struct {
	verbose bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive lumen session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive lumen session.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.verbose, "verbose", false, "log compile/run diagnostics to stderr")
}

func (r *replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	fmt.Println(banner)

	log := logrus.New()
	if r.verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	rl, err := readline.New("lumen> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	machine := vm.New()

	for {
		line, err := rl.Readline()
		if err != nil {
			return subcommands.ExitSuccess
		}
		if line == "" {
			continue
		}
		rl.SaveHistory(line)

		r.evalLine(log, machine, line)
	}
}

func (r *replCmd) evalLine(log *logrus.Logger, machine *vm.VM, line string) {
	chunk, err := compileSource(log, line)
	if err != nil {
		errorColor.Println(err)
		return
	}
	if err := machine.Run(chunk); err != nil {
		errorColor.Println(err)
	}
}
