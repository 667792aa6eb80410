// Command lox is the file-loading/REPL driver around package loxvm.
// It is an external collaborator of the interpreter core: nothing
// here affects compile or runtime semantics.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	loxvm "github.com/chazu/loxvm"
	"github.com/chazu/loxvm/internal/config"
)

func main() {
	trace := flag.Bool("trace", false, "enable VM instruction tracing")
	flag.Parse()
	args := flag.Args()

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(74)
	}
	if *trace {
		cfg.Debug.Trace = true
	}

	switch len(args) {
	case 0:
		repl(cfg)
	case 1:
		runFile(args[0], cfg)
	default:
		fmt.Fprintln(os.Stderr, "Usage: lox [path]")
		os.Exit(64)
	}
}

func repl(cfg *config.Config) {
	v := loxvm.New(os.Stdout)
	v.SetTrace(cfg.Debug.Trace)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if _, err := v.Interpret(scanner.Text()); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func runFile(path string, cfg *config.Config) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open file %q.\n", path)
		os.Exit(74)
	}

	v := loxvm.New(os.Stdout)
	v.SetTrace(cfg.Debug.Trace)
	result, err := v.Interpret(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(result.ExitCode())
}
