// Entry point for the slox interpreter.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"slox/ast"
	"slox/interpreter"
	"slox/loxerr"
	"slox/parser"
	"slox/resolver"
)

// Exit codes. The static and runtime error codes follow the sysexits convention; the usage code is the one the flag
// package uses.
const (
	exitCodeUsage        = 2
	exitCodeStaticError  = 65
	exitCodeRuntimeError = 70
)

var (
	cmd      = flag.String("c", "", "Program passed in as string")
	printAST = flag.Bool("p", false, "Print the AST only")
	debug    = flag.Bool("debug", false, "Log the timing of each interpretation phase to stderr")

	cpuProfile = flag.String("cpuprofile", "", "Write a CPU profile to the specified file before exiting.")
	memProfile = flag.String("memprofile", "", "Write an allocation profile to the file before exiting.")
	traceFile  = flag.String("trace", "", "Write an execution trace to the specified file before exiting.")
)

var logger = zerolog.Nop()

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: slox [options] [script]\n")
	fmt.Fprintf(flag.CommandLine.Output(), "\n")
	fmt.Fprintf(flag.CommandLine.Output(), "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *debug {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create CPU profile: %s\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to close CPU profile: %s\n", err)
			}
		}()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start CPU profile: %s\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}
	if *memProfile != "" {
		defer func() {
			f, err := os.Create(*memProfile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to create memory profile: %s\n", err)
				return
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write memory profile: %s\n", err)
			}
		}()
	}
	if *traceFile != "" {
		f, err := os.Create(*traceFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create trace output file: %s\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to close trace file: %s\n", err)
			}
		}()
		if err := trace.Start(f); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start trace: %s\n", err)
			os.Exit(1)
		}
		defer trace.Stop()
	}

	if *cmd != "" {
		exit(run(strings.NewReader(*cmd), "<string>", interpreter.New()))
		return
	}

	switch len(flag.Args()) {
	case 0:
		if err := runREPL(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case 1:
		runFile(flag.Arg(0))
	default:
		flag.Usage()
		os.Exit(exitCodeUsage)
	}
}

// exit prints err, if any, and terminates the process with the conventional exit code: 65 for static errors and 70 for
// runtime errors.
func exit(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	runtimeErr := &loxerr.RuntimeError{}
	if errors.As(err, &runtimeErr) {
		os.Exit(exitCodeRuntimeError)
	}
	os.Exit(exitCodeStaticError)
}

// run parses, resolves, and interprets the source code read from r.
func run(r io.Reader, filename string, interpreter *interpreter.Interpreter) error {
	start := time.Now()
	program, err := parser.Parse(r, filename)
	logger.Debug().Dur("took", time.Since(start)).Int("stmts", len(program.Stmts)).Msg("parsed")
	if *printAST {
		ast.Print(program)
		return err
	}
	if err != nil {
		return err
	}

	start = time.Now()
	localDeclDistancesByIdent, err := resolver.Resolve(program)
	logger.Debug().Dur("took", time.Since(start)).Int("idents", len(localDeclDistancesByIdent)).Msg("resolved")
	if err != nil {
		return err
	}

	start = time.Now()
	err = interpreter.Interpret(program, localDeclDistancesByIdent)
	logger.Debug().Dur("took", time.Since(start)).Msg("interpreted")
	return err
}

func runFile(name string) {
	f, err := os.Open(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()
	exit(run(f, name, interpreter.New()))
}

func runREPL() error {
	cfg := &readline.Config{
		Prompt: ">>> ",
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		cfg.HistoryFile = path.Join(homeDir, ".slox_history")
	} else {
		fmt.Fprintf(os.Stderr, "Can't get current user's home directory (%s). Command history will not be saved.\n", err)
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("running slox REPL: %s", err)
	}
	defer rl.Close()

	fmt.Fprintln(os.Stderr, "Welcome to slox!")

	interpreter := interpreter.New(interpreter.REPLMode())
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("unexpected error from readline: %s", err)
		}
		if err := run(strings.NewReader(line), "<repl>", interpreter); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	return nil
}
