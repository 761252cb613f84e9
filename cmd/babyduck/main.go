// cmd/babyduck/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"babyduck/cmd/babyduck/commands"
	"babyduck/internal/buildutil"
	"babyduck/internal/debugger"
	"babyduck/internal/driver"
	"babyduck/internal/golden"
	"babyduck/internal/repl"
	"babyduck/internal/vm"
)

const version = "1.0.0"

var buildDate = time.Now().Format("2006-01-02")

var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
	"t": "test",
	"b": "build",
	"d": "debug",
	"w": "watch",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		showVersion()
	case "run":
		runFile(args[1:])
	case "repl":
		repl.Start(os.Stdin, os.Stdout)
	case "debug":
		debugFile(args[1:])
	case "test":
		runTests(args[1:])
	case "build":
		if err := commands.BuildCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "watch":
		if err := commands.WatchCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "clean":
		if err := commands.CleanCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "init":
		if err := commands.InitCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func runFile(args []string) {
	if len(args) == 0 {
		log.Fatal("run requires a file argument")
	}
	filename := args[0]

	if strings.HasSuffix(filename, ".bdq") {
		runCompiled(filename)
		return
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("could not read file: %v", err)
	}
	if err := driver.Run(string(source), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runCompiled(filename string) {
	f, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open bytecode file: %v", err)
	}
	defer f.Close()

	loaded, err := buildutil.Deserialize(f)
	if err != nil {
		log.Fatalf("could not load bytecode: %v", err)
	}

	machine, err := vm.NewWithConsts(loaded.Quads, loaded.Consts, loaded.Funcs, os.Stdout)
	if err != nil {
		log.Fatalf("could not start VM: %v", err)
	}
	if err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func debugFile(args []string) {
	if len(args) == 0 {
		log.Fatal("debug requires a file argument")
	}
	filename := args[0]
	source, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("could not read file: %v", err)
	}

	program, err := driver.Compile(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	dbg, err := debugger.New(program, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("could not start debugger: %v", err)
	}
	if err := dbg.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runTests(args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	cases, err := golden.Discover(dir)
	if err != nil {
		log.Fatalf("error discovering fixtures: %v", err)
	}
	if len(cases) == 0 {
		fmt.Println("no .bd/.out fixture pairs found")
		return
	}

	results, err := golden.RunAll(context.Background(), cases, 4)
	if err != nil {
		log.Fatalf("error running fixtures: %v", err)
	}

	fmt.Print(golden.Summary(results))

	for _, r := range results {
		if !r.Passed() {
			os.Exit(1)
		}
	}
}

func showUsage() {
	fmt.Println("Babyduck - a small imperative teaching language")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  babyduck run <file.bd|file.bdq>   Run a Babyduck program         (alias: r)")
	fmt.Println("  babyduck debug <file.bd>          Debug a Babyduck program       (alias: d)")
	fmt.Println("  babyduck repl                     Start the interactive REPL     (alias: i)")
	fmt.Println("  babyduck test [dir]                Run .bd/.out fixtures          (alias: t)")
	fmt.Println()
	fmt.Println("Project management:")
	fmt.Println("  babyduck init [name]              Scaffold a new project")
	fmt.Println("  babyduck build [dir]              Compile to a .bdq artifact     (alias: b)")
	fmt.Println("  babyduck watch [dir]               Rebuild on every change         (alias: w)")
	fmt.Println("  babyduck clean [dir]               Remove build artifacts")
	fmt.Println()
	fmt.Println("  babyduck version                  Show version information")
	fmt.Println("  babyduck help                      Show this help")
}

func showVersion() {
	fmt.Printf("Babyduck %s\n", version)
	fmt.Printf("Build date: %s\n", buildDate)
}
