// Package commands implements the babyduck CLI's project-level subcommands:
// build, watch, clean and init. Build, watch and clean wrap buildutil; init
// writes a starter project directly.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"babyduck/internal/buildutil"
)

// BuildCommand compiles the entry point of projectRoot (args[0] if given,
// else the current directory) into a ".bdq" artifact: main.bd, or the sole
// ".bd" file. Other ".bd" files are not compiled.
func BuildCommand(args []string) error {
	projectRoot := "."
	if len(args) > 0 {
		projectRoot = args[0]
	}
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve project path: %w", err)
	}

	result := buildutil.Build(&buildutil.BuildConfig{ProjectDir: absRoot, Verbose: true})
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "build error: %v\n", e)
		}
		return fmt.Errorf("build failed with %d error(s)", len(result.Errors))
	}
	fmt.Printf("[%s] built %s (%s) from %d source file(s) in %v\n",
		result.BuildID, result.OutputPath, humanize.Bytes(uint64(result.OutputSize)), len(result.SourceFiles), result.BuildTime)
	return nil
}

// WatchCommand rebuilds projectRoot every time one of its ".bd" files
// changes, until interrupted.
func WatchCommand(args []string) error {
	projectRoot := "."
	if len(args) > 0 {
		projectRoot = args[0]
	}
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve project path: %w", err)
	}

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", absRoot)
	return buildutil.Watch(&buildutil.WatchConfig{
		ProjectDir: absRoot,
		Verbose:    true,
		OnChange: func(files []string) error {
			fmt.Printf("rebuilding after change in %d file(s)...\n", len(files))
			return BuildCommand([]string{absRoot})
		},
	})
}

// CleanCommand removes every ".bdq" artifact next to a ".bd" source file
// under projectRoot.
func CleanCommand(args []string) error {
	projectRoot := "."
	if len(args) > 0 {
		projectRoot = args[0]
	}
	files, err := buildutil.FindBabyduckFiles(projectRoot)
	if err != nil {
		return fmt.Errorf("failed to scan project: %w", err)
	}

	removed := 0
	for _, f := range files {
		bdq := f[:len(f)-len(filepath.Ext(f))] + ".bdq"
		if _, err := os.Stat(bdq); err == nil {
			if err := os.Remove(bdq); err != nil {
				return fmt.Errorf("failed to remove %s: %w", bdq, err)
			}
			removed++
		}
	}
	fmt.Printf("removed %d build artifact(s)\n", removed)
	return nil
}

// InitCommand scaffolds a new Babyduck project directory.
func InitCommand(args []string) error {
	name := "babyduck-project"
	if len(args) > 0 {
		name = args[0]
	}
	if err := os.MkdirAll(name, 0755); err != nil {
		return err
	}

	main := `program main;

main {
    print("Hello from Babyduck!");
}
end
`
	if err := os.WriteFile(filepath.Join(name, "main.bd"), []byte(main), 0644); err != nil {
		return err
	}

	fmt.Printf("initialized new Babyduck project: %s\n", name)
	fmt.Printf("\nNext steps:\n  cd %s\n  babyduck run main.bd\n", name)
	return nil
}
