// Package golden discovers and runs ".bd"/".out" fixture pairs: a Babyduck
// source file and the exact stdout a correct implementation must produce.
package golden

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"babyduck/internal/driver"
)

// Case is a single discovered fixture: a source file paired with the file
// holding its expected stdout.
type Case struct {
	Name       string
	SourcePath string
	WantPath   string
}

// Result is the outcome of running one Case.
type Result struct {
	Case     Case
	Got      string
	Want     string
	Err      error
	Duration time.Duration
}

// Passed reports whether the case ran without error and matched exactly.
func (r Result) Passed() bool {
	return r.Err == nil && r.Got == r.Want
}

// Discover walks dir for "*.bd" files with a sibling "*.out" file, returning
// one Case per pair sorted by name.
func Discover(dir string) ([]Case, error) {
	var cases []Case
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".bd") {
			return nil
		}
		wantPath := strings.TrimSuffix(path, ".bd") + ".out"
		if _, statErr := os.Stat(wantPath); statErr != nil {
			return nil
		}
		cases = append(cases, Case{
			Name:       strings.TrimSuffix(filepath.Base(path), ".bd"),
			SourcePath: path,
			WantPath:   wantPath,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}

// Run compiles and executes a single fixture, comparing its stdout against
// the recorded expectation.
func Run(c Case) Result {
	start := time.Now()
	src, err := os.ReadFile(c.SourcePath)
	if err != nil {
		return Result{Case: c, Err: err, Duration: time.Since(start)}
	}
	want, err := os.ReadFile(c.WantPath)
	if err != nil {
		return Result{Case: c, Err: err, Duration: time.Since(start)}
	}

	var out bytes.Buffer
	runErr := driver.Run(string(src), &out)
	return Result{
		Case:     c,
		Got:      out.String(),
		Want:     string(want),
		Err:      runErr,
		Duration: time.Since(start),
	}
}

// RunAll runs every case, at most concurrency of them at once, returning
// results in the same order as cases. A concurrency of 0 or less means
// unbounded.
func RunAll(ctx context.Context, cases []Case, concurrency int) ([]Result, error) {
	results := make([]Result, len(cases))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Run(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Summary renders a pass/fail report across results.
func Summary(results []Result) string {
	var sb strings.Builder
	passed, failed := 0, 0
	for _, r := range results {
		if r.Passed() {
			passed++
			fmt.Fprintf(&sb, "PASS %s (%v)\n", r.Case.Name, r.Duration)
			continue
		}
		failed++
		if r.Err != nil {
			fmt.Fprintf(&sb, "FAIL %s: %v\n", r.Case.Name, r.Err)
			continue
		}
		fmt.Fprintf(&sb, "FAIL %s: got %q, want %q\n", r.Case.Name, r.Got, r.Want)
	}
	fmt.Fprintf(&sb, "\n%d passed, %d failed, %d total\n", passed, failed, len(results))
	return sb.String()
}
