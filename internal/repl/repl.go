// Package repl implements an interactive read-eval-print loop for Babyduck.
// Babyduck has no statement-level grammar entry point (a program is always
// "program name; ... main { ... } end"), so the loop buffers lines until the
// user closes the program with "end" and compiles the whole buffer at once.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"babyduck/internal/driver"
)

// Start runs the REPL against in/out until the user types "quit" or closes
// the input stream.
func Start(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "Babyduck REPL | enter a full program ending in 'end', or 'quit' to exit")
	scanner := bufio.NewScanner(in)

	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			fmt.Fprint(out, ">>> ")
		} else {
			fmt.Fprint(out, "... ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if buf.Len() == 0 && strings.TrimSpace(line) == "quit" {
			return
		}

		buf.WriteString(line)
		buf.WriteString("\n")

		if strings.TrimSpace(line) != "end" {
			continue
		}

		source := buf.String()
		buf.Reset()

		if err := driver.Run(source, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}
