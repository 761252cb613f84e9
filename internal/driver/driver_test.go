package driver

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func run(t *testing.T, src string) string {
	t.Helper()
	var out bytes.Buffer
	if err := Run(src, &out); err != nil {
		t.Fatalf("unexpected error running program: %v", err)
	}
	return out.String()
}

func TestHelloWorld(t *testing.T) {
	got := run(t, `program t; main { print("Hola mundo"); } end`)
	if got != "Hola mundo\n" {
		t.Fatalf("got %q, want %q", got, "Hola mundo\n")
	}
}

func TestArithmeticAndDivisionSemantics(t *testing.T) {
	// "/" is always host true division, even between two ints, so `a`'s
	// printed value is not integer-truncated.
	got := run(t, `
		program t;
		var a : int;
		b : float;
		main {
			a = ((5*3)+(10-2))/7;
			b = 3.5*2.0 - 4.0/2.0;
			print(a);
			print(b);
		}
		end
	`)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines of output, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "3.2857") {
		t.Fatalf("expected a to print as true division 23/7, got %q", lines[0])
	}
	if lines[1] != "5" {
		t.Fatalf("expected b == 5.0, got %q", lines[1])
	}
}

func TestWhileLoop(t *testing.T) {
	got := run(t, `
		program t;
		var i : int;
		main {
			i = 0;
			while (i < 3) do {
				i = i + 1;
			};
			print(i);
		}
		end
	`)
	if got != "3\n" {
		t.Fatalf("got %q, want %q", got, "3\n")
	}
}

func TestIfElse(t *testing.T) {
	got := run(t, `
		program t;
		var x : int;
		main {
			x = 10;
			if (x > 5) {
				print(1);
			} else {
				print(0);
			};
		}
		end
	`)
	if got != "1\n" {
		t.Fatalf("got %q, want %q", got, "1\n")
	}
}

func TestDivisionByZeroAborts(t *testing.T) {
	var out bytes.Buffer
	err := Run(`program t; var x:int; main { x = 1/0; } end`, &out)
	if err == nil {
		t.Fatalf("expected a DivisionByZero error")
	}
	if !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected a division-by-zero message, got: %v", err)
	}
}

// factorialTemplate is a tail-recursive factorial: a recursive void function
// carrying the running product in its acc parameter and storing the final
// value in the global `result` rather than returning it, since Babyduck
// functions have no return-value protocol.
const factorialTemplate = `
program factorialTR;
var n, result: int;

void factorialTR(n: int, acc: int) [{
	if (n > 1) {
		factorialTR(n - 1, acc * n);
	} else {
		result = acc;
	};
}];

main {
	n = %d;
	factorialTR(n, 1);
	print(result);
}
end
`

func TestTailRecursiveFactorial(t *testing.T) {
	cases := []struct {
		n, want int
	}{
		{0, 1},
		{1, 1},
		{5, 120},
		{7, 5040},
		{10, 3628800},
	}
	for _, tc := range cases {
		got := run(t, fmt.Sprintf(factorialTemplate, tc.n))
		want := fmt.Sprintf("%d\n", tc.want)
		if got != want {
			t.Errorf("factorial(%d): got %q, want %q", tc.n, got, want)
		}
	}
}

// fibonacciTemplate is an iterative Fibonacci.
const fibonacciTemplate = `
program fib;
var n, a, b, i, tmp : int;

main {
	n = %d;
	a = 0;
	b = 1;
	i = 0;
	while (i < n) do {
		tmp = a + b;
		a = b;
		b = tmp;
		i = i + 1;
	};
	print(a);
}
end
`

func TestIterativeFibonacci(t *testing.T) {
	got := run(t, fmt.Sprintf(fibonacciTemplate, 30))
	if got != "832040\n" {
		t.Fatalf("fib(30): got %q, want %q", got, "832040\n")
	}
}
