package parser

import (
	"strings"
	"testing"

	"babyduck/internal/lexer"
)

func parseProgram(t *testing.T, src string) *Parser {
	t.Helper()
	tokens := lexer.NewScanner(src).ScanTokens()
	p := New(tokens)
	if _, err := p.Parse(); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return p
}

func parseProgramErr(t *testing.T, src string) error {
	t.Helper()
	tokens := lexer.NewScanner(src).ScanTokens()
	_, err := New(tokens).Parse()
	return err
}

func TestParseMinimalProgram(t *testing.T) {
	p := parseProgram(t, `program p; main { print("hello"); } end`)
	if p.gen.Quads().Len() == 0 {
		t.Fatalf("expected at least one quadruple")
	}
}

func TestParseVarsAndAssignment(t *testing.T) {
	p := parseProgram(t, `
		program p;
		var x, y : int;
		main {
			x = 1 + 2;
			y = x * 3;
			print(y);
		}
		end
	`)
	dump := p.gen.Quads().Dump()
	if !strings.Contains(dump, "+") || !strings.Contains(dump, "*") {
		t.Fatalf("expected arithmetic quadruples in dump, got:\n%s", dump)
	}
}

func TestParseIfElse(t *testing.T) {
	parseProgram(t, `
		program p;
		var x : int;
		main {
			x = 1;
			if (x > 0) {
				print(x);
			} else {
				print(0);
			};
		}
		end
	`)
}

func TestParseWhile(t *testing.T) {
	parseProgram(t, `
		program p;
		var i : int;
		main {
			i = 0;
			while (i < 10) do {
				print(i);
				i = i + 1;
			};
		}
		end
	`)
}

func TestParseFunctionCall(t *testing.T) {
	parseProgram(t, `
		program p;
		void greet(n : int) [
		{
			print(n);
		}
		];
		main {
			greet(5);
		}
		end
	`)
}

func TestParseNegativeLiteralFolding(t *testing.T) {
	p := parseProgram(t, `
		program p;
		var x : int;
		main {
			x = -5 + 1;
		}
		end
	`)
	dump := p.gen.Consts().Entries()
	found := false
	for _, entry := range dump {
		if entry.Value == int64(-5) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a folded constant -5, got %+v", dump)
	}
}

func TestParseNegativeSignOnIdentifierIsError(t *testing.T) {
	err := parseProgramErr(t, `
		program p;
		var x : int;
		main {
			x = -x;
		}
		end
	`)
	if err == nil {
		t.Fatalf("expected a syntax error for unary sign on identifier")
	}
}

func TestParseUndeclaredVariableError(t *testing.T) {
	err := parseProgramErr(t, `
		program p;
		main {
			x = 1;
		}
		end
	`)
	if err == nil {
		t.Fatalf("expected an undeclared-variable error")
	}
}

func TestParseMismatchedParenthesesIsError(t *testing.T) {
	err := parseProgramErr(t, `
		program p;
		var x : int;
		main {
			x = (1 + 2;
		}
		end
	`)
	if err == nil {
		t.Fatalf("expected a syntax error for unbalanced parentheses")
	}
}
