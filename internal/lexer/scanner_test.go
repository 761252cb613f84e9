package lexer

import "testing"

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	tokens := NewScanner("program void main end if else while do print foo").ScanTokens()
	want := []TokenType{
		TokenProgram, TokenVoid, TokenMain, TokenEnd, TokenIf, TokenElse,
		TokenWhile, TokenDo, TokenPrint, TokenID, TokenEOF,
	}
	got := tokenTypes(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanOperatorsAndPunctuation(t *testing.T) {
	tokens := NewScanner("+-*/<>!=(){}[]:,;=").ScanTokens()
	want := []TokenType{
		TokenPlus, TokenMinus, TokenMult, TokenDiv, TokenLess, TokenGreater,
		TokenNotEq, TokenLParen, TokenRParen, TokenLBrace, TokenRBrace,
		TokenLBrack, TokenRBrack, TokenColon, TokenComma, TokenSemicolon,
		TokenAssign, TokenEOF,
	}
	got := tokenTypes(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanNumbers(t *testing.T) {
	tokens := NewScanner("42 3.14 7").ScanTokens()
	if tokens[0].Type != TokenCteInt || tokens[0].Lexeme != "42" {
		t.Errorf("unexpected token 0: %+v", tokens[0])
	}
	if tokens[1].Type != TokenCteFloat || tokens[1].Lexeme != "3.14" {
		t.Errorf("unexpected token 1: %+v", tokens[1])
	}
	if tokens[2].Type != TokenCteInt {
		t.Errorf("unexpected token 2: %+v", tokens[2])
	}
}

func TestScanStringLiteral(t *testing.T) {
	tokens := NewScanner(`"hello world"`).ScanTokens()
	if tokens[0].Type != TokenCteString || tokens[0].Lexeme != "hello world" {
		t.Fatalf("unexpected token: %+v", tokens[0])
	}
}

func TestScanTracksLineNumbers(t *testing.T) {
	tokens := NewScanner("a\nb\nc").ScanTokens()
	if tokens[0].Line != 1 || tokens[1].Line != 2 || tokens[2].Line != 3 {
		t.Fatalf("unexpected line numbers: %d, %d, %d", tokens[0].Line, tokens[1].Line, tokens[2].Line)
	}
}

func TestScanIllegalCharacterRecordsErrorAndRecovers(t *testing.T) {
	s := NewScanner("a @ b")
	tokens := s.ScanTokens()
	if s.Err() == nil {
		t.Fatalf("expected an illegal-character error")
	}
	types := tokenTypes(tokens)
	if len(types) != 3 || types[0] != TokenID || types[1] != TokenID || types[2] != TokenEOF {
		t.Fatalf("expected the scanner to skip '@' and keep going, got %v", types)
	}
}

func TestScanUnterminatedStringRecordsError(t *testing.T) {
	s := NewScanner(`"unterminated`)
	s.ScanTokens()
	if s.Err() == nil {
		t.Fatalf("expected an unterminated-string error")
	}
}
