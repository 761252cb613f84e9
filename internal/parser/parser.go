// Package parser implements a recursive-descent producer for Babyduck's
// concrete syntax. It owns no semantic state of its own, driving
// internal/compiler.Generator directly at each grammar production instead
// of building an intermediate AST: a single pass from tokens to quadruples.
package parser

import (
	"fmt"
	"strconv"

	"babyduck/internal/bytecode"
	"babyduck/internal/compiler"
	"babyduck/internal/lexer"
	"babyduck/internal/symbols"
)

// Parser consumes a token stream and drives a Generator to build the
// program's quadruples, function directory and constants pool as it goes.
type Parser struct {
	tokens []lexer.Token
	pos    int
	gen    *compiler.Generator
}

// New returns a parser over tokens, wired to a fresh Generator.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens, gen: compiler.NewGenerator()}
}

// Parse recognizes an entire Babyduck program and returns the Generator
// holding the translated quadruples, or the first error encountered.
func (p *Parser) Parse() (*compiler.Generator, error) {
	if err := p.program(); err != nil {
		return nil, err
	}
	if !p.gen.StacksEmpty() {
		return nil, fmt.Errorf("Línea %d: internal error, expression stacks not empty at end of program", p.previous().Line)
	}
	return p.gen, nil
}

// --- token helpers (teacher's internal/parser/parser.go shape) ---

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.pos-1]
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

func (p *Parser) check(t lexer.TokenType) bool {
	return !p.atEnd() && p.peek().Type == t
}

func (p *Parser) advance() lexer.Token {
	if !p.atEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(t lexer.TokenType, what string) (lexer.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, fmt.Errorf("Línea %d: expected %s but found %q", p.peek().Line, what, p.peek().Lexeme)
}

func syntaxErrorf(line int, format string, args ...interface{}) error {
	return fmt.Errorf("Línea %d: "+format, append([]interface{}{line}, args...)...)
}

var opTokens = map[lexer.TokenType]bytecode.Op{
	lexer.TokenPlus:    bytecode.OpAdd,
	lexer.TokenMinus:   bytecode.OpSub,
	lexer.TokenMult:    bytecode.OpMul,
	lexer.TokenDiv:     bytecode.OpDiv,
	lexer.TokenGreater: bytecode.OpGT,
	lexer.TokenLess:    bytecode.OpLT,
	lexer.TokenNotEq:   bytecode.OpNE,
}

// --- grammar ---

// program ::= "program" ID ";" vars? funcs* "main" body "end"
func (p *Parser) program() error {
	if _, err := p.expect(lexer.TokenProgram, "'program'"); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenID, "program name"); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';'"); err != nil {
		return err
	}
	p.gen.PushInitialQuadruple()

	if err := p.varsBlock(symbols.GlobalFuncName); err != nil {
		return err
	}
	for p.check(lexer.TokenVoid) {
		if err := p.functionDef(); err != nil {
			return err
		}
	}
	if _, err := p.expect(lexer.TokenMain, "'main'"); err != nil {
		return err
	}
	if err := p.gen.PatchPrologue(); err != nil {
		return err
	}
	if err := p.body(symbols.GlobalFuncName); err != nil {
		return err
	}
	if err := p.gen.HandleFunctionEnd(symbols.GlobalFuncName, bytecode.OpEndProg); err != nil {
		return err
	}
	_, err := p.expect(lexer.TokenEnd, "'end'")
	return err
}

// varsBlock ::= ("var" declaration+)?
func (p *Parser) varsBlock(scope string) error {
	if !p.match(lexer.TokenVar) {
		return nil
	}
	for p.check(lexer.TokenID) {
		if err := p.declaration(scope); err != nil {
			return err
		}
	}
	return nil
}

// declaration ::= ID ("," ID)* ":" type ";"
func (p *Parser) declaration(scope string) error {
	first, err := p.expect(lexer.TokenID, "identifier")
	if err != nil {
		return err
	}
	names := []lexer.Token{first}
	for p.match(lexer.TokenComma) {
		id, err := p.expect(lexer.TokenID, "identifier")
		if err != nil {
			return err
		}
		names = append(names, id)
	}
	if _, err := p.expect(lexer.TokenColon, "':'"); err != nil {
		return err
	}
	varType, err := p.varType()
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';'"); err != nil {
		return err
	}
	for _, id := range names {
		if err := p.gen.DeclareVar(scope, id.Lexeme, varType, id.Line); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) varType() (bytecode.Type, error) {
	switch {
	case p.match(lexer.TokenInt):
		return bytecode.TypeInt, nil
	case p.match(lexer.TokenFloat):
		return bytecode.TypeFloat, nil
	default:
		return 0, syntaxErrorf(p.peek().Line, "expected 'int' or 'float' but found %q", p.peek().Lexeme)
	}
}

// functionDef ::= "void" ID "(" paramList ")" "[" vars? body "]" ";"
func (p *Parser) functionDef() error {
	if _, err := p.expect(lexer.TokenVoid, "'void'"); err != nil {
		return err
	}
	name, err := p.expect(lexer.TokenID, "function name")
	if err != nil {
		return err
	}
	if err := p.gen.AddFunctionToDir(name.Lexeme, name.Line); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return err
	}
	if !p.check(lexer.TokenRParen) {
		if err := p.param(name.Lexeme); err != nil {
			return err
		}
		for p.match(lexer.TokenComma) {
			if err := p.param(name.Lexeme); err != nil {
				return err
			}
		}
	}
	if _, err := p.expect(lexer.TokenRParen, "')'"); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenLBrack, "'['"); err != nil {
		return err
	}
	if err := p.varsBlock(name.Lexeme); err != nil {
		return err
	}
	if err := p.body(name.Lexeme); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenRBrack, "']'"); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';'"); err != nil {
		return err
	}
	return p.gen.HandleFunctionEnd(name.Lexeme, bytecode.OpEndFunc)
}

func (p *Parser) param(funcName string) error {
	id, err := p.expect(lexer.TokenID, "parameter name")
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenColon, "':'"); err != nil {
		return err
	}
	varType, err := p.varType()
	if err != nil {
		return err
	}
	return p.gen.RegisterParameter(funcName, id.Lexeme, varType, id.Line)
}

// body ::= "{" statement* "}"
func (p *Parser) body(scope string) error {
	if _, err := p.expect(lexer.TokenLBrace, "'{'"); err != nil {
		return err
	}
	for !p.check(lexer.TokenRBrace) && !p.atEnd() {
		if err := p.statement(scope); err != nil {
			return err
		}
	}
	_, err := p.expect(lexer.TokenRBrace, "'}'")
	return err
}

func (p *Parser) statement(scope string) error {
	switch {
	case p.check(lexer.TokenID):
		return p.idStatement(scope)
	case p.check(lexer.TokenIf):
		return p.ifStatement(scope)
	case p.check(lexer.TokenWhile):
		return p.whileStatement(scope)
	case p.check(lexer.TokenPrint):
		return p.printStatement(scope)
	default:
		return syntaxErrorf(p.peek().Line, "unexpected token %q, expected a statement", p.peek().Lexeme)
	}
}

// idStatement disambiguates assignment from a call by looking one token past
// the identifier.
func (p *Parser) idStatement(scope string) error {
	if p.tokens[p.pos+1].Type == lexer.TokenLParen {
		return p.callStatement(scope)
	}
	return p.assignStatement(scope)
}

// assign ::= ID "=" expresion ";"
func (p *Parser) assignStatement(scope string) error {
	id := p.advance()
	if _, err := p.expect(lexer.TokenAssign, "'='"); err != nil {
		return err
	}
	if err := p.expresion(scope); err != nil {
		return err
	}
	if err := p.gen.CreateAssignmentQuadruple(scope, id.Lexeme, id.Line); err != nil {
		return err
	}
	_, err := p.expect(lexer.TokenSemicolon, "';'")
	return err
}

// call ::= ID "(" (expresion ("," expresion)*)? ")" ";"
func (p *Parser) callStatement(scope string) error {
	id := p.advance()
	p.gen.HandleFunctionCalledStart(id.Lexeme)
	if _, err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return err
	}
	if !p.check(lexer.TokenRParen) {
		if err := p.expresion(scope); err != nil {
			return err
		}
		if err := p.gen.HandleNewParam(p.previous().Line); err != nil {
			return err
		}
		for p.match(lexer.TokenComma) {
			if err := p.expresion(scope); err != nil {
				return err
			}
			if err := p.gen.HandleNewParam(p.previous().Line); err != nil {
				return err
			}
		}
	}
	rparen, err := p.expect(lexer.TokenRParen, "')'")
	if err != nil {
		return err
	}
	if err := p.gen.HandleFunctionCallFinished(rparen.Line); err != nil {
		return err
	}
	_, err = p.expect(lexer.TokenSemicolon, "';'")
	return err
}

// ifStatement ::= "if" "(" expresion ")" body ("else" body)? ";"
func (p *Parser) ifStatement(scope string) error {
	ifTok := p.advance()
	if _, err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return err
	}
	if err := p.expresion(scope); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenRParen, "')'"); err != nil {
		return err
	}
	if err := p.gen.GenerateGotofForStatement(ifTok.Line); err != nil {
		return err
	}
	if err := p.body(scope); err != nil {
		return err
	}
	if p.match(lexer.TokenElse) {
		if err := p.gen.HandleElse(); err != nil {
			return err
		}
		if err := p.body(scope); err != nil {
			return err
		}
	}
	if err := p.gen.AssignGotoDestination(); err != nil {
		return err
	}
	_, err := p.expect(lexer.TokenSemicolon, "';'")
	return err
}

// whileStatement ::= "while" "(" expresion ")" "do" body ";"
func (p *Parser) whileStatement(scope string) error {
	whileTok := p.advance()
	p.gen.MarkLoopStart()
	if _, err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return err
	}
	if err := p.expresion(scope); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenRParen, "')'"); err != nil {
		return err
	}
	if err := p.gen.GenerateGotofForStatement(whileTok.Line); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenDo, "'do'"); err != nil {
		return err
	}
	if err := p.body(scope); err != nil {
		return err
	}
	if err := p.gen.CloseLoop(); err != nil {
		return err
	}
	_, err := p.expect(lexer.TokenSemicolon, "';'")
	return err
}

// printStatement ::= "print" "(" printItem ("," printItem)* ")" ";"
func (p *Parser) printStatement(scope string) error {
	p.advance()
	if _, err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return err
	}
	if err := p.printItem(scope); err != nil {
		return err
	}
	for p.match(lexer.TokenComma) {
		if err := p.printItem(scope); err != nil {
			return err
		}
	}
	if _, err := p.expect(lexer.TokenRParen, "')'"); err != nil {
		return err
	}
	_, err := p.expect(lexer.TokenSemicolon, "';'")
	return err
}

func (p *Parser) printItem(scope string) error {
	if p.check(lexer.TokenCteString) {
		tok := p.advance()
		if err := p.gen.PushOperand(compiler.OperandStringLiteral, scope, "", 0, 0, tok.Lexeme, tok.Line); err != nil {
			return err
		}
		return p.gen.CreatePrintQuadruple(tok.Line)
	}
	if err := p.expresion(scope); err != nil {
		return err
	}
	return p.gen.CreatePrintQuadruple(p.previous().Line)
}

// expresion ::= exp (relationalOp exp)?
func (p *Parser) expresion(scope string) error {
	if err := p.exp(scope); err != nil {
		return err
	}
	if p.check(lexer.TokenGreater) || p.check(lexer.TokenLess) || p.check(lexer.TokenNotEq) {
		opTok := p.advance()
		if err := p.gen.PushOperator(opTokens[opTok.Type], opTok.Line); err != nil {
			return err
		}
		if err := p.exp(scope); err != nil {
			return err
		}
	}
	return p.gen.PopUntilBottom(p.previous().Line)
}

// exp ::= termino (("+"|"-") termino)*
func (p *Parser) exp(scope string) error {
	if err := p.termino(scope); err != nil {
		return err
	}
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		opTok := p.advance()
		if err := p.gen.PushOperator(opTokens[opTok.Type], opTok.Line); err != nil {
			return err
		}
		if err := p.termino(scope); err != nil {
			return err
		}
	}
	return nil
}

// termino ::= factor (("*"|"/") factor)*
func (p *Parser) termino(scope string) error {
	if err := p.factor(scope); err != nil {
		return err
	}
	for p.check(lexer.TokenMult) || p.check(lexer.TokenDiv) {
		opTok := p.advance()
		if err := p.gen.PushOperator(opTokens[opTok.Type], opTok.Line); err != nil {
			return err
		}
		if err := p.factor(scope); err != nil {
			return err
		}
	}
	return nil
}

// factor ::= "(" expresion ")" | ("+"|"-")? factorValue
//
// A leading sign is only meaningful directly in front of a numeric literal:
// its value is folded into the literal before it reaches push_operand.
func (p *Parser) factor(scope string) error {
	if p.match(lexer.TokenLParen) {
		p.gen.PushFakeBottom()
		if err := p.expresion(scope); err != nil {
			return err
		}
		if _, err := p.expect(lexer.TokenRParen, "')'"); err != nil {
			return err
		}
		return p.gen.PopUntilFakeBottom(p.previous().Line)
	}
	negate := false
	if p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		negate = p.peek().Type == lexer.TokenMinus
		p.advance()
	}
	return p.factorValue(scope, negate)
}

func (p *Parser) factorValue(scope string, negate bool) error {
	switch {
	case p.check(lexer.TokenCteInt):
		tok := p.advance()
		val, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return syntaxErrorf(tok.Line, "malformed integer literal %q", tok.Lexeme)
		}
		if negate {
			val = -val
		}
		return p.gen.PushOperand(compiler.OperandIntLiteral, scope, "", val, 0, "", tok.Line)
	case p.check(lexer.TokenCteFloat):
		tok := p.advance()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return syntaxErrorf(tok.Line, "malformed float literal %q", tok.Lexeme)
		}
		if negate {
			val = -val
		}
		return p.gen.PushOperand(compiler.OperandFloatLiteral, scope, "", 0, val, "", tok.Line)
	case p.check(lexer.TokenID):
		if negate {
			return syntaxErrorf(p.peek().Line, "unary sign is only allowed directly before a numeric literal")
		}
		tok := p.advance()
		return p.gen.PushOperand(compiler.OperandID, scope, tok.Lexeme, 0, 0, "", tok.Line)
	default:
		return syntaxErrorf(p.peek().Line, "expected an identifier or a literal but found %q", p.peek().Lexeme)
	}
}
