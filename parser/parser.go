// Package parser implements a parser for slox source code.
//
// The grammar, from lowest to highest precedence:
//
//	program     -> declaration* EOF ;
//	declaration -> funDecl | varDecl | statement ;
//	funDecl     -> "fun" IDENTIFIER "(" parameters? ")" block ;
//	parameters  -> IDENTIFIER ( "," IDENTIFIER )* ;
//	varDecl     -> "var" IDENTIFIER ( "=" conditional )? ";" ;
//	statement   -> exprStmt | forStmt | ifStmt | printStmt | whileStmt
//	             | breakStmt | continueStmt | returnStmt | block ;
//	expression  -> comma ;
//	comma       -> assignment ( "," assignment )* ( "?" expression ":" conditional )? ;
//	conditional -> assignment ( "?" expression ":" expression )? ;
//	assignment  -> IDENTIFIER ( "=" | "+=" | "-=" | "*=" | "/=" ) assignment | logicOr ;
//	logicOr     -> logicAnd ( "or" logicAnd )* ;
//	logicAnd    -> equality ( "and" equality )* ;
//	equality    -> comparison ( ( "!=" | "==" ) comparison )* ;
//	comparison  -> term ( ( ">" | ">=" | "<" | "<=" ) term )* ;
//	term        -> factor ( ( "-" | "+" ) factor )* ;
//	factor      -> unary ( ( "/" | "*" ) unary )* ;
//	unary       -> ( "!" | "-" ) unary | ( "++" | "--" ) primary | postfix ;
//	postfix     -> call ( "++" | "--" )? "\"? ;
//	call        -> primary ( "(" arguments? ")" )* ;
//	arguments   -> assignment ( "," assignment )* ;
//	primary     -> "true" | "false" | "nil" | NUMBER | STRING | IDENTIFIER
//	             | "(" expression ")" | "{" expression "}" | "fun" "(" parameters? ")" block ;
package parser

import (
	"fmt"
	"io"

	"slox/ast"
	"slox/loxerr"
	"slox/token"
)

// maxArity is the maximum number of parameters or arguments a function can have.
const maxArity = 255

// Parse parses the source code read from r. filename is used in error messages.
// If an error is returned then an incomplete AST will still be returned along with it.
func Parse(r io.Reader, filename string) (ast.Program, error) {
	lexer, err := newLexer(r, filename)
	if err != nil {
		return ast.Program{}, fmt.Errorf("constructing parser: %s", err)
	}

	p := &parser{lexer: lexer}
	lexer.SetErrorHandler(func(tok token.Token, format string, args ...any) {
		p.addErrorf(tok, format, args...)
	})

	return p.Parse()
}

type parser struct {
	lexer   *lexer
	tok     token.Token // token currently being considered
	nextTok token.Token

	loopDepth int // number of enclosing loop bodies being parsed

	errs       loxerr.Errors
	lastErrPos token.Position
}

// Parse parses the source code and returns the root node of the abstract syntax tree.
// If an error is returned then an incomplete AST will still be returned along with it.
func (p *parser) Parse() (ast.Program, error) {
	// Populate tok and nextTok
	p.next()
	p.next()
	program := ast.Program{}
	for p.tok.Type != token.EOF {
		program.Stmts = append(program.Stmts, p.safelyParseDecl())
	}
	return program, p.errs.Err()
}

func (p *parser) safelyParseDecl() (stmt ast.Stmt) {
	from := p.tok
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(unwind); ok {
				to := p.sync()
				stmt = ast.IllegalStmt{From: from, To: to}
			} else {
				panic(r)
			}
		}
	}()
	return p.parseDecl()
}

// sync synchronises the parser with the next statement. This is used to recover from a parsing error.
// The offending token is always consumed, then tokens are discarded until a semicolon has been passed or the next
// token starts a statement. The final token before the next statement is returned.
func (p *parser) sync() token.Token {
	for {
		finalTok := p.tok
		p.next()
		if finalTok.Type == token.Semicolon || finalTok.Type == token.EOF {
			return finalTok
		}
		switch p.tok.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print,
			token.Break, token.Continue, token.Return, token.EOF:
			return finalTok
		}
	}
}

func (p *parser) parseDecl() ast.Stmt {
	switch tok := p.tok; {
	// An anonymous function expression also starts with fun, so a function declaration needs a second token of
	// lookahead to spot the name.
	case p.tok.Type == token.Fun && p.nextTok.Type == token.Ident:
		p.match(token.Fun)
		return p.parseFunDecl(tok)
	case p.match(token.Var):
		return p.parseVarDecl(tok)
	default:
		return p.parseStmt()
	}
}

func (p *parser) parseFunDecl(funTok token.Token) ast.FunDecl {
	name := p.expectf(token.Ident, "Expect function name.")
	return ast.FunDecl{
		Name:     name,
		Function: p.parseFun(funTok),
	}
}

// parseFun parses the parameter list and body shared by named and anonymous functions.
func (p *parser) parseFun(funTok token.Token) ast.FunExpr {
	p.expectf(token.LeftParen, "Expect '(' after 'fun'.")
	var params []token.Token
	if p.tok.Type != token.RightParen {
		for {
			if len(params) >= maxArity {
				p.addErrorf(p.tok, "Can't have more than %d parameters.", maxArity)
			}
			params = append(params, p.expectf(token.Ident, "Expect parameter name."))
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expectf(token.RightParen, "Expect ')' after parameters.")
	p.expectf(token.LeftBrace, "Expect '{' before function body.")
	body, rightBrace := p.parseBlock()
	return ast.FunExpr{
		Fun:        funTok,
		Params:     params,
		Body:       body,
		RightBrace: rightBrace,
	}
}

func (p *parser) parseVarDecl(varTok token.Token) ast.VarDecl {
	name := p.expectf(token.Ident, "Expect variable name.")
	var initialiser ast.Expr
	if p.match(token.Equal) {
		initialiser = p.parseConditionalExpr()
	}
	semicolon := p.expectf(token.Semicolon, "Expect ';' after variable declaration.")
	return ast.VarDecl{Var: varTok, Name: name, Initialiser: initialiser, Semicolon: semicolon}
}

func (p *parser) parseStmt() ast.Stmt {
	switch tok := p.tok; {
	case p.match(token.Print):
		return p.parsePrintStmt(tok)
	case p.match(token.LeftBrace):
		stmts, rightBrace := p.parseBlock()
		return ast.BlockStmt{LeftBrace: tok, Stmts: stmts, RightBrace: rightBrace}
	case p.match(token.If):
		return p.parseIfStmt(tok)
	case p.match(token.While):
		return p.parseWhileStmt(tok)
	case p.match(token.For):
		return p.parseForStmt(tok)
	case p.match(token.Break, token.Continue):
		return p.parseInterruptStmt(tok)
	case p.match(token.Return):
		return p.parseReturnStmt(tok)
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parsePrintStmt(printTok token.Token) ast.PrintStmt {
	expr := p.parseExpr()
	semicolon := p.expectf(token.Semicolon, "Expect ';' after value.")
	return ast.PrintStmt{Print: printTok, Expr: expr, Semicolon: semicolon}
}

func (p *parser) parseBlock() ([]ast.Stmt, token.Token) {
	var stmts []ast.Stmt
	for p.tok.Type != token.RightBrace && p.tok.Type != token.EOF {
		stmts = append(stmts, p.safelyParseDecl())
	}
	rightBrace := p.expectf(token.RightBrace, "Expect '}' after block.")
	return stmts, rightBrace
}

func (p *parser) parseIfStmt(ifTok token.Token) ast.IfStmt {
	p.expectf(token.LeftParen, "Expect '(' after 'if'.")
	condition := p.parseExpr()
	p.expectf(token.RightParen, "Expect ')' after 'if' condition.")
	thenBranch := p.parseStmt()
	var elseBranch ast.Stmt
	if p.match(token.Else) {
		elseBranch = p.parseStmt()
	}
	return ast.IfStmt{If: ifTok, Condition: condition, Then: thenBranch, Else: elseBranch}
}

func (p *parser) parseWhileStmt(whileTok token.Token) ast.WhileStmt {
	p.expectf(token.LeftParen, "Expect '(' after 'while'.")
	condition := p.parseExpr()
	p.expectf(token.RightParen, "Expect ')' after condition.")
	body := p.parseLoopBody()
	return ast.WhileStmt{While: whileTok, Condition: condition, Body: body}
}

func (p *parser) parseForStmt(forTok token.Token) ast.ForStmt {
	p.expectf(token.LeftParen, "Expect '(' after 'for'.")

	var initialise ast.Stmt
	switch tok := p.tok; {
	case p.match(token.Semicolon):
	case p.match(token.Var):
		initialise = p.parseVarDecl(tok)
	default:
		initialise = p.parseExprStmt()
	}

	var condition ast.Expr
	if p.tok.Type != token.Semicolon {
		condition = p.parseExpr()
	}
	semicolon := p.expectf(token.Semicolon, "Expect ';' after loop condition.")
	if condition == nil {
		// An omitted condition loops forever.
		condition = ast.LiteralExpr{Value: token.Token{
			StartPos: semicolon.StartPos,
			EndPos:   semicolon.StartPos,
			Type:     token.True,
			Lexeme:   "true",
		}}
	}

	var update ast.Expr
	if p.tok.Type != token.RightParen {
		update = p.parseExpr()
	}
	p.expectf(token.RightParen, "Expect ')' after for clauses.")

	body := p.parseLoopBody()
	return ast.ForStmt{For: forTok, Initialise: initialise, Condition: condition, Update: update, Body: body}
}

// parseLoopBody parses a statement with the loop depth incremented so that break and continue are accepted inside it.
// The depth is restored on the way out even if parsing the body panics.
func (p *parser) parseLoopBody() ast.Stmt {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.parseStmt()
}

func (p *parser) parseInterruptStmt(keyword token.Token) ast.Stmt {
	if p.loopDepth == 0 {
		p.addErrorf(keyword, "Must be inside a loop to use '%s'.", keyword.Lexeme)
	}
	semicolon := p.expectf(token.Semicolon, "Expect ';' after '%s'.", keyword.Lexeme)
	if keyword.Type == token.Break {
		return ast.BreakStmt{Break: keyword, Semicolon: semicolon}
	}
	return ast.ContinueStmt{Continue: keyword, Semicolon: semicolon}
}

func (p *parser) parseReturnStmt(returnTok token.Token) ast.ReturnStmt {
	var value ast.Expr
	if p.tok.Type != token.Semicolon {
		value = p.parseExpr()
	}
	semicolon := p.expectf(token.Semicolon, "Expect ';' after return value.")
	return ast.ReturnStmt{Return: returnTok, Value: value, Semicolon: semicolon}
}

func (p *parser) parseExprStmt() ast.ExprStmt {
	expr := p.parseExpr()
	semicolon := p.expectf(token.Semicolon, "Expect ';' after expression.")
	return ast.ExprStmt{Expr: expr, Semicolon: semicolon}
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseCommaExpr()
}

// parseCommaExpr parses one or more comma-joined assignments, optionally followed by a ternary.
func (p *parser) parseCommaExpr() ast.Expr {
	expr := p.parseAssignmentExpr()
	for {
		op, ok := p.match2(token.Comma)
		if !ok {
			break
		}
		right := p.parseAssignmentExpr()
		expr = ast.BinaryExpr{Left: expr, Op: op, Right: right}
	}
	if question, ok := p.match2(token.Question); ok {
		expr = p.parseTernaryTail(expr, question, p.parseConditionalExpr)
	}
	return expr
}

// parseConditionalExpr parses an assignment optionally followed by a ternary. It's used where an expression must not
// contain a top-level comma, such as a var initialiser.
func (p *parser) parseConditionalExpr() ast.Expr {
	expr := p.parseAssignmentExpr()
	if question, ok := p.match2(token.Question); ok {
		expr = p.parseTernaryTail(expr, question, p.parseExpr)
	}
	return expr
}

// parseTernaryTail parses the "? expression : ..." suffix of a ternary whose condition has already been parsed.
// parseElse parses the else branch, which binds differently depending on the enclosing rule.
func (p *parser) parseTernaryTail(condition ast.Expr, question token.Token, parseElse func() ast.Expr) ast.Expr {
	then := p.parseExpr()
	colon := p.expectf(token.Colon, "Expect ':' after then branch of conditional expression.")
	elseExpr := parseElse()
	return ast.TernaryExpr{
		Condition: condition,
		Question:  question,
		Then:      then,
		Colon:     colon,
		Else:      elseExpr,
	}
}

func (p *parser) parseAssignmentExpr() ast.Expr {
	expr := p.parseLogicalOrExpr()
	if op, ok := p.match2(token.Equal, token.PlusEqual, token.MinusEqual, token.AsteriskEqual, token.SlashEqual); ok {
		right := p.parseAssignmentExpr()
		if variable, ok := expr.(ast.VariableExpr); ok {
			return ast.AssignExpr{Name: variable.Name, Op: op, Right: right}
		}
		p.addErrorf(op, "Invalid assignment target.")
	}
	return expr
}

func (p *parser) parseLogicalOrExpr() ast.Expr {
	return p.parseLogicalExpr(p.parseLogicalAndExpr, token.Or)
}

func (p *parser) parseLogicalAndExpr() ast.Expr {
	return p.parseLogicalExpr(p.parseEqualityExpr, token.And)
}

// parseLogicalExpr parses a left-associative logical expression which uses the given operator. next is a function
// which parses an expression of next highest precedence.
func (p *parser) parseLogicalExpr(next func() ast.Expr, operator token.Type) ast.Expr {
	expr := next()
	for {
		op, ok := p.match2(operator)
		if !ok {
			break
		}
		right := next()
		expr = ast.LogicalExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) parseEqualityExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseRelationalExpr, token.EqualEqual, token.BangEqual)
}

func (p *parser) parseRelationalExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseAdditiveExpr, token.Less, token.LessEqual, token.Greater, token.GreaterEqual)
}

func (p *parser) parseAdditiveExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseMultiplicativeExpr, token.Plus, token.Minus)
}

func (p *parser) parseMultiplicativeExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseUnaryExpr, token.Asterisk, token.Slash)
}

// parseBinaryExpr parses a left-associative binary expression which uses the given operators. next is a function which
// parses an expression of next highest precedence.
func (p *parser) parseBinaryExpr(next func() ast.Expr, operators ...token.Type) ast.Expr {
	expr := next()
	for {
		op, ok := p.match2(operators...)
		if !ok {
			break
		}
		right := next()
		expr = ast.BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) parseUnaryExpr() ast.Expr {
	if op, ok := p.match2(token.Bang, token.Minus); ok {
		right := p.parseUnaryExpr()
		return ast.UnaryExpr{Op: op, Right: right}
	}
	// Prefix increment and decrement only make sense on lvalues, which are only variables here.
	if op, ok := p.match2(token.PlusPlus, token.MinusMinus); ok {
		right := p.parsePrimaryExpr()
		if _, ok := right.(ast.VariableExpr); !ok {
			p.addErrorf(op, "Can only increment or decrement variables.")
		}
		return ast.UnaryExpr{Op: op, Right: right}
	}
	return p.parsePostfixExpr()
}

func (p *parser) parsePostfixExpr() ast.Expr {
	expr := p.parseCallExpr()
	if op, ok := p.match2(token.PlusPlus, token.MinusMinus); ok {
		if _, ok := expr.(ast.VariableExpr); !ok {
			p.addErrorf(op, "Can only increment or decrement variables.")
		}
		expr = ast.PostfixExpr{Left: expr, Op: op}
		if second, ok := p.match2(token.PlusPlus, token.MinusMinus); ok {
			p.addErrorf(second, "Cannot concatenate operators '++' and '--'.")
		}
	}
	if op, ok := p.match2(token.BackSlash); ok {
		expr = ast.PostfixExpr{Left: expr, Op: op}
	}
	return expr
}

func (p *parser) parseCallExpr() ast.Expr {
	expr := p.parsePrimaryExpr()
	for p.match(token.LeftParen) {
		var args []ast.Expr
		rightParen, ok := p.match2(token.RightParen)
		if !ok {
			for {
				if len(args) >= maxArity {
					p.addErrorf(p.tok, "Can't have more than %d arguments.", maxArity)
				}
				// Arguments bind above the comma operator.
				args = append(args, p.parseAssignmentExpr())
				if !p.match(token.Comma) {
					break
				}
			}
			rightParen = p.expectf(token.RightParen, "Expect ')' after arguments.")
		}
		expr = ast.CallExpr{Callee: expr, Args: args, RightParen: rightParen}
	}
	return expr
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	switch tok := p.tok; {
	case p.match(token.Number, token.String, token.True, token.False, token.Nil):
		return ast.LiteralExpr{Value: tok}
	case p.match(token.Ident):
		return ast.VariableExpr{Name: tok}
	case p.match(token.Fun):
		return p.parseFun(tok)
	case p.match(token.LeftParen):
		expr := p.parseExpr()
		rightParen := p.expectf(token.RightParen, "Expect ')' after expression.")
		return ast.GroupExpr{Left: tok, Expr: expr, Right: rightParen}
	case p.match(token.LeftBrace):
		expr := p.parseExpr()
		rightBrace := p.expectf(token.RightBrace, "Expect '}' after expression.")
		return ast.GroupExpr{Left: tok, Expr: expr, Right: rightBrace}
	// Error productions: a binary operator with no left-hand operand. Report it, consume the right-hand side at the
	// operator's precedence, and yield a placeholder.
	case p.match(token.EqualEqual, token.BangEqual):
		p.addErrorf(tok, "Missing left-hand operand.")
		p.parseEqualityExpr()
		return nil
	case p.match(token.Less, token.LessEqual, token.Greater, token.GreaterEqual):
		p.addErrorf(tok, "Missing left-hand operand.")
		p.parseRelationalExpr()
		return nil
	case p.match(token.Plus):
		p.addErrorf(tok, "Missing left-hand operand.")
		p.parseAdditiveExpr()
		return nil
	case p.match(token.Asterisk, token.Slash):
		p.addErrorf(tok, "Missing left-hand operand.")
		p.parseMultiplicativeExpr()
		return nil
	default:
		p.addErrorf(tok, "Expect expression.")
		panic(unwind{})
	}
}

// match reports whether the current token is one of the given types and advances the parser if so.
func (p *parser) match(types ...token.Type) bool {
	for _, t := range types {
		if p.tok.Type == t {
			p.next()
			return true
		}
	}
	return false
}

// match2 is like match but also returns the matched token.
func (p *parser) match2(types ...token.Type) (token.Token, bool) {
	tok := p.tok
	return tok, p.match(types...)
}

// expectf returns the current token and advances the parser if it has the given type. Otherwise, an error with the
// given message is added and the method panics to unwind the stack.
func (p *parser) expectf(t token.Type, format string, args ...any) token.Token {
	if p.tok.Type == t {
		tok := p.tok
		p.next()
		return tok
	}
	p.addErrorf(p.tok, format, args...)
	panic(unwind{})
}

// next advances the parser to the next token.
func (p *parser) next() {
	p.tok = p.nextTok
	p.nextTok = p.lexer.Next()
}

// addErrorf adds an error at the given range unless an error has already been reported at the same position, which
// usually means a cascade from a single mistake.
func (p *parser) addErrorf(rang token.Range, format string, args ...any) {
	if len(p.errs) > 0 && rang.Start() == p.lastErrPos {
		return
	}
	p.lastErrPos = rang.Start()
	p.errs.Addf(rang, format, args...)
}

// unwind is used as a panic value so that we can unwind the stack and recover from a parsing error without having to
// check for errors after every call to each parsing method.
type unwind struct{}
