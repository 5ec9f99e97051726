// Package resolver implements the resolution of identifiers in a slox program.
package resolver

import (
	"fmt"

	"slox/ast"
	"slox/loxerr"
	"slox/stack"
	"slox/token"
)

// Resolve resolves the identifiers in the given program.
// It returns a map from identifiers which were declared locally to the distance from their lexical scope to the one
// where they were declared. A distance of 0 means the identifier was declared in its current scope, 1 means it was
// declared in the parent scope, and so on.
// If an identifier is not present in the map, then it resolves against the global scope.
// Resolution continues after an error so that a single run reports as many errors as possible; the returned map is
// still valid for the parts of the program that resolved cleanly.
func Resolve(program ast.Program) (map[token.Token]int, error) {
	r := newResolver()
	r.resolveProgram(program)
	return r.localDeclDistancesByIdent, r.errs.Err()
}

type funType int

const (
	funTypeNone funType = iota
	funTypeFunction
)

type resolver struct {
	// scopes is a stack of lexical scopes where each scope maps identifiers to whether they've been defined
	scopes *stack.Stack[map[string]bool]
	// localDeclDistancesByIdent maps identifiers which were declared locally to the distance from their current lexical
	// scope to the one where they were declared
	localDeclDistancesByIdent map[token.Token]int

	currentFunction funType
	errs            loxerr.Errors
}

func newResolver() *resolver {
	return &resolver{
		scopes:                    stack.New[map[string]bool](),
		localDeclDistancesByIdent: map[token.Token]int{},
	}
}

func (r *resolver) beginScope() func() {
	r.scopes.Push(map[string]bool{})
	return func() {
		r.scopes.Pop()
	}
}

// declareIdent marks an identifier as declared but not yet defined in the current scope. Reading it in this state is
// an error, which is how self-referential initialisers are caught.
func (r *resolver) declareIdent(ident token.Token) {
	if r.scopes.Len() == 0 {
		return
	}
	scope := r.scopes.Peek()
	if _, ok := scope[ident.Lexeme]; ok {
		r.errs.Addf(ident, "Already a variable with this name in this scope.")
	}
	scope[ident.Lexeme] = false
}

func (r *resolver) defineIdent(ident token.Token) {
	if r.scopes.Len() == 0 {
		return
	}
	r.scopes.Peek()[ident.Lexeme] = true
}

func (r *resolver) resolveIdent(ident token.Token) {
	for i := r.scopes.Len() - 1; i >= 0; i-- {
		if _, ok := r.scopes.Index(i)[ident.Lexeme]; ok {
			r.localDeclDistancesByIdent[ident] = r.scopes.Len() - 1 - i
			return
		}
	}
	// If the identifier can't be found in any scope, then it must be a global variable
}

func (r *resolver) resolveProgram(program ast.Program) {
	for _, stmt := range program.Stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case ast.VarDecl:
		r.resolveVarDecl(stmt)
	case ast.FunDecl:
		r.resolveFunDecl(stmt)
	case ast.ExprStmt:
		r.resolveExpr(stmt.Expr)
	case ast.PrintStmt:
		r.resolveExpr(stmt.Expr)
	case ast.BlockStmt:
		r.resolveBlockStmt(stmt)
	case ast.IfStmt:
		r.resolveIfStmt(stmt)
	case ast.WhileStmt:
		r.resolveWhileStmt(stmt)
	case ast.ForStmt:
		r.resolveForStmt(stmt)
	case ast.BreakStmt, ast.ContinueStmt:
		// Nothing to resolve; the parser has already checked that these are inside a loop.
	case ast.ReturnStmt:
		r.resolveReturnStmt(stmt)
	default:
		panic(fmt.Sprintf("unexpected statement type: %T", stmt))
	}
}

func (r *resolver) resolveVarDecl(stmt ast.VarDecl) {
	r.declareIdent(stmt.Name)
	if stmt.Initialiser != nil {
		r.resolveExpr(stmt.Initialiser)
	}
	r.defineIdent(stmt.Name)
}

func (r *resolver) resolveFunDecl(stmt ast.FunDecl) {
	// The name is defined before the body is resolved so that the function can recursively refer to itself.
	r.declareIdent(stmt.Name)
	r.defineIdent(stmt.Name)
	r.resolveFun(stmt.Function)
}

func (r *resolver) resolveFun(fun ast.FunExpr) {
	enclosingFunction := r.currentFunction
	r.currentFunction = funTypeFunction
	defer func() { r.currentFunction = enclosingFunction }()

	endScope := r.beginScope()
	defer endScope()
	for _, param := range fun.Params {
		r.declareIdent(param)
		r.defineIdent(param)
	}
	for _, stmt := range fun.Body {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveBlockStmt(stmt ast.BlockStmt) {
	endScope := r.beginScope()
	defer endScope()
	for _, stmt := range stmt.Stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveIfStmt(stmt ast.IfStmt) {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Then)
	if stmt.Else != nil {
		r.resolveStmt(stmt.Else)
	}
}

func (r *resolver) resolveWhileStmt(stmt ast.WhileStmt) {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Body)
}

func (r *resolver) resolveForStmt(stmt ast.ForStmt) {
	endScope := r.beginScope()
	defer endScope()
	if stmt.Initialise != nil {
		r.resolveStmt(stmt.Initialise)
	}
	r.resolveExpr(stmt.Condition)
	if stmt.Update != nil {
		r.resolveExpr(stmt.Update)
	}
	r.resolveStmt(stmt.Body)
}

func (r *resolver) resolveReturnStmt(stmt ast.ReturnStmt) {
	if r.currentFunction == funTypeNone {
		r.errs.Addf(stmt.Return, "Can't return from top-level code.")
	}
	if stmt.Value != nil {
		r.resolveExpr(stmt.Value)
	}
}

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch expr := expr.(type) {
	case ast.LiteralExpr:
		// Nothing to resolve
	case ast.GroupExpr:
		r.resolveExpr(expr.Expr)
	case ast.VariableExpr:
		r.resolveVariableExpr(expr)
	case ast.AssignExpr:
		r.resolveExpr(expr.Right)
		r.resolveIdent(expr.Name)
	case ast.UnaryExpr:
		r.resolveExpr(expr.Right)
	case ast.PostfixExpr:
		r.resolveExpr(expr.Left)
	case ast.BinaryExpr:
		if expr.Left != nil {
			r.resolveExpr(expr.Left)
		}
		r.resolveExpr(expr.Right)
	case ast.LogicalExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case ast.TernaryExpr:
		r.resolveExpr(expr.Condition)
		r.resolveExpr(expr.Then)
		r.resolveExpr(expr.Else)
	case ast.CallExpr:
		r.resolveExpr(expr.Callee)
		for _, arg := range expr.Args {
			r.resolveExpr(arg)
		}
	case ast.FunExpr:
		r.resolveFun(expr)
	default:
		panic(fmt.Sprintf("unexpected expression type: %T", expr))
	}
}

func (r *resolver) resolveVariableExpr(expr ast.VariableExpr) {
	if r.scopes.Len() > 0 {
		if defined, ok := r.scopes.Peek()[expr.Name.Lexeme]; ok && !defined {
			r.errs.Addf(expr.Name, "Can't read local variable in its own initializer.")
		}
	}
	r.resolveIdent(expr.Name)
}
