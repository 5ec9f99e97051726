// Package interpreter implements the tree-walking evaluator for slox.
package interpreter

import (
	"fmt"
	"io"
	"os"

	"slox/ast"
	"slox/loxerr"
	"slox/token"
)

// stmtResult is the outcome of executing a statement. Break, continue and return are modelled as results which
// propagate upward from the statement that produced them until a loop or function call consumes them, rather than as
// panics.
type stmtResult interface {
	stmtResult()
}

type stmtResultNone struct{}

func (stmtResultNone) stmtResult() {}

type stmtResultBreak struct{}

func (stmtResultBreak) stmtResult() {}

type stmtResultContinue struct{}

func (stmtResultContinue) stmtResult() {}

type stmtResultReturn struct {
	Value loxObject
}

func (stmtResultReturn) stmtResult() {}

// Interpreter is the evaluator for slox programs.
type Interpreter struct {
	globals                   *environment
	localDeclDistancesByIdent map[token.Token]int
	replMode                  bool
	stdout                    io.Writer
}

// Option can be passed to New to configure the interpreter.
type Option func(*Interpreter)

// REPLMode sets the interpreter to REPL mode.
// In REPL mode, the interpreter will print the result of expression statements.
func REPLMode() Option {
	return func(i *Interpreter) {
		i.replMode = true
	}
}

// WithStdout sets the writer which print statements and builtins write to. The default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stdout = w
	}
}

// New constructs a new Interpreter with the given options.
func New(opts ...Option) *Interpreter {
	globals := newEnvironment()
	for name, fn := range builtins() {
		globals.DefineBuiltin(name, fn)
	}
	interpreter := &Interpreter{
		globals:                   globals,
		localDeclDistancesByIdent: map[token.Token]int{},
		stdout:                    os.Stdout,
	}
	for _, opt := range opts {
		opt(interpreter)
	}
	return interpreter
}

// Interpret interprets a program and returns an error if a runtime error occurred.
// Interpret can be called multiple times with different ASTs and the state will be maintained between calls. The
// resolved distances accumulate across calls so that closures created by earlier calls keep resolving correctly.
func (i *Interpreter) Interpret(program ast.Program, localDeclDistancesByIdent map[token.Token]int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if runtimeErr, ok := r.(*loxerr.RuntimeError); ok {
				err = runtimeErr
			} else {
				panic(r)
			}
		}
	}()
	for ident, distance := range localDeclDistancesByIdent {
		i.localDeclDistancesByIdent[ident] = distance
	}
	for _, stmt := range program.Stmts {
		i.interpretStmt(i.globals, stmt)
	}
	return nil
}

func (i *Interpreter) interpretStmt(env *environment, stmt ast.Stmt) stmtResult {
	switch stmt := stmt.(type) {
	case ast.VarDecl:
		i.interpretVarDecl(env, stmt)
	case ast.FunDecl:
		i.interpretFunDecl(env, stmt)
	case ast.ExprStmt:
		i.interpretExprStmt(env, stmt)
	case ast.PrintStmt:
		i.interpretPrintStmt(env, stmt)
	case ast.BlockStmt:
		return i.executeBlock(env.Child(), stmt.Stmts)
	case ast.IfStmt:
		return i.interpretIfStmt(env, stmt)
	case ast.WhileStmt:
		return i.interpretWhileStmt(env, stmt)
	case ast.ForStmt:
		return i.interpretForStmt(env, stmt)
	case ast.BreakStmt:
		return stmtResultBreak{}
	case ast.ContinueStmt:
		return stmtResultContinue{}
	case ast.ReturnStmt:
		return i.interpretReturnStmt(env, stmt)
	default:
		panic(fmt.Sprintf("unexpected statement type: %T", stmt))
	}
	return stmtResultNone{}
}

func (i *Interpreter) interpretVarDecl(env *environment, stmt ast.VarDecl) {
	var value loxObject = loxUninit{}
	if stmt.Initialiser != nil {
		value = i.interpretExpr(env, stmt.Initialiser)
	}
	env.Define(stmt.Name, value)
}

func (i *Interpreter) interpretFunDecl(env *environment, stmt ast.FunDecl) {
	// The binding is created in the declaring scope before any call, so direct recursion resolves to the function
	// itself.
	fun := newLoxFunction(stmt.Name.Lexeme, stmt.Function, env)
	env.Define(stmt.Name, fun)
}

func (i *Interpreter) interpretExprStmt(env *environment, stmt ast.ExprStmt) {
	value := i.interpretExpr(env, stmt.Expr)
	if i.replMode {
		fmt.Fprintln(i.stdout, value.String())
	}
}

func (i *Interpreter) interpretPrintStmt(env *environment, stmt ast.PrintStmt) {
	value := i.interpretExpr(env, stmt.Expr)
	// print writes the value as-is; the \ postfix operator and println are the newline mechanisms.
	fmt.Fprint(i.stdout, value.String())
}

// executeBlock executes statements in the given environment, stopping at the first one that produces a non-normal
// result and propagating that result to the caller.
func (i *Interpreter) executeBlock(env *environment, stmts []ast.Stmt) stmtResult {
	for _, stmt := range stmts {
		result := i.interpretStmt(env, stmt)
		if _, ok := result.(stmtResultNone); !ok {
			return result
		}
	}
	return stmtResultNone{}
}

func (i *Interpreter) interpretIfStmt(env *environment, stmt ast.IfStmt) stmtResult {
	if isTruthy(i.interpretExpr(env, stmt.Condition)) {
		return i.interpretStmt(env, stmt.Then)
	} else if stmt.Else != nil {
		return i.interpretStmt(env, stmt.Else)
	}
	return stmtResultNone{}
}

func (i *Interpreter) interpretWhileStmt(env *environment, stmt ast.WhileStmt) stmtResult {
	for isTruthy(i.interpretExpr(env, stmt.Condition)) {
		switch result := i.interpretStmt(env, stmt.Body).(type) {
		case stmtResultBreak:
			return stmtResultNone{}
		case stmtResultReturn:
			return result
		}
		// A continue result just ends the iteration, which is what falling out of the switch does anyway.
	}
	return stmtResultNone{}
}

func (i *Interpreter) interpretForStmt(env *environment, stmt ast.ForStmt) stmtResult {
	childEnv := env.Child()
	if stmt.Initialise != nil {
		i.interpretStmt(childEnv, stmt.Initialise)
	}
	for isTruthy(i.interpretExpr(childEnv, stmt.Condition)) {
		switch result := i.interpretStmt(childEnv, stmt.Body).(type) {
		case stmtResultBreak:
			return stmtResultNone{}
		case stmtResultReturn:
			return result
		}
		// The update clause still runs after a continue.
		if stmt.Update != nil {
			i.interpretExpr(childEnv, stmt.Update)
		}
	}
	return stmtResultNone{}
}

func (i *Interpreter) interpretReturnStmt(env *environment, stmt ast.ReturnStmt) stmtResultReturn {
	var value loxObject = loxNil{}
	if stmt.Value != nil {
		value = i.interpretExpr(env, stmt.Value)
	}
	return stmtResultReturn{Value: value}
}

func (i *Interpreter) interpretExpr(env *environment, expr ast.Expr) loxObject {
	switch expr := expr.(type) {
	case ast.LiteralExpr:
		return i.interpretLiteralExpr(expr)
	case ast.GroupExpr:
		return i.interpretExpr(env, expr.Expr)
	case ast.VariableExpr:
		return i.lookUpVariable(env, expr)
	case ast.AssignExpr:
		return i.interpretAssignExpr(env, expr)
	case ast.UnaryExpr:
		return i.interpretUnaryExpr(env, expr)
	case ast.PostfixExpr:
		return i.interpretPostfixExpr(env, expr)
	case ast.BinaryExpr:
		return i.interpretBinaryExpr(env, expr)
	case ast.LogicalExpr:
		return i.interpretLogicalExpr(env, expr)
	case ast.TernaryExpr:
		return i.interpretTernaryExpr(env, expr)
	case ast.CallExpr:
		return i.interpretCallExpr(env, expr)
	case ast.FunExpr:
		return newLoxFunction("", expr, env)
	default:
		panic(fmt.Sprintf("unexpected expression type: %T", expr))
	}
}

func (i *Interpreter) interpretLiteralExpr(expr ast.LiteralExpr) loxObject {
	switch tok := expr.Value; tok.Type {
	case token.Number:
		return loxNumber(tok.Literal.(float64))
	case token.String:
		return loxString(tok.Literal.(string))
	case token.True, token.False:
		return loxBool(tok.Type == token.True)
	case token.Nil:
		return loxNil{}
	default:
		panic(fmt.Sprintf("unexpected literal type: %s", tok.Type))
	}
}

// lookUpVariable returns the value of a variable, using the resolved distance when the variable was declared locally
// and the global environment otherwise. Reading a declared-but-uninitialized variable is a runtime error.
func (i *Interpreter) lookUpVariable(env *environment, expr ast.VariableExpr) loxObject {
	value := i.getVariable(env, expr.Name)
	if _, ok := value.(loxUninit); ok {
		panic(loxerr.NewRuntimef(expr.Name, "'%s' used without initialization.", expr.Name.Lexeme))
	}
	return value
}

// getVariable is lookUpVariable without the uninitialized check. Plain assignment needs the raw value because
// overwriting an uninitialized variable is fine.
func (i *Interpreter) getVariable(env *environment, name token.Token) loxObject {
	if distance, ok := i.localDeclDistancesByIdent[name]; ok {
		return env.GetAt(distance, name)
	}
	return i.globals.Get(name)
}

func (i *Interpreter) assignVariable(env *environment, name token.Token, value loxObject) {
	if distance, ok := i.localDeclDistancesByIdent[name]; ok {
		env.AssignAt(distance, name, value)
	} else {
		i.globals.Assign(name, value)
	}
}

func (i *Interpreter) interpretAssignExpr(env *environment, expr ast.AssignExpr) loxObject {
	value := i.interpretExpr(env, expr.Right)
	oldValue := i.getVariable(env, expr.Name)

	switch expr.Op.Type {
	case token.Equal:
	case token.PlusEqual:
		value = i.add(oldValue, value, expr.Op)
	case token.MinusEqual:
		l, r := i.checkNumberOperands(expr.Op, oldValue, value)
		value = l - r
	case token.AsteriskEqual:
		l, r := i.checkNumberOperands(expr.Op, oldValue, value)
		value = l * r
	case token.SlashEqual:
		l, r := i.checkNumberOperands(expr.Op, oldValue, value)
		value = l / r
	default:
		panic(fmt.Sprintf("unexpected assignment operator: %s", expr.Op.Type))
	}

	i.assignVariable(env, expr.Name, value)
	return value
}

func (i *Interpreter) interpretUnaryExpr(env *environment, expr ast.UnaryExpr) loxObject {
	switch expr.Op.Type {
	case token.PlusPlus:
		return i.addToVariable(env, expr.Right.(ast.VariableExpr), expr.Op, 1, true)
	case token.MinusMinus:
		return i.addToVariable(env, expr.Right.(ast.VariableExpr), expr.Op, -1, true)
	}

	right := i.interpretExpr(env, expr.Right)
	switch expr.Op.Type {
	case token.Bang:
		return loxBool(!isTruthy(right))
	case token.Minus:
		return -i.checkNumberOperand(expr.Op, right)
	default:
		panic(fmt.Sprintf("unexpected unary operator: %s", expr.Op.Type))
	}
}

func (i *Interpreter) interpretPostfixExpr(env *environment, expr ast.PostfixExpr) loxObject {
	switch expr.Op.Type {
	case token.PlusPlus:
		return i.addToVariable(env, expr.Left.(ast.VariableExpr), expr.Op, 1, false)
	case token.MinusMinus:
		return i.addToVariable(env, expr.Left.(ast.VariableExpr), expr.Op, -1, false)
	case token.BackSlash:
		left := i.interpretExpr(env, expr.Left)
		if s, ok := left.(loxString); ok {
			return s + "\n"
		}
		panic(loxerr.NewRuntimef(expr.Op, `'\' can only be used on strings.`))
	default:
		panic(fmt.Sprintf("unexpected postfix operator: %s", expr.Op.Type))
	}
}

// addToVariable adds delta to the variable's current value, which must be a number, and writes the result back.
// It returns the new value for prefix operators and the old value for postfix ones.
func (i *Interpreter) addToVariable(env *environment, variable ast.VariableExpr, op token.Token, delta float64, returnNew bool) loxObject {
	value := i.checkNumberOperand(op, i.lookUpVariable(env, variable))
	newValue := value + loxNumber(delta)
	i.assignVariable(env, variable.Name, newValue)
	if returnNew {
		return newValue
	}
	return value
}

func (i *Interpreter) interpretBinaryExpr(env *environment, expr ast.BinaryExpr) loxObject {
	left := i.interpretExpr(env, expr.Left)
	right := i.interpretExpr(env, expr.Right)

	switch expr.Op.Type {
	case token.Comma:
		// The comma operator normally discards its left operand, but when either side is a string the operands are
		// concatenated, which lets programs build print output with comma-separated values.
		if left.Type() == loxTypeString || right.Type() == loxTypeString {
			return loxString(left.String() + right.String())
		}
		return right
	case token.EqualEqual:
		return loxBool(left == right)
	case token.BangEqual:
		return loxBool(left != right)
	case token.Plus:
		return i.add(left, right, expr.Op)
	}

	l, r := i.checkNumberOperands(expr.Op, left, right)
	switch expr.Op.Type {
	case token.Minus:
		return l - r
	case token.Asterisk:
		return l * r
	case token.Slash:
		return l / r
	case token.Greater:
		return loxBool(l > r)
	case token.GreaterEqual:
		return loxBool(l >= r)
	case token.Less:
		return loxBool(l < r)
	case token.LessEqual:
		return loxBool(l <= r)
	default:
		panic(fmt.Sprintf("unexpected binary operator: %s", expr.Op.Type))
	}
}

func (i *Interpreter) interpretLogicalExpr(env *environment, expr ast.LogicalExpr) loxObject {
	left := i.interpretExpr(env, expr.Left)
	if expr.Op.Type == token.Or {
		if isTruthy(left) {
			return left
		}
	} else {
		if !isTruthy(left) {
			return left
		}
	}
	return i.interpretExpr(env, expr.Right)
}

func (i *Interpreter) interpretTernaryExpr(env *environment, expr ast.TernaryExpr) loxObject {
	// All three operands are evaluated before the condition is consulted, as the language has always done.
	condition := i.interpretExpr(env, expr.Condition)
	then := i.interpretExpr(env, expr.Then)
	elseValue := i.interpretExpr(env, expr.Else)
	if isTruthy(condition) {
		return then
	}
	return elseValue
}

func (i *Interpreter) interpretCallExpr(env *environment, expr ast.CallExpr) loxObject {
	callee := i.interpretExpr(env, expr.Callee)
	args := make([]loxObject, len(expr.Args))
	for j, arg := range expr.Args {
		args[j] = i.interpretExpr(env, arg)
	}

	function, ok := callee.(*loxFunction)
	if !ok {
		panic(loxerr.NewRuntimef(expr.RightParen, "Can only call functions and classes."))
	}
	if len(args) != function.Arity() {
		panic(loxerr.NewRuntimef(expr.RightParen, "Expected %d arguments, but got %d.", function.Arity(), len(args)))
	}

	return function.Call(i, args)
}

// add implements the overloaded + operator: two numbers are summed, and if either operand is a string the other is
// stringified and the two are concatenated.
func (i *Interpreter) add(left, right loxObject, op token.Token) loxObject {
	if l, ok := left.(loxNumber); ok {
		if r, ok := right.(loxNumber); ok {
			return l + r
		}
	}
	if left.Type() == loxTypeString || right.Type() == loxTypeString {
		return loxString(left.String() + right.String())
	}
	panic(loxerr.NewRuntimef(op, "'+' operands must be numbers or strings."))
}

func (i *Interpreter) checkNumberOperand(op token.Token, operand loxObject) loxNumber {
	n, ok := operand.(loxNumber)
	if !ok {
		panic(loxerr.NewRuntimef(op, "'%s' operand must be a number.", op.Lexeme))
	}
	return n
}

func (i *Interpreter) checkNumberOperands(op token.Token, left, right loxObject) (loxNumber, loxNumber) {
	l, lok := left.(loxNumber)
	r, rok := right.(loxNumber)
	if !lok || !rok {
		panic(loxerr.NewRuntimef(op, "'%s' operands must be numbers.", op.Lexeme))
	}
	return l, r
}
