package interpreter

import (
	"strconv"

	"slox/ast"
)

// loxType is the string representation of a slox object's type.
type loxType string

const (
	loxTypeNumber   loxType = "number"
	loxTypeString   loxType = "string"
	loxTypeBool     loxType = "bool"
	loxTypeNil      loxType = "nil"
	loxTypeFunction loxType = "function"
)

// loxObject is a slox runtime value.
// String returns the value as the print statement and string concatenation render it.
type loxObject interface {
	String() string
	Type() loxType
}

type loxNumber float64

func (n loxNumber) String() string {
	// The shortest representation never carries a trailing ".0", so whole numbers print as integers.
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (n loxNumber) Type() loxType {
	return loxTypeNumber
}

type loxString string

func (s loxString) String() string {
	return string(s)
}

func (s loxString) Type() loxType {
	return loxTypeString
}

type loxBool bool

func (b loxBool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (b loxBool) Type() loxType {
	return loxTypeBool
}

type loxNil struct{}

func (n loxNil) String() string {
	return "nil"
}

func (n loxNil) Type() loxType {
	return loxTypeNil
}

// loxUninit is the value bound to a variable declared without an initialiser. It's distinct from nil and outside the
// user-visible value domain: the evaluator raises a runtime error whenever a read would observe it.
type loxUninit struct{}

func (u loxUninit) String() string {
	return "<uninitialized>"
}

func (u loxUninit) Type() loxType {
	return loxTypeNil
}

// isTruthy reports whether an object is considered true in a boolean context. Only nil and false are falsy.
func isTruthy(o loxObject) bool {
	switch o := o.(type) {
	case loxNil:
		return false
	case loxBool:
		return bool(o)
	default:
		return true
	}
}

// nativeFunBody is the host implementation of a built-in function.
type nativeFunBody func(interpreter *Interpreter, args []loxObject) loxObject

// loxFunction is a callable slox value: either a user-defined function plus the environment captured at its point of
// creation, or a host-provided built-in.
// Functions compare equal only to themselves, so loxFunction is always used through a pointer.
type loxFunction struct {
	name        string // empty for anonymous functions
	declaration ast.FunExpr
	closure     *environment

	nativeArity int
	nativeBody  nativeFunBody
}

func newLoxFunction(name string, declaration ast.FunExpr, closure *environment) *loxFunction {
	return &loxFunction{
		name:        name,
		declaration: declaration,
		closure:     closure,
	}
}

func newBuiltinLoxFunction(name string, arity int, body nativeFunBody) *loxFunction {
	return &loxFunction{
		name:        name,
		nativeArity: arity,
		nativeBody:  body,
	}
}

func (f *loxFunction) String() string {
	if f.nativeBody != nil {
		return "<native fn>"
	}
	if f.name == "" {
		return "<fn>"
	}
	return "<fn " + f.name + ">"
}

func (f *loxFunction) Type() loxType {
	return loxTypeFunction
}

// Arity returns the number of arguments the function expects.
func (f *loxFunction) Arity() int {
	if f.nativeBody != nil {
		return f.nativeArity
	}
	return len(f.declaration.Params)
}

// Call invokes the function with the given arguments, which must match its arity.
// The body executes in a fresh environment whose parent is the captured closure, so parameters shadow closed-over
// bindings and each invocation gets its own bindings.
func (f *loxFunction) Call(interpreter *Interpreter, args []loxObject) loxObject {
	if f.nativeBody != nil {
		return f.nativeBody(interpreter, args)
	}

	env := f.closure.Child()
	for i, param := range f.declaration.Params {
		env.Define(param, args[i])
	}
	if result, ok := interpreter.executeBlock(env, f.declaration.Body).(stmtResultReturn); ok {
		return result.Value
	}
	return loxNil{}
}
