package interpreter

import (
	"fmt"

	"slox/loxerr"
	"slox/token"
)

// environment stores the values of variables in a lexical scope.
// Environments form a chain through their parent pointers; the parent of an environment never changes after it's
// created. Closures hold a reference to the environment they were created in, which keeps the whole chain alive for
// as long as the closure is reachable.
type environment struct {
	parent       *environment
	valuesByName map[string]loxObject
}

func newEnvironment() *environment {
	return &environment{
		valuesByName: map[string]loxObject{},
	}
}

// Child creates a new child environment of this environment.
func (e *environment) Child() *environment {
	env := newEnvironment()
	env.parent = e
	return env
}

// Define creates a binding in this environment.
// If the name is already bound in this environment then a runtime error is raised.
func (e *environment) Define(tok token.Token, value loxObject) {
	if _, ok := e.valuesByName[tok.Lexeme]; ok {
		panic(loxerr.NewRuntimef(tok, "Attempted redeclaration of '%s'.", tok.Lexeme))
	}
	e.valuesByName[tok.Lexeme] = value
}

// DefineBuiltin creates a binding for a host-provided value. It's only used to populate the global environment before
// execution starts, so there is no source position to attribute errors to.
func (e *environment) DefineBuiltin(name string, value loxObject) {
	e.valuesByName[name] = value
}

// Assign assigns a value to the nearest binding of the given name, searching this environment and then its ancestors.
// If the name is not bound anywhere in the chain then a runtime error is raised.
func (e *environment) Assign(tok token.Token, value loxObject) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.valuesByName[tok.Lexeme]; ok {
			env.valuesByName[tok.Lexeme] = value
			return
		}
	}
	panic(loxerr.NewRuntimef(tok, "Undefined variable '%s'.", tok.Lexeme))
}

// Get returns the value of the nearest binding of the given name, searching this environment and then its ancestors.
// If the name is not bound anywhere in the chain then a runtime error is raised.
func (e *environment) Get(tok token.Token) loxObject {
	for env := e; env != nil; env = env.parent {
		if value, ok := env.valuesByName[tok.Lexeme]; ok {
			return value
		}
	}
	panic(loxerr.NewRuntimef(tok, "Undefined variable '%s'.", tok.Lexeme))
}

// Ancestor returns the environment distance parent links up the chain. The resolver guarantees that the chain is long
// enough, so running off the end means resolution and execution have diverged.
func (e *environment) Ancestor(distance int) *environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.parent
		if env == nil {
			panic(fmt.Sprintf("environment chain is shorter than resolved distance %d", distance))
		}
	}
	return env
}

// GetAt returns the value of a binding in the environment exactly distance parent links away, with no fallback search.
func (e *environment) GetAt(distance int, tok token.Token) loxObject {
	env := e.Ancestor(distance)
	value, ok := env.valuesByName[tok.Lexeme]
	if !ok {
		panic(fmt.Sprintf("'%s' is not bound at resolved distance %d", tok.Lexeme, distance))
	}
	return value
}

// AssignAt assigns a value to a binding in the environment exactly distance parent links away, with no fallback
// search.
func (e *environment) AssignAt(distance int, tok token.Token, value loxObject) {
	env := e.Ancestor(distance)
	if _, ok := env.valuesByName[tok.Lexeme]; !ok {
		panic(fmt.Sprintf("'%s' is not bound at resolved distance %d", tok.Lexeme, distance))
	}
	env.valuesByName[tok.Lexeme] = value
}
