package interpreter

import (
	"fmt"
	"time"
)

// builtins returns the native functions exposed at global scope.
func builtins() map[string]*loxFunction {
	clock := newBuiltinLoxFunction("clock", 0, func(*Interpreter, []loxObject) loxObject {
		return loxNumber(time.Now().UnixNano()) / loxNumber(time.Second)
	})

	// println returns itself rather than nil, so chained calls like println(1)(2) keep printing.
	var println *loxFunction
	println = newBuiltinLoxFunction("println", 1, func(i *Interpreter, args []loxObject) loxObject {
		fmt.Fprintln(i.stdout, args[0].String())
		return println
	})

	return map[string]*loxFunction{
		"clock":   clock,
		"println": println,
	}
}
