package interpreter_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"slox/interpreter"
	"slox/loxerr"
	"slox/parser"
	"slox/resolver"
)

// interpret runs src through the whole pipeline and returns what it printed and any runtime error.
func interpret(t *testing.T, src string, opts ...interpreter.Option) (string, *loxerr.RuntimeError) {
	t.Helper()
	var buf bytes.Buffer
	i := interpreter.New(append([]interpreter.Option{interpreter.WithStdout(&buf)}, opts...)...)
	runtimeErr := interpretInto(t, i, src)
	return buf.String(), runtimeErr
}

func interpretInto(t *testing.T, i *interpreter.Interpreter, src string) *loxerr.RuntimeError {
	t.Helper()
	program, err := parser.Parse(strings.NewReader(src), "test.lox")
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	distances, err := resolver.Resolve(program)
	if err != nil {
		t.Fatalf("unexpected resolve error: %s", err)
	}
	if err := i.Interpret(program, distances); err != nil {
		runtimeErr := &loxerr.RuntimeError{}
		if !errors.As(err, &runtimeErr) {
			t.Fatalf("Interpret returned %T, want *loxerr.RuntimeError", err)
		}
		return runtimeErr
	}
	return nil
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"EmptyProgram", "", ""},
		{"Arithmetic", "print 1 + 2 * 3;", "7"},
		{"Grouping", "print (1 + 2) * 3;", "9"},
		{"NumbersPrintWithoutTrailingZero", "print 3.0; print 2.5; print 10 / 4;", "32.52.5"},
		{"StringConcatenation", `var a = "hi"; print a + " " + "there";`, "hi there"},
		{"PlusStringifiesMixedOperands", `print "n=" + 1; print 1 + "!"; print "" + nil; print "" + true;`, "n=11!niltrue"},
		{"UnaryMinusAndBang", "print -(1 + 2); print !nil; print !0; print !true;", "-3truefalsefalse"},
		{"Comparison", "print 1 < 2; print 2 <= 1; print 3 > 2; print 3 >= 4;", "truefalsetruefalse"},
		{"Equality", `print nil == nil; print nil == 1; print "a" == "a"; print 1 == 1; print 1 == "1";`, "truefalsetruetruefalse"},
		{"FunctionIdentityEquality", "fun f() {} var g = f; fun h() {} print f == g; print f == h;", "truefalse"},
		{"Truthiness", `print nil or "fallback"; print 0 and 1; print "" and 2;`, "fallback12"},
		{"IfElse", "if (1 > 2) print \"then\"; else print \"else\";", "else"},
		{"While", "var i = 0; while (i < 3) { print i; i = i + 1; }", "012"},
		{"ForContinueBreak", "for (var i = 0; i < 3; i = i + 1) { if (i == 1) continue; if (i == 2) break; print i; }", "0"},
		{"ForOmittedClauses", "var i = 0; for (;;) { i = i + 1; if (i == 3) break; } print i;", "3"},
		{"NestedLoopBreak", `for (var i = 0; i < 2; i = i + 1) { for (var j = 0; j < 5; j = j + 1) { if (j == 1) break; print i + "-" + j; } }`, "0-01-0"},
		{"WhileContinueReevaluatesCondition", "var i = 0; while (i < 3) { i = i + 1; if (i == 2) continue; print i; }", "13"},
		{"Block", "var a = 1; { var a = 2; print a; } print a;", "21"},
		{"Functions", "fun add(a, b) { return a + b; } print add(1, 2);", "3"},
		{"FunctionWithoutReturnYieldsNil", "fun noop() {} print noop();", "nil"},
		{"BareReturnYieldsNil", "fun f() { return; } print f();", "nil"},
		{"FunctionPrintsAsName", "fun f() {} print f; var g = fun() {}; print g;", "<fn f><fn>"},
		{"AnonymousFunction", "var twice = fun(x) { return x + x; }; print twice(3);", "6"},
		{"Recursion", "fun fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); } print fib(10);", "55"},
		{"ReturnStopsLoop", "fun first() { for (var i = 0; i < 10; i = i + 1) { if (i == 2) return i; } } print first();", "2"},
		{
			"Closures",
			"fun mk() { var i = 0; fun inc() { i = i + 1; return i; } return inc; } var f = mk(); print f(); print f(); print f();",
			"123",
		},
		{
			"ClosuresShareCapturedBindings",
			"var get; var set; { var x = 1; get = fun() { return x; }; set = fun(v) { x = v; }; } set(42); print get();",
			"42",
		},
		{"PostfixIncrement", "var x = 5; print x++; print x;", "56"},
		{"PostfixDecrement", "var x = 5; print x--; print x;", "54"},
		{"PrefixIncrement", "var x = 5; print ++x; print x;", "66"},
		{"PrefixDecrement", "var x = 5; print --x; print x;", "44"},
		{"CompoundAssignment", "var x = 10; x += 2; print x; x -= 4; print x; x *= 3; print x; x /= 6; print x;", "128244"},
		{"CompoundPlusConcatenatesStrings", `var s = "a"; s += "b"; print s; s += 1; print s;`, "abab1"},
		{"AssignmentEvaluatesToValue", "var a; var b; print a = b = 7; print a + b;", "714"},
		{"AssignOverwritesUninitialized", "var x; x = 5; print x;", "5"},
		{"TernaryChoosesByTruthiness", `print true ? "a" : "b"; print nil ? "a" : "b";`, "ab"},
		{"TernaryEvaluatesBothBranches", "var a = 0; var b = true ? a = 1 : a = 2; print b; print a;", "12"},
		{"CommaYieldsRightOperand", "print (1, 2);", "2"},
		{"CommaConcatenatesWithStrings", `print ("x = ", 1); print (1, "!");`, "x = 11!"},
		{"BackslashAppendsNewline", `var s = "hi"; print s\;`, "hi\n"},
		{"ShortCircuitOr", `fun boom() { print "boom"; return true; } print true or boom();`, "true"},
		{"ShortCircuitAnd", `fun boom() { print "boom"; return true; } print false and boom();`, "false"},
		{"LogicalYieldsOperandValues", `print 1 or 2; print nil or 2; print nil and 2; print 1 and 2;`, "12nil2"},
		{"PrintlnAppendsNewline", `println("hi"); println(1 + 1);`, "hi\n2\n"},
		{"PrintlnReturnsItself", `print println("hi");`, "hi\n<native fn>"},
		{"ClockIsANumber", "print clock() > 0;", "true"},
		{"DivisionByZero", "print 1 / 0; print -1 / 0;", "+Inf-Inf"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, runtimeErr := interpret(t, test.src)
			if runtimeErr != nil {
				t.Fatalf("unexpected runtime error: %s", runtimeErr.Msg)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("incorrect output (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInterpretRuntimeErrors(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		want       string
		wantOutput string
	}{
		{"UninitializedRead", "var x; print x;", "'x' used without initialization.", ""},
		{"UninitializedCompoundAssignment", "var x; x += 1;", "'+' operands must be numbers or strings.", ""},
		{"UndefinedVariable", "print y;", "Undefined variable 'y'.", ""},
		{"UndefinedAssignment", "y = 1;", "Undefined variable 'y'.", ""},
		{"GlobalRedeclaration", "var x; var x;", "Attempted redeclaration of 'x'.", ""},
		{"AddNilAndNumber", "print 1 + nil;", "'+' operands must be numbers or strings.", ""},
		{"NegateString", `print -"a";`, "'-' operand must be a number.", ""},
		{"CompareStrings", `print "a" < "b";`, "'<' operands must be numbers.", ""},
		{"IncrementString", `var s = "a"; s++;`, "'++' operand must be a number.", ""},
		{"BackslashOnNumber", `var n = 1; print n\;`, `'\' can only be used on strings.`, ""},
		{"CallNonCallable", `"abc"(1);`, "Can only call functions and classes.", ""},
		{"TooManyArgs", "fun f(a) { return a; } f(1, 2);", "Expected 1 arguments, but got 2.", ""},
		{"TooFewArgs", "fun f(a, b) { return a; } f(1);", "Expected 2 arguments, but got 1.", ""},
		{"ExecutionStopsAtError", "print 1; print nil + nil; print 2;", "'+' operands must be numbers or strings.", "1"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, runtimeErr := interpret(t, test.src)
			if runtimeErr == nil {
				t.Fatalf("expected a runtime error, got output %q", got)
			}
			if diff := cmp.Diff(test.want, runtimeErr.Msg); diff != "" {
				t.Errorf("incorrect error message (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantOutput, got); diff != "" {
				t.Errorf("incorrect output before the error (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInterpretREPLMode(t *testing.T) {
	var buf bytes.Buffer
	i := interpreter.New(interpreter.WithStdout(&buf), interpreter.REPLMode())
	if err := interpretInto(t, i, "1 + 2;"); err != nil {
		t.Fatalf("unexpected runtime error: %s", err.Msg)
	}
	if diff := cmp.Diff("3\n", buf.String()); diff != "" {
		t.Errorf("incorrect output (-want +got):\n%s", diff)
	}
}

func TestInterpretStatePersistsAcrossCalls(t *testing.T) {
	var buf bytes.Buffer
	i := interpreter.New(interpreter.WithStdout(&buf))

	if err := interpretInto(t, i, "var a = 1;"); err != nil {
		t.Fatalf("unexpected runtime error: %s", err.Msg)
	}
	if err := interpretInto(t, i, "print a;"); err != nil {
		t.Fatalf("unexpected runtime error: %s", err.Msg)
	}
	if diff := cmp.Diff("1", buf.String()); diff != "" {
		t.Errorf("incorrect output (-want +got):\n%s", diff)
	}
}

func TestInterpretClosuresSurviveAcrossCalls(t *testing.T) {
	// Distances resolved by earlier calls must stay valid when a later call invokes a closure from an earlier one.
	var buf bytes.Buffer
	i := interpreter.New(interpreter.WithStdout(&buf))

	src := "fun mk() { var i = 0; fun inc() { i += 1; return i; } return inc; } var f = mk();"
	if err := interpretInto(t, i, src); err != nil {
		t.Fatalf("unexpected runtime error: %s", err.Msg)
	}
	if err := interpretInto(t, i, "println(f()); println(f());"); err != nil {
		t.Fatalf("unexpected runtime error: %s", err.Msg)
	}
	if diff := cmp.Diff("1\n2\n", buf.String()); diff != "" {
		t.Errorf("incorrect output (-want +got):\n%s", diff)
	}
}
