package parser_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"slox/ast"
	"slox/loxerr"
	"slox/parser"
)

func parse(t *testing.T, src string) (ast.Program, loxerr.Errors) {
	t.Helper()
	program, err := parser.Parse(strings.NewReader(src), "test.lox")
	if err == nil {
		return program, nil
	}
	var errs loxerr.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("Parse returned %T, want loxerr.Errors", err)
	}
	return program, errs
}

func errorMsgs(errs loxerr.Errors) []string {
	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Msg)
	}
	return msgs
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"Precedence", "print 1 + 2 * 3;", "(print (+ 1 (* 2 3)))"},
		{"LeftAssociativeAdditive", "1 - 2 - 3;", "(expr (- (- 1 2) 3))"},
		{"UnaryChain", "!-1;", "(expr (! (- 1)))"},
		{"Equality", "a == b != c;", "(expr (!= (== a b) c))"},
		{"Comparison", "1 < 2 <= 3;", "(expr (<= (< 1 2) 3))"},
		{"Grouping", "(1 + 2) * 3;", "(expr (* (group (+ 1 2)) 3))"},
		{"BraceGrouping", "var x = {1 + 2};", "(var x (group (+ 1 2)))"},
		{"CommaThenTernary", "1, 2, 3 ? 4 : 5;", "(expr (?: (, (, 1 2) 3) 4 5))"},
		{"TernaryRightAssociative", "a ? b : c ? d : e;", "(expr (?: a b (?: c d e)))"},
		{"AssignmentRightAssociative", "a = b = 2;", "(expr (= a (= b 2)))"},
		{"CompoundAssignment", "a *= 2;", "(expr (*= a 2))"},
		{"LogicalPrecedence", "a or b and c;", "(expr (or a (and b c)))"},
		{"LogicalAndLeftAssociative", "a and b and c;", "(expr (and (and a b) c))"},
		{"Calls", "f(1)(2, 3);", "(expr (call (call f 1) 2 3))"},
		{"CallArgsBindAboveComma", "f(1, 2);", "(expr (call f 1 2))"},
		{"PrefixIncrement", "++x;", "(expr (++ x))"},
		{"PostfixIncrement", "x++;", "(expr (postfix++ x))"},
		{"PostfixBackslash", `s\;`, `(expr (postfix\ s))`},
		{"StringLiteral", `print "hi";`, `(print "hi")`},
		{"AnonymousFunction", "var f = fun(a) { return a; };", "(var f (fun (a) ((return a))))"},
		{"FunctionDeclaration", "fun add(a, b) { return a + b; }", "(fun add (a b) ((return (+ a b))))"},
		{"VarWithoutInitialiser", "var x;", "(var x)"},
		{"IfElse", "if (a) print 1; else print 2;", "(if a (print 1) (print 2))"},
		{"While", "while (true) { break; continue; }", "(while true (block ((break) (continue))))"},
		{"For", "for (var i = 0; i < 3; i = i + 1) print i;", "(for (var i 0) (< i 3) (= i (+ i 1)) (print i))"},
		{"ForEmptyClauses", "for (;;) print 1;", "(for <nil> true <nil> (print 1))"},
		{"Return", "fun f() { return; }", "(fun f () ((return)))"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			program, errs := parse(t, test.src)
			if len(errs) > 0 {
				t.Fatalf("unexpected errors:\n%s", errs.Error())
			}
			if diff := cmp.Diff(test.want, ast.Sprint(program)); diff != "" {
				t.Errorf("incorrect AST (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"BreakOutsideLoop", "break;", []string{"Must be inside a loop to use 'break'."}},
		{"ContinueOutsideLoop", "continue;", []string{"Must be inside a loop to use 'continue'."}},
		{"InvalidAssignmentTarget", "1 = 2;", []string{"Invalid assignment target."}},
		{"MissingLeftOperandStar", "* 2;", []string{"Missing left-hand operand."}},
		{"MissingLeftOperandEquality", "!= 2;", []string{"Missing left-hand operand."}},
		{"MissingLeftOperandPlus", "+ 2;", []string{"Missing left-hand operand."}},
		{"DoublePostfix", "x++--;", []string{"Cannot concatenate operators '++' and '--'."}},
		{"IncrementNonVariable", "++1;", []string{"Can only increment or decrement variables."}},
		{"PostfixIncrementNonVariable", "1++;", []string{"Can only increment or decrement variables."}},
		{"UnterminatedString", `print "abc`, []string{"unterminated string literal"}},
		{"MissingSemicolon", "print 1", []string{"Expect ';' after value."}},
		{"VarCommaInitialiser", "var x = 1, 2;", []string{"Expect ';' after variable declaration."}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, errs := parse(t, test.src)
			if diff := cmp.Diff(test.want, errorMsgs(errs)); diff != "" {
				t.Errorf("incorrect errors (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSynchronisesAfterError(t *testing.T) {
	// One bad statement shouldn't swallow the rest of the program.
	src := "var ;\nprint 1;\nvar = 2;\nprint 3;"
	program, errs := parse(t, src)
	want := []string{"Expect variable name.", "Expect variable name."}
	if diff := cmp.Diff(want, errorMsgs(errs)); diff != "" {
		t.Errorf("incorrect errors (-want +got):\n%s", diff)
	}
	if len(program.Stmts) != 4 {
		t.Fatalf("program has %d statements, want 4 (including placeholders)", len(program.Stmts))
	}
	if _, ok := program.Stmts[0].(ast.IllegalStmt); !ok {
		t.Errorf("statement 0 is %T, want ast.IllegalStmt", program.Stmts[0])
	}
	if _, ok := program.Stmts[1].(ast.PrintStmt); !ok {
		t.Errorf("statement 1 is %T, want ast.PrintStmt", program.Stmts[1])
	}
}

func TestParseParamAndArgLimits(t *testing.T) {
	params := make([]string, 256)
	for i := range params {
		params[i] = fmt.Sprintf("p%d", i)
	}

	t.Run("255ParamsAllowed", func(t *testing.T) {
		src := fmt.Sprintf("fun f(%s) {}", strings.Join(params[:255], ", "))
		_, errs := parse(t, src)
		if len(errs) > 0 {
			t.Fatalf("unexpected errors:\n%s", errs.Error())
		}
	})

	t.Run("256ParamsReported", func(t *testing.T) {
		src := fmt.Sprintf("fun f(%s) {}", strings.Join(params, ", "))
		program, errs := parse(t, src)
		want := []string{"Can't have more than 255 parameters."}
		if diff := cmp.Diff(want, errorMsgs(errs)); diff != "" {
			t.Errorf("incorrect errors (-want +got):\n%s", diff)
		}
		// Parsing continues: the declaration is still produced.
		if len(program.Stmts) != 1 {
			t.Fatalf("program has %d statements, want 1", len(program.Stmts))
		}
		if _, ok := program.Stmts[0].(ast.FunDecl); !ok {
			t.Errorf("statement 0 is %T, want ast.FunDecl", program.Stmts[0])
		}
	})

	t.Run("256ArgsReported", func(t *testing.T) {
		src := fmt.Sprintf("f(%s);", strings.Join(params, ", "))
		_, errs := parse(t, src)
		want := []string{"Can't have more than 255 arguments."}
		if diff := cmp.Diff(want, errorMsgs(errs)); diff != "" {
			t.Errorf("incorrect errors (-want +got):\n%s", diff)
		}
	})
}

func TestParseIsDeterministic(t *testing.T) {
	src := "fun fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); }\nprint fib(10);"
	first, errs := parse(t, src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors:\n%s", errs.Error())
	}
	second, _ := parse(t, src)
	if diff := cmp.Diff(ast.Sprint(first), ast.Sprint(second)); diff != "" {
		t.Errorf("re-parsing produced a different AST (-first +second):\n%s", diff)
	}
}
