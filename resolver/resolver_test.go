package resolver_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"slox/loxerr"
	"slox/parser"
	"slox/resolver"
)

// resolve parses and resolves src, returning the distances keyed by "lexeme@line" for readability.
func resolve(t *testing.T, src string) (map[string]int, loxerr.Errors) {
	t.Helper()
	program, err := parser.Parse(strings.NewReader(src), "test.lox")
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	distances, err := resolver.Resolve(program)
	got := map[string]int{}
	for ident, distance := range distances {
		got[fmt.Sprintf("%s@%d", ident.Lexeme, ident.StartPos.Line)] = distance
	}
	if err == nil {
		return got, nil
	}
	var errs loxerr.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("Resolve returned %T, want loxerr.Errors", err)
	}
	return got, errs
}

func TestResolveDistances(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]int
	}{
		{
			name: "GlobalsAreUnmapped",
			src:  "var g = 1;\nprint g;\ng = 2;",
			want: map[string]int{},
		},
		{
			name: "BlockLocals",
			src: `{
    var a = 1;
    print a;
    a = 2;
}`,
			want: map[string]int{"a@3": 0, "a@4": 0},
		},
		{
			name: "EnclosingBlock",
			src: `{
    var a = 1;
    {
        print a;
    }
}`,
			want: map[string]int{"a@4": 1},
		},
		{
			name: "Shadowing",
			src: `{
    var a = 1;
    {
        var a = 2;
        print a;
    }
    print a;
}`,
			want: map[string]int{"a@5": 0, "a@7": 0},
		},
		{
			name: "Params",
			src: `fun f(a) {
    return a;
}`,
			want: map[string]int{"a@2": 0},
		},
		{
			name: "Closure",
			src: `fun outer() {
    var x = 1;
    fun inner() {
        return x;
    }
    return inner;
}`,
			want: map[string]int{"x@4": 1, "inner@6": 0},
		},
		{
			name: "Recursion",
			src: `fun outer() {
    fun inner(n) {
        return inner(n);
    }
}`,
			want: map[string]int{"inner@3": 1, "n@3": 0},
		},
		{
			name: "ForClauses",
			src: `for (var i = 0; i < 3; i = i + 1) {
    print i;
}`,
			want: map[string]int{"i@1": 0, "i@2": 1},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, errs := resolve(t, test.src)
			if len(errs) > 0 {
				t.Fatalf("unexpected errors:\n%s", errs.Error())
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("incorrect distances (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "SelfReferentialInitialiser",
			src:  "{ var a = a; }",
			want: []string{"Can't read local variable in its own initializer."},
		},
		{
			name: "RedeclarationInSameScope",
			src:  "{ var a; var a; }",
			want: []string{"Already a variable with this name in this scope."},
		},
		{
			name: "ReturnAtTopLevel",
			src:  "return 1;",
			want: []string{"Can't return from top-level code."},
		},
		{
			name: "ReturnInsideFunctionIsFine",
			src:  "fun f() { return 1; }",
			want: nil,
		},
		{
			name: "GlobalRedeclarationIsNotStatic",
			// Redeclaring a global is caught at runtime, not by the resolver.
			src:  "var a; var a;",
			want: nil,
		},
		{
			name: "ErrorsAccumulate",
			src:  "{ var a = a; var a; }\nreturn;",
			want: []string{
				"Can't read local variable in its own initializer.",
				"Already a variable with this name in this scope.",
				"Can't return from top-level code.",
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, errs := resolve(t, test.src)
			var got []string
			for _, err := range errs {
				got = append(got, err.Msg)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("incorrect errors (-want +got):\n%s", diff)
			}
		})
	}
}
