package ast

import (
	"fmt"
	"strings"

	"slox/token"
)

// Print prints a node to stdout as an S-expression.
func Print(node Node) {
	fmt.Println(Sprint(node))
}

// Sprint formats a node as an S-expression, such as (+ 1 (* 2 3)).
// Nil nodes (error placeholders and omitted clauses) format as <nil>.
func Sprint(node Node) string {
	switch node := node.(type) {
	case Program:
		parts := make([]string, len(node.Stmts))
		for i, stmt := range node.Stmts {
			parts[i] = Sprint(stmt)
		}
		return strings.Join(parts, "\n")
	case VarDecl:
		if node.Initialiser == nil {
			return parens("var", node.Name.Lexeme)
		}
		return parens("var", node.Name.Lexeme, Sprint(node.Initialiser))
	case FunDecl:
		return parens("fun", node.Name.Lexeme, sprintParams(node.Function.Params), sprintStmts(node.Function.Body))
	case ExprStmt:
		return parens("expr", Sprint(node.Expr))
	case PrintStmt:
		return parens("print", Sprint(node.Expr))
	case BlockStmt:
		return parens("block", sprintStmts(node.Stmts))
	case IfStmt:
		if node.Else == nil {
			return parens("if", Sprint(node.Condition), Sprint(node.Then))
		}
		return parens("if", Sprint(node.Condition), Sprint(node.Then), Sprint(node.Else))
	case WhileStmt:
		return parens("while", Sprint(node.Condition), Sprint(node.Body))
	case ForStmt:
		return parens("for", sprintOrNil(node.Initialise), Sprint(node.Condition), sprintOrNil(node.Update), Sprint(node.Body))
	case BreakStmt:
		return parens("break")
	case ContinueStmt:
		return parens("continue")
	case ReturnStmt:
		if node.Value == nil {
			return parens("return")
		}
		return parens("return", Sprint(node.Value))
	case IllegalStmt:
		return parens("illegal")
	case LiteralExpr:
		return node.Value.Lexeme
	case GroupExpr:
		return parens("group", Sprint(node.Expr))
	case VariableExpr:
		return node.Name.Lexeme
	case AssignExpr:
		return parens(node.Op.Lexeme, node.Name.Lexeme, Sprint(node.Right))
	case UnaryExpr:
		return parens(node.Op.Lexeme, Sprint(node.Right))
	case PostfixExpr:
		return parens("postfix"+node.Op.Lexeme, Sprint(node.Left))
	case BinaryExpr:
		return parens(node.Op.Lexeme, sprintOrNil(node.Left), Sprint(node.Right))
	case LogicalExpr:
		return parens(node.Op.Lexeme, Sprint(node.Left), Sprint(node.Right))
	case TernaryExpr:
		return parens("?:", Sprint(node.Condition), Sprint(node.Then), Sprint(node.Else))
	case CallExpr:
		parts := []string{"call", Sprint(node.Callee)}
		for _, arg := range node.Args {
			parts = append(parts, Sprint(arg))
		}
		return parens(parts...)
	case FunExpr:
		return parens("fun", sprintParams(node.Params), sprintStmts(node.Body))
	case nil:
		return "<nil>"
	default:
		panic(fmt.Sprintf("unexpected node type: %T", node))
	}
}

func sprintOrNil(node Node) string {
	if node == nil {
		return "<nil>"
	}
	return Sprint(node)
}

func sprintStmts(stmts []Stmt) string {
	parts := make([]string, len(stmts))
	for i, stmt := range stmts {
		parts[i] = Sprint(stmt)
	}
	return parens(parts...)
}

func sprintParams(params []token.Token) string {
	parts := make([]string, len(params))
	for i, param := range params {
		parts[i] = param.Lexeme
	}
	return parens(parts...)
}

func parens(parts ...string) string {
	return "(" + strings.Join(parts, " ") + ")"
}
