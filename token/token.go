// Package token declares the type representing a lexical token of slox code.
package token

import (
	"cmp"
	"fmt"
)

// Type is the type of a lexical token of slox code.
type Type int

// The list of all token types.
const (
	Illegal Type = iota
	EOF

	// Keywords
	keywordsStart
	And
	Break
	Class
	Continue
	Else
	False
	For
	Fun
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While
	keywordsEnd

	// Literals
	Ident
	String
	Number

	// Symbols
	symbolsStart
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Semicolon
	BackSlash
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual
	Plus
	PlusPlus
	PlusEqual
	Minus
	MinusMinus
	MinusEqual
	Asterisk
	AsteriskEqual
	Slash
	SlashEqual
	Question
	Colon
	symbolsEnd
)

var typeStrings = map[Type]string{
	Illegal:       "ILLEGAL",
	EOF:           "EOF",
	And:           "and",
	Break:         "break",
	Class:         "class",
	Continue:      "continue",
	Else:          "else",
	False:         "false",
	For:           "for",
	Fun:           "fun",
	If:            "if",
	Nil:           "nil",
	Or:            "or",
	Print:         "print",
	Return:        "return",
	Super:         "super",
	This:          "this",
	True:          "true",
	Var:           "var",
	While:         "while",
	Ident:         "IDENT",
	String:        "STRING",
	Number:        "NUMBER",
	LeftParen:     "(",
	RightParen:    ")",
	LeftBrace:     "{",
	RightBrace:    "}",
	Comma:         ",",
	Dot:           ".",
	Semicolon:     ";",
	BackSlash:     `\`,
	Bang:          "!",
	BangEqual:     "!=",
	Equal:         "=",
	EqualEqual:    "==",
	Greater:       ">",
	GreaterEqual:  ">=",
	Less:          "<",
	LessEqual:     "<=",
	Plus:          "+",
	PlusPlus:      "++",
	PlusEqual:     "+=",
	Minus:         "-",
	MinusMinus:    "--",
	MinusEqual:    "-=",
	Asterisk:      "*",
	AsteriskEqual: "*=",
	Slash:         "/",
	SlashEqual:    "/=",
	Question:      "?",
	Colon:         ":",
}

func (t Type) String() string {
	if s, ok := typeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

var keywordTypesByIdent = func() map[string]Type {
	keywordTypesByIdent := make(map[string]Type, keywordsEnd-keywordsStart)
	for i := keywordsStart + 1; i < keywordsEnd; i++ {
		keywordTypesByIdent[i.String()] = i
	}
	return keywordTypesByIdent
}()

// IdentType returns the type of the keyword with the given identifier, or Ident if the identifier is not a keyword.
func IdentType(ident string) Type {
	if keywordType, ok := keywordTypesByIdent[ident]; ok {
		return keywordType
	}
	return Ident
}

// Token is a lexical token of slox code.
// Literal holds the parsed literal payload: a float64 for Number tokens, the unquoted string contents for String
// tokens, and nil otherwise.
type Token struct {
	StartPos Position // Position of the first character of the token
	EndPos   Position // Position of the character immediately after the token
	Type     Type
	Lexeme   string
	Literal  any
}

// Start returns the position of the first character of the token.
func (t Token) Start() Position {
	return t.StartPos
}

// End returns the position of the character immediately after the token.
func (t Token) End() Position {
	return t.EndPos
}

func (t Token) String() string {
	if t.Type == EOF {
		return fmt.Sprintf("%s: [%s]", t.StartPos, t.Type)
	}
	if (keywordsStart < t.Type && t.Type < keywordsEnd) || (symbolsStart < t.Type && t.Type < symbolsEnd) {
		return fmt.Sprintf("%s: %s", t.StartPos, t.Lexeme)
	}
	return fmt.Sprintf("%s: %s [%s]", t.StartPos, t.Lexeme, t.Type)
}

// Position is a position in a file.
type Position struct {
	File   *File
	Line   int // 1-based line number
	Column int // 0-based byte offset from the start of the line
}

// Compare returns
//
//	-1 if p comes before other,
//	 0 if p and other are the same position,
//	+1 if p comes after other.
func (p Position) Compare(other Position) int {
	if p.Line == other.Line {
		return cmp.Compare(p.Column, other.Column)
	}
	return cmp.Compare(p.Line, other.Line)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column+1)
}

// Range describes a range of characters in the source code.
type Range interface {
	Start() Position // Start returns the position of the first character of the range.
	End() Position   // End returns the position of the character immediately after the range.
}

// File is a simple representation of a source file.
type File struct {
	Name        string
	Contents    []byte
	lineOffsets []int
}

// NewFile returns a new File with the given contents.
func NewFile(name string, contents []byte) *File {
	f := &File{
		Name:     name,
		Contents: contents,
	}
	f.lineOffsets = append(f.lineOffsets, 0)
	for i := range contents {
		if contents[i] == '\n' {
			f.lineOffsets = append(f.lineOffsets, i+1)
		}
	}
	return f
}

// Line returns the nth (1-based) line of the file.
func (f *File) Line(n int) []byte {
	low := f.lineOffsets[n-1]
	high := len(f.Contents)
	if n < len(f.lineOffsets) {
		high = f.lineOffsets[n] - 1 // -1 to exclude the newline
	}
	return f.Contents[low:high]
}
