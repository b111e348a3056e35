// Package ast defines the tagged-union tree the frontend (lexer, parser,
// semantic checker — out of core scope per spec.md §1) hands to the TAC
// producer. One Node shape serves every production, discriminated by Kind,
// in the same style as the teacher's own parser Node.
package ast

import (
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/types"
)

// Kind discriminates the Node union.
type Kind int

const (
	Program Kind = iota
	ScalarDecl
	VectorDecl
	FuncDecl
	Param
	Block
	If
	While
	Return
	Assign
	IndexAssign
	Escreva
	ExprStmt
	Ident
	IntLit
	CharLit
	FloatLit
	StringLit
	Unary
	Binary
	Call
	Index
	Entrada
)

// Node is the single AST node shape. Fields are populated per Kind; unused
// fields are left zero. See the per-Kind comments below for which fields a
// given Kind uses.
type Node struct {
	Kind Kind
	Line int

	Name string // identifier / operator text / function or param name

	Type     types.Base // declared or resolved scalar base type
	IsVector bool       // true for VectorDecl and vector-typed Param
	Length   int        // VectorDecl: declared element count

	X    *Node // Binary: left; Unary: operand; Index/IndexAssign: base; If/While: condition; Assign: rhs; Return: value; ExprStmt: expr
	Y    *Node // Binary: right; Index/IndexAssign: subscript; IndexAssign: rhs
	Body *Node // FuncDecl/If/While: Block
	Else *Node // If: optional else branch (Block or nested If)

	Nodes []*Node // Program: decls; FuncDecl: Params; Block: stmts; VectorDecl: initializer exprs; Call/Escreva: args

	Sym *symtab.Symbol // interned symbol backing this declaration/reference, set by internal/tac while lowering
}

// NewLeaf constructs a childless node (literal, identifier, Entrada).
func NewLeaf(kind Kind, line int) *Node {
	return &Node{Kind: kind, Line: line}
}
