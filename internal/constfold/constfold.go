// Package constfold evaluates compile-time-constant initializer expressions,
// the same restricted set original_source/src/const_eval.c folds: literals
// and +,-,*,/ over literals, recursively. Unary operators, calls, indexing,
// variables and entrada are never foldable and are left untouched.
package constfold

import (
	"strconv"

	"github.com/brunoczim/compiler-course/internal/ast"
	"github.com/brunoczim/compiler-course/internal/symtab"
)

// Fold rewrites n in place into a literal node when it is constant, caching
// the folded value's textual form as n.Name so later stages see a literal.
// It recurses into n's operands first so nested constant subtrees fold too.
func Fold(n *ast.Node, in *symtab.Interner) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.IntLit, ast.CharLit, ast.FloatLit, ast.StringLit:
		return
	case ast.Binary:
		Fold(n.X, in)
		Fold(n.Y, in)
		foldBinary(n)
	default:
		// Unary, Ident, Call, Index, Entrada: not constant-foldable.
		if n.X != nil {
			Fold(n.X, in)
		}
		if n.Y != nil {
			Fold(n.Y, in)
		}
	}
}

func intValue(n *ast.Node) (int64, bool) {
	switch n.Kind {
	case ast.IntLit:
		v, err := strconv.ParseInt(n.Name, 10, 64)
		return v, err == nil
	case ast.CharLit:
		if len(n.Name) != 1 {
			return 0, false
		}
		return int64(n.Name[0]), true
	}
	return 0, false
}

func floatValue(n *ast.Node) (float64, bool) {
	if n.Kind != ast.FloatLit {
		return 0, false
	}
	v, err := strconv.ParseFloat(n.Name, 64)
	return v, err == nil
}

func foldBinary(n *ast.Node) {
	if lv, ok := intValue(n.X); ok {
		if rv, ok2 := intValue(n.Y); ok2 && n.X.Kind != ast.FloatLit && n.Y.Kind != ast.FloatLit {
			if res, ok3 := foldInt(n.Name, lv, rv); ok3 {
				n.Kind = ast.IntLit
				n.Name = formatInt(res)
				n.X, n.Y = nil, nil
			}
			return
		}
	}
	if lv, ok := floatValue(n.X); ok {
		if rv, ok2 := floatValue(n.Y); ok2 {
			if res, ok3 := foldFloat(n.Name, lv, rv); ok3 {
				n.Kind = ast.FloatLit
				n.Name = formatFloat(res)
				n.X, n.Y = nil, nil
			}
		}
	}
}

func foldInt(op string, l, r int64) (int64, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		if r == 0 {
			return 0, false
		}
		return l / r, true
	}
	return 0, false
}

func foldFloat(op string, l, r float64) (float64, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		return l / r, true
	}
	return 0, false
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	// Reuse the symbol table's canonical literal formatting so a folded
	// float prints identically to one the lexer scanned directly.
	return symtab.FormatFloatLiteralForConstFold(v)
}
