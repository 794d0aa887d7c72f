// Copyright © 2024 The Declavatar authors

// Package astutil provides shared walking utilities for generic forms.
//
// The parser uses them to skip forms that failed to parse before lowering
// them into declarations.
package astutil

import "github.com/declavatar/declavatar/ast"

// Walk calls fn for every expression in the tree, depth-first.  Keyword
// values are visited after positional arguments.  parent is nil for
// top-level expressions.
func Walk(exprs []ast.Expr, fn func(node ast.Expr, parent ast.Expr, depth int)) {
	for _, expr := range exprs {
		walkNode(expr, nil, 0, fn)
	}
}

func walkNode(node ast.Expr, parent ast.Expr, depth int, fn func(ast.Expr, ast.Expr, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	switch node := node.(type) {
	case *ast.CallExpr:
		for _, arg := range node.Args {
			walkNode(arg, node, depth+1, fn)
		}
		for _, kw := range node.Keywords {
			walkNode(kw.Value, node, depth+1, fn)
		}
	case *ast.ListExpr:
		for _, item := range node.Items {
			walkNode(item, node, depth+1, fn)
		}
	}
}

// ContainsBad reports whether x contains an expression that failed to
// parse.
func ContainsBad(x ast.Expr) bool {
	bad := false
	Walk([]ast.Expr{x}, func(node ast.Expr, _ ast.Expr, _ int) {
		if _, ok := node.(*ast.BadExpr); ok {
			bad = true
		}
	})
	return bad
}
