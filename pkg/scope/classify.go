package scope

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/refcheck/refcheck/pkg/parser"
)

// CalleeName returns the dotted callee of a call expression, e.g.
// "goog.module" for goog.module('ns'), or "" when the call target is
// not a plain dotted name.
func CalleeName(call *sitter.Node, source []byte) string {
	if call == nil || call.Type() != "call_expression" {
		return ""
	}
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return parser.GetNodeText(fn, source)
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return ""
		}
		if obj.Type() != "identifier" && obj.Type() != "member_expression" {
			return ""
		}
		return parser.GetNodeText(fn, source)
	}
	return ""
}

// callOfStatement unwraps an expression statement down to its call
// expression, if that is what it holds.
func callOfStatement(stmt *sitter.Node) *sitter.Node {
	if stmt == nil || stmt.Type() != "expression_statement" {
		return nil
	}
	expr := stmt.NamedChild(0)
	if expr == nil || expr.Type() != "call_expression" {
		return nil
	}
	return expr
}

// isDirective reports whether a statement is a directive prologue entry
// such as 'use strict'.
func isDirective(stmt *sitter.Node) bool {
	if stmt == nil || stmt.Type() != "expression_statement" {
		return false
	}
	expr := stmt.NamedChild(0)
	return expr != nil && expr.Type() == "string"
}

// firstRealStatement returns the first statement of a body that is
// neither a comment nor a directive.
func firstRealStatement(body *sitter.Node) *sitter.Node {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" || isDirective(stmt) {
			continue
		}
		return stmt
	}
	return nil
}

// classifyProgram decides the top-level scope kind before any binding
// is declared. ES6 module syntax anywhere at the top level makes the
// file a Module; a leading goog.module() call makes it a GoogModule.
func classifyProgram(root *sitter.Node, source []byte) Kind {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		switch root.NamedChild(i).Type() {
		case "import_statement", "export_statement":
			return Module
		}
	}
	if call := callOfStatement(firstRealStatement(root)); call != nil {
		if CalleeName(call, source) == "goog.module" {
			return GoogModule
		}
	}
	return Global
}

// isGoogModuleBody reports whether a function body begins with a
// goog.module() call, as in the goog.loadModule bundled form.
func isGoogModuleBody(body *sitter.Node, source []byte) bool {
	if body == nil {
		return false
	}
	call := callOfStatement(firstRealStatement(body))
	return call != nil && CalleeName(call, source) == "goog.module"
}

// enclosingCallCallee walks from a function node to the call expression
// it is an argument of, returning the dotted callee name, e.g. "goog.scope"
// for goog.scope(function() {...}).
func enclosingCallCallee(fn *sitter.Node, source []byte) string {
	parent := fn.Parent()
	if parent == nil || parent.Type() != "arguments" {
		return ""
	}
	return CalleeName(parent.Parent(), source)
}

// isModuleAliasInit reports whether a declarator initializer is a
// goog.require / goog.forwardDeclare / goog.module.get call. Such
// aliases are checked by the dedicated require checks, not this pass.
func isModuleAliasInit(value *sitter.Node, source []byte) bool {
	switch CalleeName(value, source) {
	case "goog.require", "goog.requireType", "goog.forwardDeclare", "goog.module.get":
		return true
	}
	return false
}
