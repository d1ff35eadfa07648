package scope

import (
	"testing"

	"github.com/refcheck/refcheck/pkg/parser"
)

func build(t *testing.T, src string) *Tree {
	t.Helper()
	p := parser.New()
	defer p.Close()
	result, err := p.Parse([]byte(src), "test.js")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return Build(result, Options{})
}

func lookup(t *testing.T, tree *Tree, from ID, name string) *Binding {
	t.Helper()
	id := tree.Lookup(from, name)
	if id == None {
		t.Fatalf("binding %q not found", name)
	}
	return tree.Binding(id)
}

func TestGlobalVar(t *testing.T) {
	tree := build(t, "var a = 1;")
	if tree.Scope(tree.Root).Kind != Global {
		t.Errorf("root kind = %s, want global", tree.Scope(tree.Root).Kind)
	}
	b := lookup(t, tree, tree.Root, "a")
	if b.Kind != Var {
		t.Errorf("kind = %s, want var", b.Kind)
	}
	if len(b.Decls) != 1 || !b.Decls[0].HasInit {
		t.Errorf("decls = %+v, want one initializing decl", b.Decls)
	}
}

func TestModuleClassification(t *testing.T) {
	if got := build(t, "import {x} from 'm';").Scope(0).Kind; got != Module {
		t.Errorf("import file kind = %s, want module", got)
	}
	if got := build(t, "export var a = 1;").Scope(0).Kind; got != Module {
		t.Errorf("export file kind = %s, want module", got)
	}
	if got := build(t, "goog.module('m'); var a;").Scope(0).Kind; got != GoogModule {
		t.Errorf("goog.module file kind = %s, want goog.module", got)
	}
	if got := build(t, "'use strict'; goog.module('m');").Scope(0).Kind; got != GoogModule {
		t.Errorf("directive-prefixed goog.module kind = %s, want goog.module", got)
	}
	if got := build(t, "goog.require('m');").Scope(0).Kind; got != Global {
		t.Errorf("goog.require file kind = %s, want global", got)
	}
}

func TestVarHoistsToFunctionScope(t *testing.T) {
	tree := build(t, "function f() { if (a) { var x; } }")
	fn := lookup(t, tree, tree.Root, "f")
	if fn.Kind != FunctionDecl || !fn.FirstDecl().Hoisted {
		t.Fatalf("f = %+v, want hoisted function decl", fn)
	}

	// x must live in f's function scope, not the if-block.
	var fnScope ID = None
	for i := range tree.Scopes {
		if tree.Scopes[i].Kind == Function {
			fnScope = ID(i)
		}
	}
	if fnScope == None {
		t.Fatal("no function scope built")
	}
	x := lookup(t, tree, fnScope, "x")
	if x.Scope != fnScope {
		t.Errorf("x.Scope = %d, want function scope %d", x.Scope, fnScope)
	}
	if x.FirstDecl().TextualScope == fnScope {
		t.Error("x textual scope should be the block, not the function scope")
	}
}

func TestLetStaysInBlock(t *testing.T) {
	tree := build(t, "function f() { if (a) { let x; } }")
	var block ID = None
	for i := range tree.Scopes {
		if tree.Scopes[i].Kind == Block {
			block = ID(i)
		}
	}
	if block == None {
		t.Fatal("no block scope built")
	}
	if _, ok := tree.Scope(block).Names["x"]; !ok {
		t.Error("x should be declared in the block scope")
	}
	if tree.Lookup(tree.Root, "x") != None {
		t.Error("x should not be visible from the global scope")
	}
}

func TestRedeclarationMergesBinding(t *testing.T) {
	tree := build(t, "function f() { var a = 2; var a = 3; }")
	var fnScope ID = None
	for i := range tree.Scopes {
		if tree.Scopes[i].Kind == Function {
			fnScope = ID(i)
		}
	}
	a := lookup(t, tree, fnScope, "a")
	if len(a.Decls) != 2 {
		t.Errorf("len(Decls) = %d, want 2", len(a.Decls))
	}
}

func TestParams(t *testing.T) {
	tree := build(t, "function f(a, b = 1, ...rest) {}")
	var fnScope ID = None
	for i := range tree.Scopes {
		if tree.Scopes[i].Kind == Function {
			fnScope = ID(i)
		}
	}
	for i, name := range []string{"a", "b", "rest"} {
		b := lookup(t, tree, fnScope, name)
		if b.Kind != Param {
			t.Errorf("%s kind = %s, want param", name, b.Kind)
		}
		if b.ParamIndex != i {
			t.Errorf("%s index = %d, want %d", name, b.ParamIndex, i)
		}
	}
}

func TestDestructuredDeclaration(t *testing.T) {
	tree := build(t, "var {a: b, c, d = 1} = obj; var [e, [f]] = arr;")
	for _, name := range []string{"b", "c", "d", "e", "f"} {
		bind := lookup(t, tree, tree.Root, name)
		if !bind.FirstDecl().FromDestructuring {
			t.Errorf("%s should be marked as destructured", name)
		}
	}
	if tree.Lookup(tree.Root, "a") != None {
		t.Error("property key 'a' must not be declared")
	}
}

func TestCatchParameter(t *testing.T) {
	tree := build(t, "try {} catch (e) { let x; }")
	var catchScope ID = None
	for i := range tree.Scopes {
		if tree.Scopes[i].Kind == CatchBlock {
			catchScope = ID(i)
		}
	}
	if catchScope == None {
		t.Fatal("no catch scope built")
	}
	e := lookup(t, tree, catchScope, "e")
	if e.Kind != CatchParam {
		t.Errorf("e kind = %s, want catch param", e.Kind)
	}
	// The catch body shares the catch scope.
	if _, ok := tree.Scope(catchScope).Names["x"]; !ok {
		t.Error("x should be declared directly in the catch scope")
	}
}

func TestForHeaderScope(t *testing.T) {
	tree := build(t, "for (let x of xs) { let y; }")
	var header ID = None
	for i := range tree.Scopes {
		if tree.Scopes[i].Kind == ForHeader {
			header = ID(i)
		}
	}
	if header == None {
		t.Fatal("no for-header scope built")
	}
	x := lookup(t, tree, header, "x")
	if !x.FirstDecl().ForInTarget {
		t.Error("x should be marked as a loop target")
	}
	if _, ok := tree.Scope(header).Names["y"]; ok {
		t.Error("y belongs to the body block, not the header scope")
	}
}

func TestImports(t *testing.T) {
	tree := build(t, "import d from 'm'; import * as ns from 'n'; import {x, y as z} from 'o';")
	for _, name := range []string{"d", "ns", "x", "z"} {
		b := lookup(t, tree, tree.Root, name)
		if b.Kind != Import {
			t.Errorf("%s kind = %s, want import", name, b.Kind)
		}
	}
	if tree.Lookup(tree.Root, "y") != None {
		t.Error("remote name 'y' must not be declared")
	}
}

func TestExportMarksBinding(t *testing.T) {
	tree := build(t, "export var a = 1; var b = 2; export {b}; var c;")
	if !lookup(t, tree, tree.Root, "a").Exported {
		t.Error("a should be exported")
	}
	if !lookup(t, tree, tree.Root, "b").Exported {
		t.Error("b should be exported via the export clause")
	}
	if lookup(t, tree, tree.Root, "c").Exported {
		t.Error("c should not be exported")
	}
}

func TestBleedingFunctionName(t *testing.T) {
	tree := build(t, "var x = function y() {};")
	if tree.Lookup(tree.Root, "y") != None {
		t.Error("bleeding name must not escape the function expression")
	}
	var fnScope ID = None
	for i := range tree.Scopes {
		if tree.Scopes[i].Kind == Function {
			fnScope = ID(i)
		}
	}
	y := lookup(t, tree, fnScope, "y")
	if !y.IsBleedingName {
		t.Error("y should be a bleeding name")
	}
}

func TestGoogScopeFlag(t *testing.T) {
	tree := build(t, "goog.scope(function() { var a; });")
	found := false
	for i := range tree.Scopes {
		if tree.Scopes[i].IsGoogScopeBody {
			found = true
		}
	}
	if !found {
		t.Error("goog.scope body flag not set")
	}
}

func TestGoogLoadModuleBody(t *testing.T) {
	tree := build(t, "goog.loadModule(function(exports) { 'use strict'; goog.module('m'); var X; });")
	found := false
	for i := range tree.Scopes {
		if ID(i) != tree.Root && tree.Scopes[i].Kind == GoogModule {
			found = true
		}
	}
	if !found {
		t.Error("goog.loadModule body should be classified as a goog.module scope")
	}
}

func TestModuleAlias(t *testing.T) {
	tree := build(t, "goog.module('m'); var X = goog.require('foo.X'); var Y = goog.forwardDeclare('foo.Y');")
	if !lookup(t, tree, tree.Root, "X").IsModuleAlias {
		t.Error("X should be a module alias")
	}
	if !lookup(t, tree, tree.Root, "Y").IsModuleAlias {
		t.Error("Y should be a module alias")
	}
}

func TestNotDirectlyInBlock(t *testing.T) {
	tree := build(t, "if (a) let x = 1;")
	x := lookup(t, tree, tree.Root, "x")
	if !x.FirstDecl().NotDirectlyInBlock {
		t.Error("x should be flagged as not directly in a block")
	}

	tree = build(t, "if (a) var x = 1;")
	x = lookup(t, tree, tree.Root, "x")
	if x.FirstDecl().NotDirectlyInBlock {
		t.Error("var is exempt from the block-placement flag")
	}
}

func TestPatternNames(t *testing.T) {
	p := parser.New()
	defer p.Close()
	result, err := p.Parse([]byte("var {a: b, c, d = 2, ...rest} = x;"), "test.js")
	if err != nil {
		t.Fatal(err)
	}
	decl := parser.FindNodesByType(result.Tree.RootNode(), result.Source, "variable_declarator")
	if len(decl) != 1 {
		t.Fatalf("got %d declarators", len(decl))
	}
	names := PatternNames(decl[0].ChildByFieldName("name"))
	got := make([]string, len(names))
	for i, n := range names {
		got[i] = parser.GetNodeText(n, result.Source)
	}
	want := []string{"b", "c", "d", "rest"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
