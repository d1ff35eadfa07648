package varref

import (
	"testing"

	"github.com/refcheck/refcheck/pkg/models"
)

func expectUnused(t *testing.T, src string) {
	t.Helper()
	expectKinds(t, src, []models.DiagnosticKind{models.UnusedLocalAssignment}, WithUnusedLocalCheck())
}

func expectNoneUnusedEnabled(t *testing.T, src string) {
	t.Helper()
	expectNone(t, src, WithUnusedLocalCheck())
}

func TestUnusedLocalVar(t *testing.T) {
	expectUnused(t, "function f() { var a; }")
	expectUnused(t, "function f() { var a = 2; }")
	expectUnused(t, "function f() { var a; a = 2; }")
}

func TestUnusedLocalLet(t *testing.T) {
	expectUnused(t, "function f() { let a; }")
	expectUnused(t, "function f() { let a = 2; }")
	expectUnused(t, "function f() { let a; a = 2; }")
}

func TestUnusedLocalConst(t *testing.T) {
	expectUnused(t, "function f() { const a = 2; }")
}

func TestUnusedLocalArgNoWarning(t *testing.T) {
	expectNoneUnusedEnabled(t, "function f(a) {}")
}

func TestUnusedGlobalNoWarning(t *testing.T) {
	expectNoneUnusedEnabled(t, "var a = 2;")
}

func TestUnusedGlobalInBlockNoWarning(t *testing.T) {
	expectNoneUnusedEnabled(t, "if (true) { var a = 2; }")
}

func TestUnusedLocalInBlock(t *testing.T) {
	expectUnused(t, "if (true) { let a = 2; }")
	expectUnused(t, "if (true) { const a = 2; }")
}

func TestUnusedAssignedInInnerFunction(t *testing.T) {
	expectUnused(t, "function f() { var x = 1; function g() { x = 2; } }")
}

func TestIncrementDecrementResultUsed(t *testing.T) {
	expectNoneUnusedEnabled(t, "function f() { var x = 5; while (x-- > 0) {} }")
	expectNoneUnusedEnabled(t, "function f() { var x = -5; while (x++ < 0) {} }")
	expectNoneUnusedEnabled(t, "function f() { var x = 5; while (--x > 0) {} }")
	expectNoneUnusedEnabled(t, "function f() { var x = -5; while (++x < 0) {} }")
}

func TestUsedInInnerFunction(t *testing.T) {
	expectNoneUnusedEnabled(t, "function f() { var x = 1; function g() { use(x); } }")
}

func TestUsedInShorthandObjLit(t *testing.T) {
	expectKinds(t, "var z = {x}; z(); var x;",
		[]models.DiagnosticKind{models.EarlyReference}, WithUnusedLocalCheck())
	expectNoneUnusedEnabled(t, "var {x} = foo();")
	// Possibly-incorrect upstream behavior, preserved: no warning even
	// though x is unused.
	expectNoneUnusedEnabled(t, "var {x} = {};")
	expectNoneUnusedEnabled(t, "function f() { var x = 1; return {x}; }")
}

func TestUnusedCatch(t *testing.T) {
	expectNoneUnusedEnabled(t, "function f() { try {} catch (x) {} }")
}

func TestIncrementCountsAsUse(t *testing.T) {
	expectNoneUnusedEnabled(t, "var a = 2; var b = []; b[a++] = 1;")
}

func TestForIn(t *testing.T) {
	expectNoneUnusedEnabled(t, "for (var prop in obj) {}")
	expectNoneUnusedEnabled(t, "for (prop in obj) {}")
	expectNoneUnusedEnabled(t, "var prop; for (prop in obj) {}")
}

func TestUnusedCompoundAssign(t *testing.T) {
	expectNoneUnusedEnabled(t, "var x = 0; function f() { return x += 1; }")
	expectNoneUnusedEnabled(t, "var x = 0; var f = () => x += 1;")
	expectNoneUnusedEnabled(t, `
function f(elapsed) {
  let fakeMs = 0;
  stubs.replace(goog, 'now', () => fakeMs += elapsed);
}`)
	expectNoneUnusedEnabled(t, `
function f(elapsed) {
  let fakeMs = 0;
  stubs.replace(goog, 'now', () => fakeMs -= elapsed);
}`)
}

func TestChainedAssign(t *testing.T) {
	expectNoneUnusedEnabled(t, "var a, b = 0, c; a = b = c; alert(a);")
	expectUnused(t, `
function foo() {
  var a, b = 0, c;
  a = b = c;
  alert(a);
}
foo();`)
}

func TestUnusedLocalVarInGoogScope(t *testing.T) {
	expectNoneUnusedEnabled(t, "goog.scope(function f() { var a; });")
	expectNoneUnusedEnabled(t, "goog.scope(function f() { /** @typedef {some.long.name} */ var a; });")
	expectNoneUnusedEnabled(t, "goog.scope(function f() { var a = some.long.name; });")
}

func TestGoogModule(t *testing.T) {
	expectNoneUnusedEnabled(t, "goog.module('example'); var X = 3; use(X);")
	expectUnused(t, "goog.module('example'); var X = 3;")
}

func TestES6Module(t *testing.T) {
	expectNoneUnusedEnabled(t, "import 'example'; var X = 3; use(X);")
	expectUnused(t, "import 'example'; var X = 3;")
}

func TestGoogModuleBundled(t *testing.T) {
	expectNoneUnusedEnabled(t, "goog.loadModule(function(exports) { 'use strict';"+
		"goog.module('example'); var X = 3; use(X);"+
		"return exports; });")
	expectUnused(t, "goog.loadModule(function(exports) { 'use strict';"+
		"goog.module('example'); var X = 3;"+
		"return exports; });")
}

func TestGoogModuleDestructuring(t *testing.T) {
	expectNoneUnusedEnabled(t, "goog.module('example'); var {x} = goog.require('y'); use(x);")
	// The dedicated require check owns this one.
	expectNoneUnusedEnabled(t, "goog.module('example'); var {x} = goog.require('y');")
}

func TestGoogModuleRequire(t *testing.T) {
	expectNoneUnusedEnabled(t, "goog.module('example'); var X = goog.require('foo.X'); use(X);")
	expectNoneUnusedEnabled(t, "goog.module('example'); var X = goog.require('foo.X');")
}

func TestGoogModuleForwardDeclare(t *testing.T) {
	expectNoneUnusedEnabled(t, `
goog.module('example');

var X = goog.forwardDeclare('foo.X');

/** @type {X} */ var x = 0;
alert(x);`)
	expectNoneUnusedEnabled(t, "goog.module('example'); var X = goog.forwardDeclare('foo.X');")
}

func TestGoogModuleUsedInTypeAnnotation(t *testing.T) {
	expectNoneUnusedEnabled(t,
		"goog.module('example'); var X = goog.require('foo.X'); /** @type {X} */ var y; use(y);")
}

func TestES6ModuleUsedInTypeAnnotation(t *testing.T) {
	expectNoneUnusedEnabled(t,
		"import 'example'; import X from 'foo.X'; export /** @type {X} */ var y; use(y);")
}

func TestUnusedTypedefInModule(t *testing.T) {
	expectUnused(t, "goog.module('m'); var x;")
	expectUnused(t, "goog.module('m'); let x;")
	expectNoneUnusedEnabled(t, "goog.module('m'); /** @typedef {string} */ var x;")
	expectNoneUnusedEnabled(t, "goog.module('m'); /** @typedef {string} */ let x;")
}

func TestUnusedTypedefInES6Module(t *testing.T) {
	expectUnused(t, "import 'm'; var x;")
	expectUnused(t, "import 'm'; let x;")
	expectNoneUnusedEnabled(t, "import 'm'; /** @typedef {string} */ var x;")
}

func TestAliasInModule(t *testing.T) {
	expectNoneUnusedEnabled(t, `
goog.module('m');
const x = goog.require('x');
const y = x.y;
/** @type {y} */ var z;
alert(z);`)
}

func TestAliasInES6Module(t *testing.T) {
	expectNoneUnusedEnabled(t, `
import 'm';
import x from 'x';
export const y = x.y;
export /** @type {y} */ var z;
alert(z);`)
}

func TestUnusedImport(t *testing.T) {
	// Upstream contract: unused imports do not warn (yet).
	expectNoneUnusedEnabled(t, "import x from 'Foo';")
}

func TestExportedType(t *testing.T) {
	expectNoneUnusedEnabled(t, "export class Foo {}\nexport /** @type {Foo} */ var y;")
}

func TestES6ModuleDestructuringImports(t *testing.T) {
	expectNoneUnusedEnabled(t, "import 'example'; import {x} from 'y'; use(x);")
	expectNoneUnusedEnabled(t, "import 'example'; import {x as x} from 'y'; use(x);")
	expectNoneUnusedEnabled(t, "import 'example'; import {y as x} from 'y'; use(x);")
}
