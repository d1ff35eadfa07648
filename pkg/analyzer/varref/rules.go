package varref

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/refcheck/refcheck/pkg/jsdoc"
	"github.com/refcheck/refcheck/pkg/models"
	"github.com/refcheck/refcheck/pkg/scope"
)

// GlobalRedeclarationFunc receives hoisted redeclarations in the global
// scope. Reporting those is the global variable check's responsibility;
// this pass only signals the condition.
type GlobalRedeclarationFunc func(path, name string, node *sitter.Node)

// engine applies the reference rules to one binding at a time, once its
// scope has closed and its reference list is complete. Rules run in
// fixed order and at most one diagnostic is emitted per binding per
// rule; the first emission stops the chain for that binding.
type engine struct {
	tree *scope.Tree
	doc  *jsdoc.Info
	path string

	checkUnused    bool
	onGlobalRedecl GlobalRedeclarationFunc

	diags []models.Diagnostic
}

func (e *engine) check(bid scope.BindingID, refs []*Reference) {
	if e.tree.IsExterns {
		return
	}
	b := e.tree.Binding(bid)
	sum := summarize(refs)
	if e.checkNotDirectlyInBlock(b) {
		return
	}
	if e.checkRedeclaration(b) {
		return
	}
	if e.checkEarlyReferences(b, refs) {
		return
	}
	if e.checkConstReassignment(b, refs, sum) {
		return
	}
	e.checkUnusedAssignment(b, refs, sum)
}

func (e *engine) emit(kind models.DiagnosticKind, node *sitter.Node, name string) {
	pt := node.StartPoint()
	e.diags = append(e.diags, models.Diagnostic{
		Kind:     kind,
		Severity: kind.Severity(),
		File:     e.path,
		Line:     pt.Row + 1,
		Column:   pt.Column + 1,
		Offset:   node.StartByte(),
		Name:     name,
		Message:  message(kind, name),
	})
}

func message(kind models.DiagnosticKind, name string) string {
	switch kind {
	case models.DeclarationNotDirectlyInBlock:
		return fmt.Sprintf("Block-scoped declaration not directly within block: %s", name)
	case models.EarlyReference:
		return fmt.Sprintf("Variable referenced before declaration: %s", name)
	case models.EarlyReferenceError:
		return fmt.Sprintf("Illegal reference before declaration: %s", name)
	case models.RedeclaredVariable:
		return fmt.Sprintf("Redeclared variable: %s", name)
	case models.RedeclaredVariableError:
		return fmt.Sprintf("Illegal redeclaration of variable: %s", name)
	case models.ReassignedConstant:
		return fmt.Sprintf("Constant reassigned: %s", name)
	case models.UnusedLocalAssignment:
		return fmt.Sprintf("Value assigned to local variable %s is never read", name)
	case models.VarMultiplyDeclared:
		return fmt.Sprintf("Variable %s declared more than once", name)
	}
	return name
}

// checkNotDirectlyInBlock implements the declaration-placement rule:
// let, const, class, and function declarations may not be the bare body
// of an if/loop/with/label. var in the same position is legal.
func (e *engine) checkNotDirectlyInBlock(b *scope.Binding) bool {
	for i := range b.Decls {
		d := &b.Decls[i]
		if !d.NotDirectlyInBlock {
			continue
		}
		switch d.Kind {
		case scope.Let, scope.Const, scope.Class, scope.FunctionDecl:
			e.emit(models.DeclarationNotDirectlyInBlock, d.Name, b.Name)
			return true
		}
	}
	return false
}

// checkRedeclaration implements the redeclaration matrix. Cross-scope
// collisions (a var hoisting past a block-scoped binding of the same
// name) are checked first so they win over the benign same-scope
// warning.
func (e *engine) checkRedeclaration(b *scope.Binding) bool {
	if b.IsBleedingName {
		return false
	}
	if e.checkHoistPathCollision(b) {
		return true
	}
	return e.checkSameScopeCollision(b)
}

// checkHoistPathCollision looks for a block-scoped binding of the same
// name on the path between a hoisted declaration's textual position and
// its home scope. catch(e) { var e; } is the canonical case.
func (e *engine) checkHoistPathCollision(b *scope.Binding) bool {
	for i := range b.Decls {
		d := &b.Decls[i]
		if !d.Kind.IsHoisted() {
			continue
		}
		for sid := d.TextualScope; sid != b.Scope && sid != scope.None; sid = e.tree.Scope(sid).Parent {
			other, ok := e.tree.Scope(sid).Names[b.Name]
			if !ok {
				continue
			}
			ob := e.tree.Binding(other)
			if ob.IsBleedingName || !ob.Kind.IsBlockScoped() {
				continue
			}
			// @suppress {duplicate} never covers the catch-parameter
			// collision.
			catchPair := ob.Kind == scope.CatchParam
			if !catchPair && e.suppressed(d, ob) {
				continue
			}
			site := d.Name
			if first := ob.FirstDecl().Name; first.StartByte() > site.StartByte() {
				site = first
			}
			e.emit(models.RedeclaredVariableError, site, b.Name)
			return true
		}
	}
	return false
}

// checkSameScopeCollision handles additional declaration sites attached
// to one binding: two declarations of the same name in the same scope.
func (e *engine) checkSameScopeCollision(b *scope.Binding) bool {
	home := e.tree.Scope(b.Scope)
	for i := 1; i < len(b.Decls); i++ {
		d := &b.Decls[i]

		blockScoped := d.Kind.IsBlockScoped()
		catchPair := d.Kind == scope.CatchParam
		suppressed := e.doc.FileSuppressDuplicate || d.SuppressDuplicate
		for j := 0; j < i; j++ {
			prev := &b.Decls[j]
			blockScoped = blockScoped || prev.Kind.IsBlockScoped()
			catchPair = catchPair || prev.Kind == scope.CatchParam
			suppressed = suppressed || prev.SuppressDuplicate
		}

		switch {
		case blockScoped:
			if suppressed && !catchPair {
				continue
			}
			e.emit(models.RedeclaredVariableError, d.Name, b.Name)
			return true

		case home.Kind == scope.Global:
			// Hoisted globals colliding belongs to the global-collision
			// reporter.
			if suppressed {
				continue
			}
			e.reportGlobal(b.Name, d.Name)
			return true

		default:
			if suppressed {
				continue
			}
			// Only an earlier declaration whose scope encloses this one
			// has certainly run first; vars in sibling branches such as
			// if/else do not collide.
			encloses := false
			for j := 0; j < i && !encloses; j++ {
				for sid := d.TextualScope; sid != scope.None; sid = e.tree.Scope(sid).Parent {
					if sid == b.Decls[j].TextualScope {
						encloses = true
						break
					}
				}
			}
			if !encloses {
				continue
			}
			e.emit(models.RedeclaredVariable, d.Name, b.Name)
			return true
		}
	}
	return false
}

func (e *engine) suppressed(d *scope.Decl, other *scope.Binding) bool {
	return e.doc.FileSuppressDuplicate || d.SuppressDuplicate || other.SuppressDuplicate()
}

func (e *engine) reportGlobal(name string, node *sitter.Node) {
	if e.onGlobalRedecl != nil {
		e.onGlobalRedecl(e.path, name, node)
		return
	}
	e.emit(models.VarMultiplyDeclared, node, name)
}

// checkEarlyReferences implements TDZ detection for block-scoped
// bindings and the before-declaration warning for var.
func (e *engine) checkEarlyReferences(b *scope.Binding, refs []*Reference) bool {
	if b.IsBleedingName || b.Kind == scope.ImplicitGlobal {
		return false
	}

	first := b.FirstDecl()
	hoistedFn := b.Kind == scope.FunctionDecl && first.Hoisted
	bindFn := e.tree.EnclosingFunction(b.Scope)

	for _, r := range refs {
		if r.IsDecl {
			continue
		}
		// References inside a nested function run after the declaration
		// does; the classic `function f() { a = 2; } var a = 2;` idiom.
		if e.tree.EnclosingFunction(r.Scope) != bindFn {
			continue
		}

		// The iterated expression of for-in/for-of is evaluated before
		// the header binding is initialized.
		if r.InForHeaderRHS == b.Scope && b.Kind.IsBlockScoped() {
			e.emit(models.EarlyReferenceError, r.Node, b.Name)
			return true
		}

		// Default-value expressions run before the body's bindings exist
		// and before later parameters are initialized.
		if r.InDefaultOfParam >= 0 && b.Scope == e.tree.EnclosingFunction(r.Scope) {
			if b.ParamIndex >= 0 && b.ParamIndex < r.InDefaultOfParam {
				continue
			}
			e.emit(models.EarlyReferenceError, r.Node, b.Name)
			return true
		}

		if hoistedFn {
			continue
		}
		if r.Pos() >= first.End {
			continue
		}

		if b.Kind.IsBlockScoped() {
			e.emit(models.EarlyReferenceError, r.Node, b.Name)
			return true
		}
		if b.Kind == scope.Var && withinOwnInitializer(first, r) {
			// var x = x || {} reads undefined at runtime, by long
			// convention not worth a warning.
			continue
		}
		e.emit(models.EarlyReference, r.Node, b.Name)
		return true
	}
	return false
}

func withinOwnInitializer(d *scope.Decl, r *Reference) bool {
	return r.Pos() > d.Name.EndByte() && r.Pos() < d.End
}

// checkConstReassignment flags writes to immutable bindings.
func (e *engine) checkConstReassignment(b *scope.Binding, refs []*Reference, sum refSummary) bool {
	if !b.Kind.IsImmutable() || !sum.hasLValue {
		return false
	}
	for _, r := range refs {
		if r.IsDecl || !r.IsLValue {
			continue
		}
		e.emit(models.ReassignedConstant, r.Node, b.Name)
		return true
	}
	return false
}

// checkUnusedAssignment flags the last assignment to a local binding
// when nothing ever reads it. A binding whose lifecycle never reaches
// the Written state still warns at its declaration site; one whose
// last transition was a read never does.
func (e *engine) checkUnusedAssignment(b *scope.Binding, refs []*Reference, sum refSummary) bool {
	if !e.checkUnused || sum.state == statePristine {
		return false
	}
	switch b.Kind {
	case scope.Param, scope.CatchParam, scope.FunctionDecl, scope.ImplicitGlobal:
		return false
	case scope.Import:
		// TODO: warn for unused imports once warn_unused_imports is
		// wired through; they are silent today.
		return false
	}
	if b.Exported || b.IsTypedef || b.IsModuleAlias || b.IsBleedingName {
		return false
	}
	if e.tree.Scope(b.Scope).Kind == scope.Global {
		return false
	}
	if e.doc.UsedInType(b.Name) {
		return false
	}
	for i := range b.Decls {
		if b.Decls[i].FromDestructuring {
			// var {x} = {} stays silent even when x is unused.
			return false
		}
	}
	// goog.scope aliases may be referenced only from type annotations
	// this pass cannot see.
	for sid := b.Scope; sid != scope.None; sid = e.tree.Scope(sid).Parent {
		if e.tree.Scope(sid).IsGoogScopeBody {
			return false
		}
	}

	var unused *Reference
	for _, r := range refs {
		switch {
		case r.IsDecl:
			if b.Decls[r.DeclIndex].ForInTarget {
				unused = nil
				continue
			}
			unused = r
		case r.IsRead:
			unused = nil
		case r.IsLValue:
			unused = r
		}
	}
	if unused == nil {
		return false
	}
	e.emit(models.UnusedLocalAssignment, unused.Node, b.Name)
	return true
}
