// Package scope builds the lexical scope tree and symbol table for an
// ECMAScript file. The variable-reference analyzer consumes the tree it
// produces; this package only records declarations, never diagnostics.
package scope

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Kind classifies a scope.
type Kind uint8

const (
	Global Kind = iota
	// Module is the top-level scope of an ES6 module file.
	Module
	// GoogModule is the top-level scope of a goog.module file, or the
	// body of a goog.loadModule function.
	GoogModule
	Function
	Block
	CatchBlock
	ForHeader
	ClassBody
)

var kindNames = [...]string{
	Global:     "global",
	Module:     "module",
	GoogModule: "goog.module",
	Function:   "function",
	Block:      "block",
	CatchBlock: "catch",
	ForHeader:  "for",
	ClassBody:  "class",
}

// String returns the scope kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// BindingKind classifies a declaration.
type BindingKind uint8

const (
	Var BindingKind = iota
	Let
	Const
	Class
	FunctionDecl
	Param
	CatchParam
	Import
	ImplicitGlobal
)

var bindingKindNames = [...]string{
	Var:            "var",
	Let:            "let",
	Const:          "const",
	Class:          "class",
	FunctionDecl:   "function",
	Param:          "param",
	CatchParam:     "catch param",
	Import:         "import",
	ImplicitGlobal: "implicit global",
}

// String returns the binding kind name.
func (k BindingKind) String() string {
	if int(k) < len(bindingKindNames) {
		return bindingKindNames[k]
	}
	return "unknown"
}

// IsHoisted reports whether the binding is visible throughout its
// enclosing function or module regardless of textual position.
func (k BindingKind) IsHoisted() bool {
	return k == Var || k == FunctionDecl || k == ImplicitGlobal
}

// IsBlockScoped reports whether references before the declaration fall
// in the temporal dead zone.
func (k BindingKind) IsBlockScoped() bool {
	switch k {
	case Let, Const, Class, Import, CatchParam:
		return true
	}
	return false
}

// IsImmutable reports whether assignments to the binding are illegal.
func (k BindingKind) IsImmutable() bool {
	return k == Const || k == Import
}

// ID indexes a scope within a Tree's arena.
type ID int32

// BindingID indexes a binding within a Tree's arena.
type BindingID int32

// None marks an absent scope or binding index.
const None = -1

// Scope is one node of the scope tree. Scopes are stored in an arena
// and refer to each other by index.
type Scope struct {
	Kind     Kind
	Parent   ID
	Children []ID
	// Node is the syntax node that opened the scope.
	Node *sitter.Node
	// Names maps a name to the binding it resolves to in this scope.
	Names map[string]BindingID
	// Bindings lists this scope's bindings in declaration order.
	Bindings []BindingID

	IsExterns       bool
	IsGoogScopeBody bool
}

// IsModuleLike reports whether top-level declarations in this scope are
// module-local rather than global.
func (s *Scope) IsModuleLike() bool {
	return s.Kind == Module || s.Kind == GoogModule
}

// IsHoistTarget reports whether var and hoistable function declarations
// land in this scope.
func (s *Scope) IsHoistTarget() bool {
	switch s.Kind {
	case Global, Module, GoogModule, Function:
		return true
	}
	return false
}

// Decl is one declaration site of a binding.
type Decl struct {
	Kind BindingKind
	// Name is the identifier node being declared.
	Name *sitter.Node
	// End is the byte offset where the declaration completes: the end of
	// the declarator including its initializer. A read between the name
	// and End is still before the binding is initialized (let x = x).
	End uint32
	// TextualScope is the scope in which the declaration appears, which
	// for hoisted declarations may be deeper than the binding's scope.
	TextualScope ID
	// Hoisted is true for a function declaration at the top level of its
	// hoist scope (visible before its textual position).
	Hoisted bool
	// HasInit is true when the declaration carries an initializer.
	HasInit bool
	// FromDestructuring is true when the name is bound by a pattern.
	FromDestructuring bool
	// ForInTarget is true when the name is bound by a for-in or for-of
	// loop header.
	ForInTarget bool
	// SuppressDuplicate is true when @suppress {duplicate} covers the
	// declaration statement.
	SuppressDuplicate bool
	// NotDirectlyInBlock is true when the declaration statement is the
	// bare body of an if/for/while/with/label.
	NotDirectlyInBlock bool
}

// Binding is one named symbol. Redeclarations of the same name in the
// same scope attach additional Decl entries rather than new bindings.
type Binding struct {
	Name string
	// Kind is the kind of the first declaration.
	Kind BindingKind
	// Scope is the scope the binding lives in (the hoist target for var
	// and hoistable function declarations).
	Scope ID
	// Decls lists every declaration site in source order.
	Decls []Decl

	// ParamIndex is the zero-based position for Param bindings, -1
	// otherwise.
	ParamIndex int

	Exported  bool
	IsTypedef bool
	// IsModuleAlias is true when the binding is initialized from
	// goog.require, goog.forwardDeclare, or goog.module.get.
	IsModuleAlias bool
	// IsBleedingName is true for the self-name of a named function or
	// class expression, visible only inside the expression.
	IsBleedingName bool
}

// SuppressDuplicate reports whether any declaration site carries a
// duplicate suppression.
func (b *Binding) SuppressDuplicate() bool {
	for i := range b.Decls {
		if b.Decls[i].SuppressDuplicate {
			return true
		}
	}
	return false
}

// FirstDecl returns the first declaration site.
func (b *Binding) FirstDecl() *Decl {
	return &b.Decls[0]
}

// nodeKey identifies a syntax node by its byte range and type. The type
// keeps a node apart from a parent or child that spans the same bytes,
// such as a program holding a single statement.
type nodeKey struct {
	start, end uint32
	typ        string
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{n.StartByte(), n.EndByte(), n.Type()}
}

// DeclSite locates one declaration of one binding.
type DeclSite struct {
	Binding BindingID
	Index   int
}

// Tree is the scope tree and symbol table for one file.
type Tree struct {
	Scopes   []Scope
	Bindings []Binding
	Root     ID

	Path   string
	Source []byte

	// IsExterns marks the whole file as externs.
	IsExterns bool

	scopeByNode map[nodeKey]ID
	declByName  map[uint32]DeclSite
}

// Scope returns the scope at id.
func (t *Tree) Scope(id ID) *Scope {
	return &t.Scopes[id]
}

// Binding returns the binding at id.
func (t *Tree) Binding(id BindingID) *Binding {
	return &t.Bindings[id]
}

// ScopeFor returns the scope opened by the given node, or None.
func (t *Tree) ScopeFor(n *sitter.Node) ID {
	if id, ok := t.scopeByNode[keyOf(n)]; ok {
		return id
	}
	return None
}

// DeclAt returns the declaration whose name node starts at the given
// byte offset, if any.
func (t *Tree) DeclAt(offset uint32) (DeclSite, bool) {
	site, ok := t.declByName[offset]
	return site, ok
}

// Lookup resolves a name through the lexical scope chain starting at
// from. Returns None when the name is unbound.
func (t *Tree) Lookup(from ID, name string) BindingID {
	for id := from; id != None; id = t.Scopes[id].Parent {
		if b, ok := t.Scopes[id].Names[name]; ok {
			return b
		}
	}
	return None
}

// LookupOutside resolves a name starting strictly above the given
// scope. Used for default-parameter resolution, where body bindings are
// not yet live.
func (t *Tree) LookupOutside(above ID, name string) BindingID {
	if above == None {
		return None
	}
	return t.Lookup(t.Scopes[above].Parent, name)
}

// EnclosingFunction returns the nearest hoist-target scope at or above
// id. Global, module, and goog.module scopes count as their own
// function for this purpose.
func (t *Tree) EnclosingFunction(id ID) ID {
	for s := id; s != None; s = t.Scopes[s].Parent {
		if t.Scopes[s].IsHoistTarget() {
			return s
		}
	}
	return t.Root
}
