package scope

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/refcheck/refcheck/pkg/jsdoc"
	"github.com/refcheck/refcheck/pkg/parser"
)

// Options controls scope construction for one file.
type Options struct {
	// IsExterns marks the file as externs: the analyzer suppresses all
	// reference diagnostics for it.
	IsExterns bool
	// Doc supplies pre-scanned JSDoc annotations. May be nil.
	Doc *jsdoc.Info
}

// Build constructs the scope tree and symbol table for a parsed file.
func Build(result *parser.ParseResult, opts Options) *Tree {
	doc := opts.Doc
	if doc == nil {
		doc = jsdoc.Scan(result.Tree.RootNode(), result.Source)
	}

	b := &builder{
		tree: &Tree{
			Path:        result.Path,
			Source:      result.Source,
			IsExterns:   opts.IsExterns,
			scopeByNode: make(map[nodeKey]ID),
			declByName:  make(map[uint32]DeclSite),
		},
		doc:    doc,
		source: result.Source,
	}

	root := result.Tree.RootNode()
	b.tree.Root = b.newScope(classifyProgram(root, b.source), root, None)
	if opts.IsExterns {
		b.tree.Scopes[b.tree.Root].IsExterns = true
	}

	b.walkChildren(root, b.tree.Root, false)
	b.applyExports()

	return b.tree
}

type builder struct {
	tree   *Tree
	doc    *jsdoc.Info
	source []byte

	// exportClauseNames holds names from export {a, b} clauses, resolved
	// against the module scope once the whole file is declared.
	exportClauseNames []string
}

func (b *builder) newScope(kind Kind, node *sitter.Node, parent ID) ID {
	id := ID(len(b.tree.Scopes))
	b.tree.Scopes = append(b.tree.Scopes, Scope{
		Kind:   kind,
		Parent: parent,
		Node:   node,
		Names:  make(map[string]BindingID),
	})
	if parent != None {
		b.tree.Scopes[parent].Children = append(b.tree.Scopes[parent].Children, id)
	}
	b.tree.scopeByNode[keyOf(node)] = id
	return id
}

// declOpts carries per-declaration attributes into declare.
type declOpts struct {
	hasInit            bool
	fromDestructuring  bool
	hoisted            bool
	forInTarget        bool
	notDirectlyInBlock bool
	exported           bool
	moduleAlias        bool
	bleeding           bool
	paramIndex         int
	// end overrides the declaration-complete offset; zero means the end
	// of the name node itself.
	end uint32
}

// declare records one declaration of name into target. A second
// declaration of the same name in the same scope attaches to the
// existing binding.
func (b *builder) declare(nameNode *sitter.Node, kind BindingKind, target ID, o declOpts) BindingID {
	name := parser.GetNodeText(nameNode, b.source)
	if name == "" {
		return None
	}

	end := o.end
	if end == 0 {
		end = nameNode.EndByte()
	}

	tags := b.doc.TagsForNode(nameNode)
	decl := Decl{
		Kind:               kind,
		Name:               nameNode,
		End:                end,
		TextualScope:       target,
		Hoisted:            o.hoisted,
		HasInit:            o.hasInit,
		FromDestructuring:  o.fromDestructuring,
		ForInTarget:        o.forInTarget,
		SuppressDuplicate:  tags.SuppressDuplicate,
		NotDirectlyInBlock: o.notDirectlyInBlock,
	}

	scope := &b.tree.Scopes[target]
	if existing, ok := scope.Names[name]; ok {
		bind := &b.tree.Bindings[existing]
		bind.Decls = append(bind.Decls, decl)
		bind.Exported = bind.Exported || o.exported
		bind.IsTypedef = bind.IsTypedef || tags.Typedef
		bind.IsModuleAlias = bind.IsModuleAlias || o.moduleAlias
		b.tree.declByName[nameNode.StartByte()] = DeclSite{existing, len(bind.Decls) - 1}
		return existing
	}

	id := BindingID(len(b.tree.Bindings))
	b.tree.Bindings = append(b.tree.Bindings, Binding{
		Name:           name,
		Kind:           kind,
		Scope:          target,
		Decls:          []Decl{decl},
		ParamIndex:     o.paramIndex,
		Exported:       o.exported,
		IsTypedef:      tags.Typedef,
		IsModuleAlias:  o.moduleAlias,
		IsBleedingName: o.bleeding,
	})
	scope.Names[name] = id
	scope.Bindings = append(scope.Bindings, id)
	b.tree.declByName[nameNode.StartByte()] = DeclSite{id, 0}
	return id
}

// hoistTarget returns the nearest scope where var and hoistable
// function declarations land.
func (b *builder) hoistTarget(from ID) ID {
	for s := from; s != None; s = b.tree.Scopes[s].Parent {
		if b.tree.Scopes[s].IsHoistTarget() {
			return s
		}
	}
	return b.tree.Root
}

// declareHoisted declares a name in the nearest hoist target and records
// the scope the declaration textually appears in; the redeclaration
// rules compare it against block-scoped bindings on the hoist path.
func (b *builder) declareHoisted(nameNode *sitter.Node, kind BindingKind, current ID, o declOpts) {
	target := b.hoistTarget(current)
	id := b.declare(nameNode, kind, target, o)
	if id != None {
		bind := &b.tree.Bindings[id]
		bind.Decls[len(bind.Decls)-1].TextualScope = current
	}
}

func (b *builder) walkChildren(node *sitter.Node, s ID, exported bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		b.walk(node.NamedChild(i), s, exported)
	}
}

func (b *builder) walk(node *sitter.Node, s ID, exported bool) {
	switch node.Type() {
	case "comment":
		return

	case "function_declaration", "generator_function_declaration":
		bare := bareBodyOf(node)
		hoisted := b.tree.Scopes[s].IsHoistTarget() && !bare
		if name := node.ChildByFieldName("name"); name != nil {
			b.declare(name, FunctionDecl, s, declOpts{
				hoisted:            hoisted,
				hasInit:            true,
				notDirectlyInBlock: bare,
				exported:           exported,
				paramIndex:         -1,
			})
		}
		b.enterFunction(node, s)

	case "function", "function_expression", "generator_function":
		fs := b.enterFunctionScope(node, s)
		if name := node.ChildByFieldName("name"); name != nil {
			b.declare(name, FunctionDecl, fs, declOpts{
				hasInit:    true,
				bleeding:   true,
				paramIndex: -1,
			})
		}
		b.declareParams(node, fs)
		b.walkParamSubtrees(node, fs)
		b.walkBody(node, fs)

	case "arrow_function":
		fs := b.enterFunctionScope(node, s)
		b.declareParams(node, fs)
		b.walkParamSubtrees(node, fs)
		b.walkBody(node, fs)

	case "method_definition":
		fs := b.enterFunctionScope(node, s)
		b.declareParams(node, fs)
		b.walkParamSubtrees(node, fs)
		b.walkBody(node, fs)

	case "class_declaration":
		bare := bareBodyOf(node)
		if name := node.ChildByFieldName("name"); name != nil {
			b.declare(name, Class, s, declOpts{
				hasInit:            true,
				notDirectlyInBlock: bare,
				exported:           exported,
				paramIndex:         -1,
				end:                node.EndByte(),
			})
		}
		b.walkClass(node, s)

	case "class":
		cb := b.newScope(ClassBody, node, s)
		if name := node.ChildByFieldName("name"); name != nil {
			b.declare(name, Class, cb, declOpts{hasInit: true, bleeding: true, paramIndex: -1})
		}
		b.walkChildren(node, cb, false)

	case "variable_declaration":
		b.declareVariables(node, s, Var, exported)
		b.walkChildren(node, s, false)

	case "lexical_declaration":
		kind := Let
		if firstTokenIs(node, "const") {
			kind = Const
		}
		b.declareVariables(node, s, kind, exported)
		b.walkChildren(node, s, false)

	case "statement_block":
		if partOfEnclosingScope(node) {
			b.walkChildren(node, s, false)
			return
		}
		bs := b.newScope(Block, node, s)
		b.walkChildren(node, bs, false)

	case "switch_body":
		bs := b.newScope(Block, node, s)
		b.walkChildren(node, bs, false)

	case "catch_clause":
		cs := b.newScope(CatchBlock, node, s)
		if param := node.ChildByFieldName("parameter"); param != nil {
			for _, name := range PatternNames(param) {
				b.declare(name, CatchParam, cs, declOpts{
					fromDestructuring: IsPattern(param),
					paramIndex:        -1,
				})
			}
		}
		if body := node.ChildByFieldName("body"); body != nil {
			b.walkChildren(body, cs, false)
		}

	case "for_statement":
		target := s
		if init := node.ChildByFieldName("initializer"); init != nil && init.Type() == "lexical_declaration" {
			target = b.newScope(ForHeader, node, s)
		}
		b.walkChildren(node, target, false)

	case "for_in_statement":
		b.walkForIn(node, s)

	case "import_statement":
		b.declareImports(node, s)

	case "export_statement":
		b.collectExportClause(node)
		b.walkChildren(node, s, true)

	default:
		b.walkChildren(node, s, exported)
	}
}

// enterFunction opens the scope for a function declaration and walks
// its parameters and body.
func (b *builder) enterFunction(node *sitter.Node, s ID) {
	fs := b.enterFunctionScope(node, s)
	b.declareParams(node, fs)
	b.walkParamSubtrees(node, fs)
	b.walkBody(node, fs)
}

// walkParamSubtrees walks the parameter list so functions nested in
// default-value expressions get their own scopes. Plain identifiers
// declare nothing on this pass, so revisiting them is harmless.
func (b *builder) walkParamSubtrees(node *sitter.Node, fs ID) {
	if params := node.ChildByFieldName("parameters"); params != nil {
		b.walkChildren(params, fs, false)
	}
}

// enterFunctionScope creates the Function scope for any function-like
// node, applying goog.scope and goog.loadModule recognition.
func (b *builder) enterFunctionScope(node *sitter.Node, s ID) ID {
	kind := Function
	callee := enclosingCallCallee(node, b.source)
	if callee == "goog.loadModule" && isGoogModuleBody(node.ChildByFieldName("body"), b.source) {
		kind = GoogModule
	}
	fs := b.newScope(kind, node, s)
	if callee == "goog.scope" {
		b.tree.Scopes[fs].IsGoogScopeBody = true
	}
	return fs
}

// declareParams declares formal parameters into the function scope.
func (b *builder) declareParams(node *sitter.Node, fs ID) {
	if single := node.ChildByFieldName("parameter"); single != nil {
		// Parenless arrow parameter.
		b.declare(single, Param, fs, declOpts{paramIndex: 0})
		return
	}
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	index := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() == "comment" {
			continue
		}
		hasDefault := p.Type() == "assignment_pattern"
		pattern := p
		if hasDefault {
			pattern = p.ChildByFieldName("left")
		}
		for _, name := range PatternNames(pattern) {
			b.declare(name, Param, fs, declOpts{
				hasInit:           hasDefault,
				fromDestructuring: IsPattern(pattern),
				paramIndex:        index,
				end:               p.EndByte(),
			})
		}
		index++
	}
}

// walkBody walks a function body (statement block or arrow expression)
// inside the function's own scope.
func (b *builder) walkBody(node *sitter.Node, fs ID) {
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	if body.Type() == "statement_block" {
		b.walkChildren(body, fs, false)
		return
	}
	// Expression-bodied arrow.
	b.walk(body, fs, false)
}

// walkClass walks a class declaration's heritage and body.
func (b *builder) walkClass(node *sitter.Node, s ID) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "class_body" {
			cb := b.newScope(ClassBody, child, s)
			b.walkChildren(child, cb, false)
			continue
		}
		if SameNode(child, node.ChildByFieldName("name")) {
			continue
		}
		b.walk(child, s, false)
	}
}

// declareVariables declares every name bound by a var, let, or const
// statement.
func (b *builder) declareVariables(node *sitter.Node, s ID, kind BindingKind, exported bool) {
	bare := bareBodyOf(node)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		declarator := node.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		pattern := declarator.ChildByFieldName("name")
		value := declarator.ChildByFieldName("value")
		alias := isModuleAliasInit(value, b.source)
		o := declOpts{
			hasInit:            value != nil,
			fromDestructuring:  IsPattern(pattern),
			notDirectlyInBlock: bare && kind != Var,
			exported:           exported,
			moduleAlias:        alias,
			paramIndex:         -1,
			end:                declarator.EndByte(),
		}
		for _, name := range PatternNames(pattern) {
			if kind == Var {
				b.declareHoisted(name, Var, s, o)
			} else {
				b.declare(name, kind, s, o)
			}
		}
	}
}

// walkForIn handles for-in and for-of statements, which may declare
// their loop target in a header scope.
func (b *builder) walkForIn(node *sitter.Node, s ID) {
	target := s
	left := node.ChildByFieldName("left")

	if kindTok := node.ChildByFieldName("kind"); kindTok != nil && left != nil {
		var kind BindingKind
		switch kindTok.Content(b.source) {
		case "let":
			kind = Let
		case "const":
			kind = Const
		default:
			kind = Var
		}
		o := declOpts{
			hasInit:           true,
			fromDestructuring: IsPattern(left),
			forInTarget:       true,
			paramIndex:        -1,
			end:               left.EndByte(),
		}
		if kind == Var {
			for _, name := range PatternNames(left) {
				b.declareHoisted(name, Var, s, o)
			}
		} else {
			target = b.newScope(ForHeader, node, s)
			for _, name := range PatternNames(left) {
				b.declare(name, kind, target, o)
			}
		}
	}

	b.walkChildren(node, target, false)
}

// declareImports declares the local names bound by an import statement.
func (b *builder) declareImports(node *sitter.Node, s ID) {
	clause := firstNamedChildOfType(node, "import_clause")
	if clause == nil {
		return
	}
	o := declOpts{hasInit: true, paramIndex: -1}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			b.declare(child, Import, s, o)
		case "namespace_import":
			if name := firstNamedChildOfType(child, "identifier"); name != nil {
				b.declare(name, Import, s, o)
			}
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				local := spec.ChildByFieldName("alias")
				if local == nil {
					local = spec.ChildByFieldName("name")
				}
				if local != nil {
					b.declare(local, Import, s, o)
				}
			}
		}
	}
}

// collectExportClause records names from export {a, b} clauses for
// post-build resolution against the module scope.
func (b *builder) collectExportClause(node *sitter.Node) {
	clause := firstNamedChildOfType(node, "export_clause")
	if clause == nil {
		return
	}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		if name := spec.ChildByFieldName("name"); name != nil {
			b.exportClauseNames = append(b.exportClauseNames, parser.GetNodeText(name, b.source))
		}
	}
}

func (b *builder) applyExports() {
	for _, name := range b.exportClauseNames {
		if id := b.tree.Lookup(b.tree.Root, name); id != None {
			b.tree.Bindings[id].Exported = true
		}
	}
}

// bareBodyOf reports whether a declaration statement is the bare body
// of an if/else/loop/with/label rather than a statement in a block.
func bareBodyOf(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "if_statement":
		return SameNode(parent.ChildByFieldName("consequence"), node)
	case "else_clause":
		return true
	case "while_statement", "do_statement", "for_statement", "for_in_statement", "with_statement", "labeled_statement":
		return SameNode(parent.ChildByFieldName("body"), node)
	}
	return false
}

// partOfEnclosingScope reports whether a statement block belongs to the
// scope its parent already opened (function and catch bodies).
func partOfEnclosingScope(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "function_declaration", "generator_function_declaration", "function",
		"function_expression", "generator_function", "arrow_function", "method_definition":
		return SameNode(parent.ChildByFieldName("body"), node)
	case "catch_clause":
		return SameNode(parent.ChildByFieldName("body"), node)
	}
	return false
}

// SameNode reports whether two nodes denote the same source range.
func SameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

func firstNamedChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func firstTokenIs(node *sitter.Node, text string) bool {
	if node.ChildCount() == 0 {
		return false
	}
	first := node.Child(0)
	return first != nil && first.Type() == text
}
