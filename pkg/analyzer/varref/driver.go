package varref

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/refcheck/refcheck/pkg/parser"
	"github.com/refcheck/refcheck/pkg/scope"
)

// collector walks a file in source order, attaching references to
// bindings and firing the rule engine for each scope as it closes. The
// walk uses an explicit Enter/Exit stack so traversal depth does not
// depend on the goroutine stack.
type collector struct {
	tree   *scope.Tree
	source []byte
	engine *engine

	refs       map[scope.BindingID][]*Reference
	scopeStack []scope.ID
}

// frame is one work item: either a node to enter, or a scope to close
// once everything inside it has been visited.
type frame struct {
	node      *sitter.Node
	exitScope scope.ID
}

func newCollector(tree *scope.Tree, eng *engine) *collector {
	return &collector{
		tree:   tree,
		source: tree.Source,
		engine: eng,
		refs:   make(map[scope.BindingID][]*Reference),
	}
}

func (c *collector) current() scope.ID {
	if len(c.scopeStack) == 0 {
		return c.tree.Root
	}
	return c.scopeStack[len(c.scopeStack)-1]
}

// run drives the walk. Exit frames are pushed under a scope's children
// so a scope's rules fire only after every reference inside it has been
// collected.
func (c *collector) run(root *sitter.Node) {
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node == nil {
			c.closeScope(f.exitScope)
			continue
		}

		n := f.node
		typ := n.Type()
		if typ == "comment" {
			continue
		}

		if sid := c.tree.ScopeFor(n); sid != scope.None {
			c.scopeStack = append(c.scopeStack, sid)
			stack = append(stack, frame{exitScope: sid})
		}

		switch typ {
		case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
			c.reference(n)
			continue
		}

		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.NamedChild(i)})
		}
	}
}

// closeScope fires the rules for every binding owned by the scope and
// releases their reference lists.
func (c *collector) closeScope(sid scope.ID) {
	s := c.tree.Scope(sid)
	for _, bid := range s.Bindings {
		c.engine.check(bid, c.refs[bid])
		delete(c.refs, bid)
	}
	c.scopeStack = c.scopeStack[:len(c.scopeStack)-1]
}

// reference records one identifier occurrence.
func (c *collector) reference(n *sitter.Node) {
	cur := c.current()

	if site, ok := c.tree.DeclAt(n.StartByte()); ok {
		decl := &c.tree.Binding(site.Binding).Decls[site.Index]
		if scope.SameNode(decl.Name, n) {
			c.append(site.Binding, &Reference{
				Binding:          site.Binding,
				Node:             n,
				Scope:            cur,
				IsDecl:           true,
				DeclIndex:        site.Index,
				InDefaultOfParam: -1,
				InForHeaderRHS:   scope.None,
			})
			return
		}
	}

	if skipIdentifier(n) {
		return
	}

	lvalue, read := c.classifyUse(n)
	dfltIdx, forRHS := c.context(n)

	name := parser.GetNodeText(n, c.source)
	bid := c.tree.Lookup(cur, name)

	if dfltIdx >= 0 && bid != scope.None {
		// Inside a default-value expression the function body's bindings
		// are not live yet. A name that is also bound outside the
		// function resolves there instead.
		fnScope := c.tree.EnclosingFunction(cur)
		b := c.tree.Binding(bid)
		if b.Scope == fnScope && b.ParamIndex < 0 {
			if outer := c.tree.LookupOutside(fnScope, name); outer != scope.None {
				bid = outer
				dfltIdx = -1
			}
		}
	}

	if bid == scope.None {
		// Unresolved names are implicit globals, outside this pass.
		return
	}

	c.append(bid, &Reference{
		Binding:          bid,
		Node:             n,
		Scope:            cur,
		IsLValue:         lvalue,
		IsRead:           read,
		InDefaultOfParam: dfltIdx,
		InForHeaderRHS:   forRHS,
	})
}

func (c *collector) append(bid scope.BindingID, r *Reference) {
	c.refs[bid] = append(c.refs[bid], r)
}

// skipIdentifier filters identifier positions that are names of remote
// exports rather than variable references.
func skipIdentifier(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "import_specifier":
		// The remote name in `import {remote as local}`; the local name
		// was already handled as a declaration.
		return true
	case "export_specifier":
		// `export {local as remote}`: the alias is not a reference.
		return scope.SameNode(parent.ChildByFieldName("alias"), n)
	}
	return false
}

// classifyUse decides whether an identifier occurrence writes or reads
// its binding by climbing the expression context.
func (c *collector) classifyUse(n *sitter.Node) (lvalue, read bool) {
	prev := n
	for p := n.Parent(); p != nil; prev, p = p, p.Parent() {
		switch p.Type() {
		case "assignment_expression":
			if scope.SameNode(p.ChildByFieldName("left"), prev) {
				return true, false
			}
			return false, true

		case "augmented_assignment_expression":
			if scope.SameNode(p.ChildByFieldName("left"), prev) {
				return true, resultConsumed(p)
			}
			return false, true

		case "update_expression":
			return true, resultConsumed(p)

		case "for_in_statement":
			if scope.SameNode(p.ChildByFieldName("left"), prev) {
				// The loop header both writes and uses the target.
				return true, true
			}
			return false, true

		case "array_pattern", "object_pattern", "rest_pattern", "spread_element",
			"parenthesized_expression":
			continue

		case "pair_pattern":
			if scope.SameNode(p.ChildByFieldName("value"), prev) {
				continue
			}
			return false, true

		case "assignment_pattern", "object_assignment_pattern":
			if scope.SameNode(p.ChildByFieldName("left"), prev) {
				continue
			}
			return false, true

		default:
			return false, true
		}
	}
	return false, true
}

// resultConsumed reports whether an expression's value is used by its
// surrounding context. A bare expression statement discards it.
func resultConsumed(expr *sitter.Node) bool {
	parent := expr.Parent()
	return parent != nil && parent.Type() != "expression_statement"
}

// context determines whether a reference sits inside a default-value
// expression of a formal parameter, or inside the iterated expression
// of a for-in/for-of header. Crossing any function boundary on the way
// up means the reference is captured lazily and neither applies.
func (c *collector) context(n *sitter.Node) (dfltIdx int, forRHS scope.ID) {
	inDefault := false
	prev := n
	for p := n.Parent(); p != nil; prev, p = p, p.Parent() {
		switch p.Type() {
		case "function", "function_expression", "generator_function", "function_declaration",
			"generator_function_declaration", "arrow_function", "method_definition":
			return -1, scope.None

		case "assignment_pattern", "object_assignment_pattern":
			if scope.SameNode(p.ChildByFieldName("right"), prev) {
				inDefault = true
			}

		case "formal_parameters":
			if inDefault {
				return paramIndexOf(p, prev), scope.None
			}
			return -1, scope.None

		case "for_in_statement":
			if scope.SameNode(p.ChildByFieldName("right"), prev) {
				if sid := c.tree.ScopeFor(p); sid != scope.None {
					return -1, sid
				}
			}
			return -1, scope.None
		}
	}
	return -1, scope.None
}

// paramIndexOf returns the position of a direct child within a formal
// parameter list.
func paramIndexOf(params, child *sitter.Node) int {
	index := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() == "comment" {
			continue
		}
		if scope.SameNode(p, child) {
			return index
		}
		index++
	}
	return -1
}
