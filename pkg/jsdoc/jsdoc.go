// Package jsdoc extracts the JSDoc annotations the reference checker
// cares about: @suppress {duplicate}, @typedef, @type expressions, and
// file-level @fileoverview blocks.
package jsdoc

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/refcheck/refcheck/pkg/parser"
)

// Tags holds the annotations attached to a single statement.
type Tags struct {
	SuppressDuplicate bool
	Typedef           bool
}

// Info holds all JSDoc annotations found in one file.
type Info struct {
	// FileSuppressDuplicate is true when a @fileoverview comment carries
	// @suppress {duplicate}.
	FileSuppressDuplicate bool

	// TypeNames contains every identifier mentioned inside a JSDoc type
	// expression anywhere in the file.
	TypeNames map[string]bool

	byStmt map[uint32]Tags
}

var (
	suppressRe = regexp.MustCompile(`@suppress\s*\{([^}]*)\}`)
	typeExprRe = regexp.MustCompile(`@(?:type|typedef|param|returns?|extends|implements)\s*\{([^}]*)\}`)
	identRe    = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)
)

// Scan walks the tree collecting JSDoc comments and attaching each to
// the statement that follows it.
func Scan(root *sitter.Node, source []byte) *Info {
	info := &Info{
		TypeNames: make(map[string]bool),
		byStmt:    make(map[uint32]Tags),
	}

	parser.Walk(root, source, func(node *sitter.Node, src []byte) bool {
		if node.Type() != "comment" {
			return true
		}
		text := parser.GetNodeText(node, src)
		if !strings.HasPrefix(text, "/**") {
			return false
		}

		info.collectTypeNames(text)

		tags := Tags{
			SuppressDuplicate: suppressesDuplicate(text),
			Typedef:           strings.Contains(text, "@typedef"),
		}

		if strings.Contains(text, "@fileoverview") {
			if tags.SuppressDuplicate {
				info.FileSuppressDuplicate = true
			}
			return false
		}

		if tags.SuppressDuplicate || tags.Typedef {
			if stmt := nextStatement(node); stmt != nil {
				merged := info.byStmt[stmt.StartByte()]
				merged.SuppressDuplicate = merged.SuppressDuplicate || tags.SuppressDuplicate
				merged.Typedef = merged.Typedef || tags.Typedef
				info.byStmt[stmt.StartByte()] = merged
			}
		}
		return false
	})

	return info
}

// TagsFor returns the annotations attached to the statement that starts
// at the given byte offset.
func (i *Info) TagsFor(stmtStart uint32) Tags {
	return i.byStmt[stmtStart]
}

// TagsForNode walks from node to the root looking for an annotated
// enclosing statement.
func (i *Info) TagsForNode(node *sitter.Node) Tags {
	for n := node; n != nil; n = n.Parent() {
		if tags, ok := i.byStmt[n.StartByte()]; ok {
			return tags
		}
	}
	return Tags{}
}

// UsedInType reports whether name appears in any JSDoc type expression
// in the file.
func (i *Info) UsedInType(name string) bool {
	return i.TypeNames[name]
}

func (i *Info) collectTypeNames(text string) {
	for _, m := range typeExprRe.FindAllStringSubmatch(text, -1) {
		for _, ident := range identRe.FindAllString(m[1], -1) {
			i.TypeNames[ident] = true
		}
	}
}

// suppressesDuplicate reports whether the comment suppresses duplicate
// declaration warnings, e.g. @suppress {duplicate} or
// @suppress {duplicate|const}.
func suppressesDuplicate(text string) bool {
	for _, m := range suppressRe.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.FieldsFunc(m[1], func(r rune) bool {
			return r == '|' || r == ',' || r == ' '
		}) {
			if part == "duplicate" {
				return true
			}
		}
	}
	return false
}

// nextStatement returns the named sibling following a comment node,
// skipping over further comments.
func nextStatement(comment *sitter.Node) *sitter.Node {
	for n := comment.NextNamedSibling(); n != nil; n = n.NextNamedSibling() {
		if n.Type() != "comment" {
			return n
		}
	}
	return nil
}
