package scope

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// PatternNames returns the identifier nodes bound by a declaration
// target, in source order. The target may be a plain identifier, an
// array or object pattern, a rest element, or a pattern with default
// values. Default-value expressions and computed property keys are
// reference positions, not binding positions, and are skipped.
func PatternNames(node *sitter.Node) []*sitter.Node {
	var names []*sitter.Node
	collectPatternNames(node, &names)
	return names
}

func collectPatternNames(node *sitter.Node, names *[]*sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		*names = append(*names, node)

	case "array_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			collectPatternNames(node.NamedChild(i), names)
		}

	case "object_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			collectPatternNames(node.NamedChild(i), names)
		}

	case "pair_pattern":
		// The key is a property name; only the value binds.
		collectPatternNames(node.ChildByFieldName("value"), names)

	case "object_assignment_pattern", "assignment_pattern":
		// {x = dflt} and [x = dflt]: the left side binds, the default is
		// an ordinary expression.
		collectPatternNames(node.ChildByFieldName("left"), names)

	case "rest_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			collectPatternNames(node.NamedChild(i), names)
		}
	}
}

// IsPattern reports whether a declaration target is a destructuring
// pattern rather than a plain identifier.
func IsPattern(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "array_pattern", "object_pattern":
		return true
	}
	return false
}

// AssignmentTargets returns the identifier nodes written by an
// assignment left-hand side, descending into destructuring assignment
// patterns. Member and subscript expressions do not write a binding and
// are skipped (their operands are ordinary reads, handled elsewhere).
func AssignmentTargets(node *sitter.Node) []*sitter.Node {
	var names []*sitter.Node
	collectAssignmentTargets(node, &names)
	return names
}

func collectAssignmentTargets(node *sitter.Node, names *[]*sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		*names = append(*names, node)

	case "array_pattern", "object_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			collectAssignmentTargets(node.NamedChild(i), names)
		}

	case "pair_pattern":
		collectAssignmentTargets(node.ChildByFieldName("value"), names)

	case "object_assignment_pattern", "assignment_pattern":
		collectAssignmentTargets(node.ChildByFieldName("left"), names)

	case "rest_pattern", "spread_element":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			collectAssignmentTargets(node.NamedChild(i), names)
		}

	case "parenthesized_expression":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			collectAssignmentTargets(node.NamedChild(i), names)
		}
	}
}
