package varref

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/refcheck/refcheck/pkg/scope"
)

// Reference is one textual occurrence of a name that resolves to a
// binding. The driver appends references in source order; the rule
// engine never sees a binding until its list is complete.
type Reference struct {
	Binding scope.BindingID
	Node    *sitter.Node
	// Scope is the scope the reference lexically appears in.
	Scope scope.ID

	IsDecl    bool
	DeclIndex int

	IsLValue bool
	IsRead   bool

	// InDefaultOfParam is the index of the parameter whose default-value
	// expression contains this reference, or -1. References inside
	// functions nested in the default expression are captured lazily and
	// carry -1.
	InDefaultOfParam int

	// InForHeaderRHS is the ForHeader scope whose iterated expression
	// contains this reference, or scope.None. The expression is
	// evaluated before the loop binding is initialized.
	InForHeaderRHS scope.ID
}

// Pos returns the reference's byte offset, the total order used to
// compare against declaration positions.
func (r *Reference) Pos() uint32 {
	return r.Node.StartByte()
}

// bindingState tracks the per-binding lifecycle. Transitions are
// monotone: Pristine -> Declared -> Written -> Read.
type bindingState uint8

const (
	statePristine bindingState = iota
	stateDeclared
	stateWritten
	stateRead
)

func (s bindingState) advance(to bindingState) bindingState {
	if to > s {
		return to
	}
	return s
}

// refSummary aggregates a binding's complete reference list for the
// rule engine.
type refSummary struct {
	state bindingState

	// hasRead and hasLValue cover non-declaration references only.
	hasRead   bool
	hasLValue bool
}

func summarize(refs []*Reference) refSummary {
	var s refSummary
	for _, r := range refs {
		if r.IsDecl {
			s.state = s.state.advance(stateDeclared)
			continue
		}
		if r.IsLValue {
			s.hasLValue = true
			s.state = s.state.advance(stateWritten)
		}
		if r.IsRead {
			s.hasRead = true
			s.state = s.state.advance(stateRead)
		}
	}
	return s
}
