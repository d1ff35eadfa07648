package models

import "fmt"

// DiagnosticKind identifies a class of variable-reference problem.
type DiagnosticKind string

const (
	// DeclarationNotDirectlyInBlock flags let/const/class/function
	// declarations used as the bare body of an if/for/while/with/label.
	DeclarationNotDirectlyInBlock DiagnosticKind = "DECLARATION_NOT_DIRECTLY_IN_BLOCK"

	// EarlyReference flags a var used before its declaration.
	EarlyReference DiagnosticKind = "EARLY_REFERENCE"

	// EarlyReferenceError flags a block-scoped binding used inside its
	// temporal dead zone.
	EarlyReferenceError DiagnosticKind = "EARLY_REFERENCE_ERROR"

	// RedeclaredVariable flags a benign redeclaration in function scope.
	RedeclaredVariable DiagnosticKind = "REDECLARED_VARIABLE"

	// RedeclaredVariableError flags an illegal redeclaration involving a
	// block-scoped binding, import, or catch parameter.
	RedeclaredVariableError DiagnosticKind = "REDECLARED_VARIABLE_ERROR"

	// ReassignedConstant flags a write to a const or import binding.
	ReassignedConstant DiagnosticKind = "REASSIGNED_CONSTANT"

	// UnusedLocalAssignment flags a local assignment that is never read.
	UnusedLocalAssignment DiagnosticKind = "UNUSED_LOCAL_ASSIGNMENT"

	// VarMultiplyDeclared is reported by the default global-collision
	// reporter for hoisted redeclarations in the global scope.
	VarMultiplyDeclared DiagnosticKind = "VAR_MULTIPLY_DECLARED"
)

// Severity classifies a diagnostic as an error or a warning.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// String returns the string representation.
func (s Severity) String() string {
	return string(s)
}

// Severity returns the severity associated with a diagnostic kind.
func (k DiagnosticKind) Severity() Severity {
	switch k {
	case EarlyReference, RedeclaredVariable, UnusedLocalAssignment:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// String returns the stable identifier for the kind.
func (k DiagnosticKind) String() string {
	return string(k)
}

// Diagnostic is a single finding about a variable reference.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Severity Severity       `json:"severity"`
	File     string         `json:"file"`
	Line     uint32         `json:"line"`
	Column   uint32         `json:"column"`
	Offset   uint32         `json:"offset"`
	Name     string         `json:"name,omitempty"`
	Message  string         `json:"message"`
}

// Location renders the file:line:column prefix used in text output.
func (d Diagnostic) Location() string {
	return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
}

// ReferenceAnalysis is the full result of a variable-reference run.
type ReferenceAnalysis struct {
	Diagnostics []Diagnostic     `json:"diagnostics"`
	Summary     ReferenceSummary `json:"summary"`
}

// ReferenceSummary provides aggregate statistics.
type ReferenceSummary struct {
	TotalErrors        int                    `json:"total_errors"`
	TotalWarnings      int                    `json:"total_warnings"`
	ByKind             map[DiagnosticKind]int `json:"by_kind"`
	ByFile             map[string]int         `json:"by_file"`
	TotalFilesAnalyzed int                    `json:"total_files_analyzed"`
}

// NewReferenceSummary creates an initialized summary.
func NewReferenceSummary() ReferenceSummary {
	return ReferenceSummary{
		ByKind: make(map[DiagnosticKind]int),
		ByFile: make(map[string]int),
	}
}

// Add updates the summary with one diagnostic.
func (s *ReferenceSummary) Add(d Diagnostic) {
	if d.Severity == SeverityError {
		s.TotalErrors++
	} else {
		s.TotalWarnings++
	}
	s.ByKind[d.Kind]++
	s.ByFile[d.File]++
}
