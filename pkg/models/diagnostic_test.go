package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSeverity(t *testing.T) {
	errors := []DiagnosticKind{
		DeclarationNotDirectlyInBlock,
		EarlyReferenceError,
		RedeclaredVariableError,
		ReassignedConstant,
		VarMultiplyDeclared,
	}
	for _, k := range errors {
		assert.Equal(t, SeverityError, k.Severity(), "%s", k)
	}

	warnings := []DiagnosticKind{
		EarlyReference,
		RedeclaredVariable,
		UnusedLocalAssignment,
	}
	for _, k := range warnings {
		assert.Equal(t, SeverityWarning, k.Severity(), "%s", k)
	}
}

func TestDiagnosticLocation(t *testing.T) {
	d := Diagnostic{File: "a.js", Line: 3, Column: 7}
	assert.Equal(t, "a.js:3:7", d.Location())
}

func TestSummaryAdd(t *testing.T) {
	s := NewReferenceSummary()
	s.Add(Diagnostic{Kind: ReassignedConstant, Severity: SeverityError, File: "a.js"})
	s.Add(Diagnostic{Kind: EarlyReference, Severity: SeverityWarning, File: "a.js"})
	s.Add(Diagnostic{Kind: EarlyReference, Severity: SeverityWarning, File: "b.js"})

	assert.Equal(t, 1, s.TotalErrors)
	assert.Equal(t, 2, s.TotalWarnings)
	assert.Equal(t, 2, s.ByKind[EarlyReference])
	assert.Equal(t, 2, s.ByFile["a.js"])
	assert.Equal(t, 1, s.ByFile["b.js"])
}
