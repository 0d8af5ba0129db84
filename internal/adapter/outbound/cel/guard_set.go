package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/fieldgate/fieldgate/internal/domain/validation"
)

// GuardSpec pairs a field kind with a guard expression source.
type GuardSpec struct {
	Kind       validation.FieldKind
	Expression string
}

// GuardSet holds the compiled guard program per field kind. Built once
// at startup; immutable and safe for concurrent use afterwards.
type GuardSet struct {
	eval     *Evaluator
	programs map[validation.FieldKind]cel.Program
}

// NewGuardSet validates and compiles all guard specs. At most one
// guard per kind; a duplicate is a configuration error.
func NewGuardSet(specs []GuardSpec) (*GuardSet, error) {
	eval, err := NewEvaluator()
	if err != nil {
		return nil, err
	}

	programs := make(map[validation.FieldKind]cel.Program, len(specs))
	for _, spec := range specs {
		if _, exists := programs[spec.Kind]; exists {
			return nil, fmt.Errorf("duplicate guard for kind %s", spec.Kind)
		}
		if err := eval.ValidateExpression(spec.Expression); err != nil {
			return nil, fmt.Errorf("guard for %s: %w", spec.Kind, err)
		}
		prg, err := eval.Compile(spec.Expression)
		if err != nil {
			return nil, fmt.Errorf("guard for %s: %w", spec.Kind, err)
		}
		programs[spec.Kind] = prg
	}

	return &GuardSet{eval: eval, programs: programs}, nil
}

// Check evaluates the guard for kind against an accepted value.
// Kinds without a guard always pass.
func (g *GuardSet) Check(kind validation.FieldKind, value, field string) (bool, error) {
	prg, ok := g.programs[kind]
	if !ok {
		return true, nil
	}
	return g.eval.Evaluate(prg, value, field, kind.String())
}

// Len returns the number of configured guards.
func (g *GuardSet) Len() int {
	return len(g.programs)
}
