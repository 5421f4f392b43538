// Package expr evaluates computed rules with the expr-lang expression
// language. Record fields are exposed as variables; a field that is absent
// evaluates to nil.
package expr

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/fwojciec/pagestem"
)

// Ensure Evaluator implements pagestem.Evaluator at compile time.
var _ pagestem.Evaluator = (*Evaluator)(nil)

// Evaluator compiles each distinct expression once and caches the program.
type Evaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

// Compile checks that source is a valid expression. Configuration loaders
// use it to reject bad computed rules before any record is processed.
func (e *Evaluator) Compile(source string) error {
	_, err := e.program(source)
	return err
}

// Evaluate runs source with the record's fields as variables and returns
// the result as a string. A nil result is the empty string.
func (e *Evaluator) Evaluate(source string, rec pagestem.Record) (string, error) {
	program, err := e.program(source)
	if err != nil {
		return "", err
	}
	out, err := expr.Run(program, map[string]any(rec))
	if err != nil {
		return "", fmt.Errorf("evaluate %q: %w", source, err)
	}
	if out == nil {
		return "", nil
	}
	if s, ok := out.(string); ok {
		return s, nil
	}
	return fmt.Sprint(out), nil
}

func (e *Evaluator) program(source string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.programs[source]; ok {
		return p, nil
	}
	p, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "invalid expression %q: %v", source, err)
	}
	e.programs[source] = p
	return p, nil
}
