package settings

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"gestcom/internal/core/apperror"
)

// ConditionEvaluator compiles and runs discount-rule CEL conditions.
// Compiled programs are cached by expression text.
type ConditionEvaluator struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewConditionEvaluator declares the variables a condition may reference.
func NewConditionEvaluator() (*ConditionEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("clientType", cel.StringType),
		cel.Variable("quantity", cel.DoubleType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("ruleType", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	return &ConditionEvaluator{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Compile checks expr and caches its program. Errors are VALIDATION_ERROR.
func (e *ConditionEvaluator) Compile(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, apperror.NewValidation("invalid condition").
			WithDetail("field", "condition").
			WithDetail("reason", iss.Err().Error())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, apperror.NewValidation("condition must evaluate to a boolean").
			WithDetail("field", "condition")
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, apperror.NewValidation("invalid condition").
			WithDetail("field", "condition").
			WithCause(err)
	}

	e.mu.Lock()
	e.programs[expr] = prg
	e.mu.Unlock()
	return prg, nil
}

// Eval runs the condition of rule against dc. An empty condition is true.
func (e *ConditionEvaluator) Eval(rule *DiscountRule, dc DiscountContext) (bool, error) {
	if rule.Condition == "" {
		return true, nil
	}
	prg, err := e.Compile(rule.Condition)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"clientType": dc.ClientType,
		"quantity":   dc.Quantity.Decimal().InexactFloat64(),
		"amount":     dc.Amount.InexactFloat64(),
		"ruleType":   string(rule.Type),
	})
	if err != nil {
		return false, fmt.Errorf("eval condition of rule %s: %w", rule.ID, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition of rule %s returned %T", rule.ID, out.Value())
	}
	return matched, nil
}
