package domain

import "fmt"

// Operator is a metadata comparison operator understood by the server.
type Operator string

const (
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
)

var operators = map[Operator]struct{}{
	OpEqual: {}, OpNotEqual: {},
	OpGreater: {}, OpGreaterOrEqual: {},
	OpLess: {}, OpLessOrEqual: {},
}

// Condition is a single (operator, value) pair applied to a metadata key.
type Condition struct {
	Op    Operator
	Value any
}

// Constraints is a conjunctive metadata filter: every key's condition must hold.
type Constraints map[string]Condition

// Validate checks every operator in the filter.
func (c Constraints) Validate() error {
	for key, cond := range c {
		if _, ok := operators[cond.Op]; !ok {
			return fmt.Errorf("constraint %q: unknown operator %q: %w", key, string(cond.Op), ErrValidation)
		}
	}
	return nil
}

// With returns a copy of the constraints with one condition added.
// A nil receiver is allowed.
func (c Constraints) With(key string, cond Condition) Constraints {
	out := make(Constraints, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = cond
	return out
}
