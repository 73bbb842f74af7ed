package vdms

import "github.com/cwlacewe/vdms-go/internal/domain"

// Condition is a single comparison against a metadata field.
type Condition struct {
	Op    string
	Value any
}

// Constraints is a conjunctive metadata filter: every field condition
// must hold for a document to match.
//
//	vdms.Constraints{"year": vdms.Gte(2020), "topic": vdms.Eq("news")}
type Constraints map[string]Condition

// Eq matches fields equal to v.
func Eq(v any) Condition { return Condition{Op: "==", Value: v} }

// Ne matches fields not equal to v.
func Ne(v any) Condition { return Condition{Op: "!=", Value: v} }

// Gt matches fields greater than v.
func Gt(v any) Condition { return Condition{Op: ">", Value: v} }

// Gte matches fields greater than or equal to v.
func Gte(v any) Condition { return Condition{Op: ">=", Value: v} }

// Lt matches fields less than v.
func Lt(v any) Condition { return Condition{Op: "<", Value: v} }

// Lte matches fields less than or equal to v.
func Lte(v any) Condition { return Condition{Op: "<=", Value: v} }

func (c Constraints) toDomain() domain.Constraints {
	if len(c) == 0 {
		return nil
	}
	out := make(domain.Constraints, len(c))
	for field, cond := range c {
		out[field] = domain.Condition{Op: domain.Operator(cond.Op), Value: cond.Value}
	}
	return out
}
