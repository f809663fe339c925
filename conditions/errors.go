package conditions

import (
	"fmt"

	"dynamap/schema"
)

// InvalidConditionError reports a condition that has no valid wire
// encoding: a connective without operands, or a leaf operator applied
// to a nil operand in a position DynamoDB cannot express.
type InvalidConditionError struct {
	Reason string
}

func (e *InvalidConditionError) Error() string {
	return "invalid condition: " + e.Reason
}

func invalidCondition(format string, args ...any) error {
	return &InvalidConditionError{Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedOperationError reports a condition operator requested
// against a backing type that does not support it. It is returned at
// construction time, not at render time.
type UnsupportedOperationError struct {
	Path        string
	BackingType schema.BackingType
	Operation   schema.Operation
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("backing type %q for %s does not support condition %q",
		e.BackingType, e.Path, e.Operation)
}
