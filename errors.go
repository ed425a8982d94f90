package pumped

import (
	"fmt"
)

// EvalError describes a panic raised while evaluating an expression or
// propagating a change. It is handed to extensions; the panic itself is
// re-raised unmodified.
type EvalError struct {
	Node       AnyNode
	Op         OperationKind
	Recovered  any
	StackTrace []byte
}

func (e *EvalError) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("panic in %s during %s: %v", Label(e.Node), e.Op, e.Recovered)
	}
	return fmt.Sprintf("panic during %s: %v", e.Op, e.Recovered)
}

// Unwrap returns the recovered value when it is an error
func (e *EvalError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok {
		return err
	}
	return nil
}

// SafeTypeAssertion performs safe type assertion with proper error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %T, got %T (value: %v)", zero, value, value)
	}

	return typed, nil
}
