package pumped

// Extension provides hooks into reactive operations
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is registered to a scope
	Init(scope *Scope) error

	// Wrap intercepts operations (evaluate, set, fire, notify).
	// Implementations must call next exactly once.
	Wrap(next func(), op *Operation)

	// OnPanic is called once when an operation panics, before the panic
	// continues unwinding to the caller.
	OnPanic(err *EvalError, op *Operation)

	// Dispose is called when the scope is disposed
	Dispose(scope *Scope) error
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(scope *Scope) error {
	return nil
}

func (e *BaseExtension) Wrap(next func(), op *Operation) {
	next()
}

func (e *BaseExtension) OnPanic(err *EvalError, op *Operation) {
}

func (e *BaseExtension) Dispose(scope *Scope) error {
	return nil
}

// Operation describes what operation is happening
type Operation struct {
	Kind  OperationKind
	Node  AnyNode
	Scope *Scope
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpEvaluate is an evaluation of a derived, tracked or bridged expression
	OpEvaluate OperationKind = "evaluate"
	// OpSet is a write to a Var
	OpSet OperationKind = "set"
	// OpFire is an event fired on a Stream
	OpFire OperationKind = "fire"
	// OpNotify is a change notification delivered by an observed entity
	OpNotify OperationKind = "notify"
)
