package pumped

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingExtension struct {
	BaseExtension
	order    int
	log      *[]string
	panics   []*EvalError
	disposed bool
}

func newRecordingExtension(name string, order int, log *[]string) *recordingExtension {
	return &recordingExtension{
		BaseExtension: NewBaseExtension(name),
		order:         order,
		log:           log,
	}
}

func (e *recordingExtension) Order() int {
	return e.order
}

func (e *recordingExtension) Wrap(next func(), op *Operation) {
	*e.log = append(*e.log, e.Name()+">"+string(op.Kind))
	next()
	*e.log = append(*e.log, e.Name()+"<"+string(op.Kind))
}

func (e *recordingExtension) OnPanic(err *EvalError, op *Operation) {
	e.panics = append(e.panics, err)
}

func (e *recordingExtension) Dispose(scope *Scope) error {
	e.disposed = true
	return nil
}

func TestExtension_WrapOrder(t *testing.T) {
	var log []string
	outer := newRecordingExtension("outer", 10, &log)
	inner := newRecordingExtension("inner", 20, &log)

	scope := NewScope(WithExtension(inner), WithExtension(outer))
	v := NewVar(scope, 1)

	log = nil
	v.Set(2)

	want := []string{"outer>set", "inner>set", "inner<set", "outer<set"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("wrap order mismatch (-want +got):\n%s", diff)
	}
}

func TestExtension_SeesNestedOperations(t *testing.T) {
	var log []string
	ext := newRecordingExtension("x", 10, &log)
	scope := NewScope(WithExtension(ext))

	v := NewVar(scope, 1)
	Map(v, func(n int) int { return n * 2 })

	log = nil
	v.Set(2)

	want := []string{"x>set", "x>evaluate", "x<evaluate", "x<set"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("operation log mismatch (-want +got):\n%s", diff)
	}
}

func TestExtension_OnPanicReportedOnce(t *testing.T) {
	var log []string
	ext := newRecordingExtension("x", 10, &log)
	scope := NewScope(WithExtension(ext))

	v := NewVar(scope, 1)
	failing := Map(v, func(n int) int {
		if n < 0 {
			panic(errors.New("negative input"))
		}
		return n
	}, WithName("checked"))
	Map(failing, func(n int) int { return n + 1 })

	mustPanic(t, func() { v.Set(-1) })

	if len(ext.panics) != 1 {
		t.Fatalf("expected 1 panic report, got %d", len(ext.panics))
	}
	report := ext.panics[0]
	if report.Node.ID() != failing.ID() {
		t.Errorf("expected panic attributed to %s, got %s", Label(failing), Label(report.Node))
	}
	if report.Op != OpEvaluate {
		t.Errorf("expected evaluate operation, got %s", report.Op)
	}
	if report.Unwrap() == nil || report.Unwrap().Error() != "negative input" {
		t.Errorf("expected unwrapped error 'negative input', got %v", report.Unwrap())
	}
	if len(report.StackTrace) == 0 {
		t.Error("expected stack trace")
	}

	mustPanic(t, func() { v.Set(-2) })
	if len(ext.panics) != 2 {
		t.Errorf("expected second panic to be reported, got %d reports", len(ext.panics))
	}
}

func TestExtension_PanicValuePreserved(t *testing.T) {
	var log []string
	scope := NewScope(WithExtension(newRecordingExtension("x", 10, &log)))

	recovered := mustPanic(t, func() {
		Track(scope, func() int { panic(42) })
	})

	if recovered != 42 {
		t.Errorf("expected original panic value 42, got %v", recovered)
	}
	if TrackingDepth() != 0 {
		t.Errorf("expected tracker depth 0, got %d", TrackingDepth())
	}
}

func TestScope_Dispose(t *testing.T) {
	var log []string
	ext := newRecordingExtension("x", 10, &log)
	scope := NewScope(WithExtension(ext))

	if err := scope.Dispose(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ext.disposed {
		t.Error("expected extension to be disposed")
	}
	if !scope.IsDisposed() {
		t.Error("expected scope to report disposed")
	}
	if err := scope.Dispose(); !errors.Is(err, ErrScopeDisposed) {
		t.Errorf("expected ErrScopeDisposed on second dispose, got %v", err)
	}
	if err := scope.UseExtension(ext); !errors.Is(err, ErrScopeDisposed) {
		t.Errorf("expected ErrScopeDisposed from UseExtension, got %v", err)
	}
}

func TestEvalError_Error(t *testing.T) {
	scope := NewScope()
	v := NewVar(scope, 0, WithName("temperature"))

	err := &EvalError{Node: v, Op: OpSet, Recovered: "boom"}
	if got := err.Error(); got != "panic in temperature during set: boom" {
		t.Errorf("unexpected message %q", got)
	}
	if err.Unwrap() != nil {
		t.Error("expected nil unwrap for non-error panic value")
	}
}

func TestScopeTag(t *testing.T) {
	env := NewTag[string]("env")
	scope := NewScope(WithScopeTag(env, "test"))

	if got, ok := env.GetFromScope(scope); !ok || got != "test" {
		t.Errorf("expected 'test', got %q (found=%v)", got, ok)
	}
}
