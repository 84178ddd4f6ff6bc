package errors

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSceneErrorString(t *testing.T) {
	err := &SceneError{
		Op:   "cache.Regenerate",
		Kind: KindCache,
		Err:  stderrors.New("surface lost"),
	}
	want := "cache.Regenerate [cache]: surface lost"
	if got := err.Error(); got != want {
		t.Errorf("SceneError.Error() = %q, want %q", got, want)
	}
}

func TestSceneErrorWithNode(t *testing.T) {
	err := &SceneError{
		Op:   "gestures.Route",
		Kind: KindGesture,
		Node: "button",
		Err:  stderrors.New("detached"),
	}
	if got := err.Error(); !strings.Contains(got, "node=button") {
		t.Errorf("error string %q should contain %q", got, "node=button")
	}
}

func TestSceneErrorUnwrap(t *testing.T) {
	inner := stderrors.New("inner")
	err := &SceneError{Op: "x", Err: inner}
	if !stderrors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindConfig, "config"},
		{KindLayout, "layout"},
		{KindRender, "render"},
		{KindCache, "cache"},
		{KindGesture, "gesture"},
		{KindPanic, "panic"},
		{KindContract, "contract"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{
		Value:     "test panic",
		Timestamp: time.Now(),
	}
	want := "panic: test panic"
	if got := err.Error(); got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}

	err.Op = "scene.Paint"
	want = "panic in scene.Paint: test panic"
	if got := err.Error(); got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var captured *SceneError
	handler := &testHandler{
		onError: func(err *SceneError) {
			captured = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	Report(&SceneError{
		Op:   "test.op",
		Kind: KindLayout,
		Err:  stderrors.New("bad"),
	})

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	handler := &testHandler{
		onPanic: func(err *PanicError) {
			captured = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", captured.Value, "intentional test panic")
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
}

func TestRecoverReraisesContract(t *testing.T) {
	oldHandler := DefaultHandler
	SetHandler(&testHandler{})
	defer SetHandler(oldHandler)

	var outer any
	func() {
		defer func() { outer = recover() }()
		func() {
			defer Recover("test.contract")
			Contract("cache.SetFront", "front already set")
		}()
	}()

	ce, ok := outer.(*ContractError)
	if !ok {
		t.Fatalf("recovered %T, want *ContractError", outer)
	}
	if ce.Op != "cache.SetFront" || ce.Reason != "front already set" {
		t.Errorf("ContractError = %+v", ce)
	}
	if !IsContract(outer) {
		t.Error("IsContract() = false, want true")
	}
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if stack == "" {
		t.Error("expected non-empty stack trace")
	}
	if !strings.Contains(stack, "testing") && !strings.Contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if _, ok := DefaultHandler.(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", DefaultHandler)
	}
}

func TestLogHandlerWritesThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	h := &LogHandler{}
	h.HandleError(&SceneError{Op: "cache.Regenerate", Kind: KindCache, Err: stderrors.New("boom")})
	h.HandlePanic(&PanicError{Op: "scene.Paint", Value: "oops"})

	out := buf.String()
	for _, want := range []string{"op=cache.Regenerate", "kind=cache", "err=boom", "op=scene.Paint", "value=oops"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q should contain %q", out, want)
		}
	}
}

func TestLoggerDefaultsToSilent(t *testing.T) {
	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger should be disabled")
	}
}

type testHandler struct {
	onError func(*SceneError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *SceneError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
