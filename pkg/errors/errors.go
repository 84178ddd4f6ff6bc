// Package errors provides structured error handling for the scene graph.
//
// Recoverable failures (a cache surface that could not be allocated, a
// gesture routed to a detached node) are reported through Report and
// handled by the installed ErrorHandler. Broken usage contracts are raised
// as panics carrying a *ContractError and are never swallowed.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfig indicates a configuration loading error.
	KindConfig
	// KindLayout indicates a measure or arrange failure.
	KindLayout
	// KindRender indicates a rendering error.
	KindRender
	// KindCache indicates a render cache failure.
	KindCache
	// KindGesture indicates a gesture routing error.
	KindGesture
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindContract indicates a violated usage contract.
	KindContract
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindLayout:
		return "layout"
	case KindRender:
		return "render"
	case KindCache:
		return "cache"
	case KindGesture:
		return "gesture"
	case KindPanic:
		return "panic"
	case KindContract:
		return "contract"
	default:
		return "unknown"
	}
}

// SceneError represents a structured error raised while driving a scene.
type SceneError struct {
	// Op is the operation that failed (e.g., "cache.Regenerate").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Node is the tag of the node involved, if any.
	Node string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *SceneError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s [%s] node=%s: %v", e.Op, e.Kind, e.Node, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *SceneError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "scene.Paint").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ContractError reports a broken usage contract, such as a buffered cache
// kind on a node that does not clip, or a second front entry installed on a
// single-slot cache. It is raised with panic and is not recoverable.
type ContractError struct {
	// Op is the operation that detected the violation.
	Op string
	// Reason describes the violated contract.
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violated in %s: %s", e.Op, e.Reason)
}

// Contract panics with a *ContractError.
func Contract(op, format string, args ...any) {
	panic(&ContractError{Op: op, Reason: fmt.Sprintf(format, args...)})
}

// ErrorHandler receives errors reported by the scene graph.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *SceneError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
