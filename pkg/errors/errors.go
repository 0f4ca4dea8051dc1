// Package errors provides structured error handling for viewtree.
//
// Errors raised by regions, collection views and the view lifecycle are
// *ViewError values. Their Kind tells configuration mistakes (a missing child
// view factory, an invalid filter) apart from state violations (showing a
// view that is already shown or destroyed). Both are programming errors and
// are never retried.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfiguration indicates invalid or missing configuration.
	KindConfiguration
	// KindState indicates an operation that violates a view's lifecycle state.
	KindState
	// KindRender indicates a template or render failure.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindState:
		return "state"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Sentinel causes wrapped by ViewError. Match them with errors.Is.
var (
	ErrAlreadyShown      = stderrors.New("view is already shown in a region or collection view")
	ErrDestroyed         = stderrors.New("view is destroyed")
	ErrMissingChildView  = stderrors.New("a child view must be specified")
	ErrInvalidFilter     = stderrors.New("filter must be a function, a match pattern, an attribute name, or empty")
	ErrInvalidComparator = stderrors.New("comparator must be a field name, a key function, a compare function, or disabled")
	ErrMissingAnchor     = stderrors.New("region anchor element does not exist")
	ErrMissingContainer  = stderrors.New("child view container element not found")
	ErrNoDOM             = stderrors.New("no DOM adapter configured")
	ErrInvalidFixture    = stderrors.New("invalid fixture")
	ErrUnknownRegion     = stderrors.New("no region with that name")
)

// ViewError represents a structured error raised by the view engine.
type ViewError struct {
	// Op is the operation that failed (e.g., "region.Show").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// ViewID is the id of the view involved, if any.
	ViewID string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *ViewError) Error() string {
	if e.ViewID != "" {
		return fmt.Sprintf("%s [%s] view=%s: %v", e.Op, e.Kind, e.ViewID, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *ViewError) Unwrap() error {
	return e.Err
}

// Configuration returns a configuration error for op.
func Configuration(op string, err error) *ViewError {
	return &ViewError{Op: op, Kind: KindConfiguration, Err: err, Timestamp: time.Now()}
}

// State returns a state error for op on the view with the given id.
func State(op, viewID string, err error) *ViewError {
	return &ViewError{Op: op, Kind: KindState, ViewID: viewID, Err: err, Timestamp: time.Now()}
}

// Render returns a render error for op on the view with the given id.
func Render(op, viewID string, err error) *ViewError {
	return &ViewError{Op: op, Kind: KindRender, ViewID: viewID, Err: err, Timestamp: time.Now()}
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return isKind(err, KindConfiguration)
}

// IsState reports whether err is a state error.
func IsState(err error) bool {
	return isKind(err, KindState)
}

func isKind(err error, kind ErrorKind) bool {
	var ve *ViewError
	if stderrors.As(err, &ve) {
		return ve.Kind == kind
	}
	return false
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "viewtree.watch").
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

// ErrorHandler receives errors that have no caller to return to.
type ErrorHandler interface {
	// HandleError is called when an error is reported.
	HandleError(err *ViewError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
