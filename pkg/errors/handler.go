package errors

import (
	stderrors "errors"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	handlerMu sync.RWMutex
	handler   ErrorHandler = &LogHandler{}
)

// SetHandler installs h as the global handler. nil restores a LogHandler
// writing to stderr.
func SetHandler(h ErrorHandler) {
	if h == nil {
		h = &LogHandler{}
	}
	handlerMu.Lock()
	handler = h
	handlerMu.Unlock()
}

func currentHandler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return handler
}

// Report hands err to the global handler, stamping it first.
func Report(err *ViewError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	currentHandler().HandleError(err)
}

// ReportError reports err under op. A *ViewError in err's chain is reported
// unchanged; anything else is wrapped with KindUnknown.
func ReportError(op string, err error) {
	if err == nil {
		return
	}
	var ve *ViewError
	if !stderrors.As(err, &ve) {
		ve = &ViewError{Op: op, Kind: KindUnknown, Err: err, StackTrace: CaptureStack()}
	}
	Report(ve)
}

// ReportPanic hands err to the global handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	currentHandler().HandlePanic(err)
}

// Recover reports a panic in the calling goroutine and stops it from
// unwinding further. It must be deferred directly:
//
//	defer errors.Recover("viewtree.watch")
func Recover(op string) {
	if r := recover(); r != nil {
		reportRecovered(op, r)
	}
}

// RecoverWithCallback is Recover followed by callback(r), which lets the
// caller turn the panic into a return value.
func RecoverWithCallback(op string, callback func(r any)) {
	if r := recover(); r != nil {
		reportRecovered(op, r)
		if callback != nil {
			callback(r)
		}
	}
}

func reportRecovered(op string, r any) {
	ReportPanic(&PanicError{Op: op, Value: r, StackTrace: CaptureStack()})
}

// CaptureStack returns the caller's stack, one "function\n\tfile:line"
// entry per frame.
func CaptureStack() string {
	var pcs [32]uintptr
	// Skip runtime.Callers and CaptureStack.
	n := runtime.Callers(2, pcs[:])
	if n == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for more := true; more; {
		var frame runtime.Frame
		frame, more = frames.Next()
		sb.WriteString(frame.Function + "\n\t" + frame.File + ":" + strconv.Itoa(frame.Line) + "\n")
	}
	return sb.String()
}
