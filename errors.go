package watermark

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies a failure reported by the compositor.
type Kind int

const (
	// KindIO covers unreadable or unwritable paths and codec failures.
	KindIO Kind = iota
	// KindNotFound means an input or watermark file does not exist.
	KindNotFound
	// KindInvalidArgument means the caller passed an unusable option.
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "io error"
	}
}

// Error is the error type returned by Engine operations.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Path == "" && t.Err == nil
}

// Sentinels usable with errors.Is.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrIO              = &Error{Kind: KindIO}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
)

// KindOf reports the kind of err. Errors not produced by this package are
// classified as KindIO unless they wrap fs.ErrNotExist.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	if errors.Is(err, fs.ErrNotExist) {
		return KindNotFound
	}
	return KindIO
}

func invalidArgument(op string, format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: fmt.Errorf(format, args...)}
}

// pathError wraps a filesystem failure, separating missing files from other
// IO problems.
func pathError(op, path string, err error) error {
	kind := KindIO
	if errors.Is(err, fs.ErrNotExist) {
		kind = KindNotFound
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func ioError(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}
