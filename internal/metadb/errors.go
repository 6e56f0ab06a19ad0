package metadb

import "golang.org/x/xerrors"

// ErrorKind classifies a failure the writer can produce, so callers can
// decide whether to abort a run or merely log and continue.
type ErrorKind int

const (
	// ErrIO covers failures writing to, seeking, or flushing the output
	// file. Always fatal to the current Write call.
	ErrIO ErrorKind = iota
	// ErrSourceCopy covers failures copying a referenced source file into
	// the output's src/ directory. Recoverable: the file record is
	// emitted with copied=false and the run continues.
	ErrSourceCopy
	// ErrModelInvariant covers a Model that violates an invariant the
	// writer assumes (missing root context, invalid top-level context
	// scope). Always fatal. An unflattened formula leaf is not reported
	// through this kind: FormatFormula panics on it.
	ErrModelInvariant
	// ErrConfiguration covers a malformed or self-contradictory
	// WriterConfig. Always fatal, and always detected before any bytes
	// are written.
	ErrConfiguration
)

// Error wraps an underlying error with its ErrorKind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func wrapErr(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: xerrors.Errorf(format, args...)}
}

// IsRecoverable reports whether err (or a wrapped *Error within it) is of
// a kind the writer can proceed past.
func IsRecoverable(err error) bool {
	var e *Error
	if xerrors.As(err, &e) {
		return e.Kind == ErrSourceCopy
	}
	return false
}
