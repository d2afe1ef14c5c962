// Package errs defines the closed set of error kinds the mod compiler can
// raise, carried by one Kind-tagged *Error type usable with
// errors.Is/errors.As. The pipeline
// never retries and never produces partial output it considers valid; every
// error here aborts the run.
package errs

import "fmt"

// Kind is one of the error kinds enumerated in spec.md §7.
type Kind string

const (
	KindUnknownComponent       Kind = "UnknownComponent"
	KindUnknownMissionTaskType Kind = "UnknownMissionTaskType"
	KindTableNotFound          Kind = "TableNotFound"
	KindTypeMismatch           Kind = "TypeMismatch"
	KindUnresolvedSymbol       Kind = "UnresolvedSymbol"
	KindDuplicateModID         Kind = "DuplicateModId"
	KindSQLValueMissing        Kind = "SqlValueMissing"
	KindSQLValueWrongType      Kind = "SqlValueWrongType"
	KindIncludeIOError         Kind = "IncludeIoError"
	KindManifestIOError        Kind = "ManifestIoError"
	KindStockDatabaseIOError   Kind = "StockDatabaseIoError"
	KindOutputIOError          Kind = "OutputIoError"
	KindNonIntegerPrimaryKey   Kind = "NonIntegerPrimaryKey"
)

// Error is the error type every pipeline stage returns. ModID and Stage are
// populated when that context exists, per spec.md §7.
type Error struct {
	Kind  Kind
	ModID string
	Stage string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	var prefix string
	switch {
	case e.ModID != "" && e.Stage != "":
		prefix = fmt.Sprintf("[%s] mod %q: ", e.Stage, e.ModID)
	case e.ModID != "":
		prefix = fmt.Sprintf("mod %q: ", e.ModID)
	case e.Stage != "":
		prefix = fmt.Sprintf("[%s] ", e.Stage)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s%s: %s: %v", prefix, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so callers can
// use errors.Is(err, errs.New(errs.KindUnresolvedSymbol, "")) style checks,
// or more simply by comparing the Kind that errs.Of(err) returns.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an Error with no mod/stage context.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that wraps an underlying I/O or parse error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithMod attaches the mod-id context spec.md §7 asks error reports to carry.
func (e *Error) WithMod(modID string) *Error {
	e2 := *e
	e2.ModID = modID
	return &e2
}

// WithStage attaches the pipeline-stage context.
func (e *Error) WithStage(stage string) *Error {
	e2 := *e
	e2.Stage = stage
	return &e2
}

// Of extracts the Kind from err if it is (or wraps) an *Error.
func Of(err error) (Kind, bool) {
	var e *Error
	if asError(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
