// Package errs defines the error taxonomy shared by the storage, schema and
// query layers.
package errs

import "fmt"

// Kind classifies the failure so callers can decide whether to retry,
// abort, or simply report.
type Kind int

const (
	// Unknown is the zero value; real errors always set a specific kind.
	Unknown Kind = iota
	IoError
	OutOfRange
	Truncated
	CorruptPage
	CorruptRecord
	Unsupported
	InconsistentBtree
	CorruptBtree
	UnknownTable
	UnknownColumn
	UnsupportedQuery
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case OutOfRange:
		return "OutOfRange"
	case Truncated:
		return "Truncated"
	case CorruptPage:
		return "CorruptPage"
	case CorruptRecord:
		return "CorruptRecord"
	case Unsupported:
		return "Unsupported"
	case InconsistentBtree:
		return "InconsistentBtree"
	case CorruptBtree:
		return "CorruptBtree"
	case UnknownTable:
		return "UnknownTable"
	case UnknownColumn:
		return "UnknownColumn"
	case UnsupportedQuery:
		return "UnsupportedQuery"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with the operation that failed, its
// classification, and whatever diagnostic context was available at the
// failure site.
type Error struct {
	Op      string
	Kind    Kind
	Err     error
	Context map[string]interface{}
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v (context: %+v)", e.Op, e.Kind, e.Err, e.Context)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with optional context. Context may be nil.
func New(op string, kind Kind, err error, context map[string]interface{}) *Error {
	return &Error{Op: op, Kind: kind, Err: err, Context: context}
}

// Is reports whether err is an *Error of the given kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
