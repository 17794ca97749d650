package lisp

import "fmt"

// ErrorKind is the closed error taxonomy of spec.md §7.
type ErrorKind int

const (
	// ErrSyntax: the reader failed, or the evaluator saw a non-list
	// structure, or a special form was malformed.
	ErrSyntax ErrorKind = iota
	// ErrUnbound: symbol lookup failed at the top-level environment.
	ErrUnbound
	// ErrArgs: arity mismatch on a closure, macro, or primitive.
	ErrArgs
	// ErrType: wrong atom kind for the operation.
	ErrType
)

// Label returns the human-readable label the REPL prints, per spec.md §6.
func (k ErrorKind) Label() string {
	switch k {
	case ErrSyntax:
		return "Syntax error"
	case ErrUnbound:
		return "Symbol not bound"
	case ErrArgs:
		return "Wrong number of arguments"
	case ErrType:
		return "Wrong type"
	default:
		return "Unknown error"
	}
}

// Error is an ordinary value carrying one of the four taxonomy kinds plus
// a free-form diagnostic message. It implements the standard error
// interface so Go call sites can use errors.As/errors.Is, but nothing in
// internal/lisp ever panics to produce one — propagation is by explicit
// return, per spec.md §7.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Label()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Label(), e.Message)
}

func syntaxErr(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrSyntax, Message: fmt.Sprintf(format, args...)}
}

func unboundErr(name string) *Error {
	return &Error{Kind: ErrUnbound, Message: name}
}

func argsErr(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrArgs, Message: fmt.Sprintf(format, args...)}
}

func typeErr(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrType, Message: fmt.Sprintf(format, args...)}
}
