package ledger

import "errors"

// Kind classifies a ledger error for the transport layer.
type Kind int

const (
	// KindAuth: no resolvable principal, or the principal lacks the privilege.
	KindAuth Kind = iota + 1
	// KindNotFound: a referenced group or user does not exist.
	KindNotFound
	// KindValidation: malformed or inconsistent input.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is returned by every Ledger operation that fails for a reason the
// caller can act on. Message is safe to show to the end user verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// ErrUnauthenticated is returned when the request carries no principal
// that resolves to a known user.
var ErrUnauthenticated = &Error{Kind: KindAuth, Message: "Unauthenticated"}

func authError(msg string) error {
	return &Error{Kind: KindAuth, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// invalid wraps a calculator error, keeping its message.
func invalid(err error) error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// KindOf returns the kind of err, or 0 if err is not a ledger error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

func IsAuth(err error) bool       { return KindOf(err) == KindAuth }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
