package domain

import "errors"

// Error kinds. Match them with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Error carries a client-facing message next to its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func Validation(msg string) error        { return &Error{Kind: ErrValidation, Message: msg} }
func Unauthorized(msg string) error      { return &Error{Kind: ErrUnauthorized, Message: msg} }
func NotFound(msg string) error          { return &Error{Kind: ErrNotFound, Message: msg} }
func Conflict(msg string) error          { return &Error{Kind: ErrConflict, Message: msg} }
func InsufficientStock(msg string) error { return &Error{Kind: ErrInsufficientStock, Message: msg} }

// Message returns the client-facing text of err when it is a domain
// error, and false otherwise.
func Message(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Error(), true
	}
	for _, kind := range []error{ErrValidation, ErrUnauthorized, ErrNotFound, ErrConflict, ErrInsufficientStock} {
		if errors.Is(err, kind) {
			return kind.Error(), true
		}
	}
	return "", false
}
