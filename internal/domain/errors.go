package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure. Handlers map kinds to HTTP status codes.
type Kind string

const (
	KindDataUnavailable         Kind = "DataUnavailable"
	KindNoDataForPeriod         Kind = "NoDataForPeriod"
	KindNoPriceFound            Kind = "NoPriceFound"
	KindInvalidArgument         Kind = "InvalidArgument"
	KindInsufficientData        Kind = "InsufficientData"
	KindDivisionByZero          Kind = "DivisionByZero"
	KindEmptyPortfolio          Kind = "EmptyPortfolio"
	KindInsufficientFunds       Kind = "InsufficientFunds"
	KindInsufficientQuantity    Kind = "InsufficientQuantity"
	KindInvalidTargetAllocation Kind = "InvalidTargetAllocation"
	KindEntityNotFound          Kind = "EntityNotFound"
	KindInternal                Kind = "Internal"
)

// Error is a classified failure carrying a human-readable message and the
// underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels for errors.Is comparisons. Matching is by kind only.
var (
	ErrDataUnavailable         = &Error{Kind: KindDataUnavailable}
	ErrNoDataForPeriod         = &Error{Kind: KindNoDataForPeriod}
	ErrNoPriceFound            = &Error{Kind: KindNoPriceFound}
	ErrInvalidArgument         = &Error{Kind: KindInvalidArgument}
	ErrInsufficientData        = &Error{Kind: KindInsufficientData}
	ErrDivisionByZero          = &Error{Kind: KindDivisionByZero}
	ErrEmptyPortfolio          = &Error{Kind: KindEmptyPortfolio}
	ErrInsufficientFunds       = &Error{Kind: KindInsufficientFunds}
	ErrInsufficientQuantity    = &Error{Kind: KindInsufficientQuantity}
	ErrInvalidTargetAllocation = &Error{Kind: KindInvalidTargetAllocation}
	ErrEntityNotFound          = &Error{Kind: KindEntityNotFound}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Errorf builds a classified error. cause may be nil.
func Errorf(kind Kind, cause error, format string, args ...interface{}) error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or KindInternal when none is present.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// RootCause returns the message of the innermost error in err's chain
func RootCause(err error) string {
	if err == nil {
		return ""
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
