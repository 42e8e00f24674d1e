package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error is returned when a model cannot be created, built, parsed or serialized.
// A failed operation never returns a partial model or partial output.
type Error struct {
	Type   ErrorType
	Title  string
	Detail string
	Causes []ErrorCause
}

func (e Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s: %s", e.Type, e.Title, e.Detail))

	for _, cause := range e.Causes {
		sb.WriteRune('\n')
		sb.WriteString(cause.String())
	}

	return sb.String()
}

type ErrorType int

const (
	ErrorUnknownType ErrorType = iota + 1
	ErrorInvalidAttribute
	ErrorDuplicateId
	ErrorUnresolvedReference
)

func MapErrorType(s string) ErrorType {
	switch s {
	case "UNKNOWN_TYPE":
		return ErrorUnknownType
	case "INVALID_ATTRIBUTE":
		return ErrorInvalidAttribute
	case "DUPLICATE_ID":
		return ErrorDuplicateId
	case "UNRESOLVED_REFERENCE":
		return ErrorUnresolvedReference
	default:
		return 0
	}
}

func (v ErrorType) String() string {
	switch v {
	case ErrorUnknownType:
		return "UNKNOWN_TYPE"
	case ErrorInvalidAttribute:
		return "INVALID_ATTRIBUTE"
	case ErrorDuplicateId:
		return "DUPLICATE_ID"
	case ErrorUnresolvedReference:
		return "UNRESOLVED_REFERENCE"
	default:
		return "UNKNOWN"
	}
}

// ErrorCause locates the offending element and attribute.
type ErrorCause struct {
	Pointer string // A pointer, locating the element - e.g. PizzaOrderProcess/Flow_1.
	Type    string // Name of the attribute - e.g. targetRef.
	Detail  string // Human-readable, detailed information about the cause.
}

func (e ErrorCause) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Pointer, e.Detail)
}

// IsErrorType determines if err is or wraps a model error of the given type.
func IsErrorType(err error, errorType ErrorType) bool {
	var modelErr Error
	return errors.As(err, &modelErr) && modelErr.Type == errorType
}

func newError(errorType ErrorType, title string, pointer string, attribute string, detail string) Error {
	return Error{
		Type:   errorType,
		Title:  title,
		Detail: detail,
		Causes: []ErrorCause{{Pointer: pointer, Type: attribute, Detail: detail}},
	}
}

func pointerOf(scope string, id string) string {
	if scope == "" {
		return id
	}
	return scope + "/" + id
}
