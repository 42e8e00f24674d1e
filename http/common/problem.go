package common

import (
	"fmt"
	"strings"
)

// ProblemType determines if a problem is HTTP, model or document related.
type ProblemType int

const (
	ProblemHttpMediaType ProblemType = iota + 1
	ProblemHttpRequestBody
	ProblemHttpRequestUri

	// model error types
	ProblemDuplicateId
	ProblemInvalidAttribute
	ProblemUnknownType
	ProblemUnresolvedReference

	// document error types
	ProblemNotFound
	ProblemWrite
)

func MapProblemType(s string) ProblemType {
	switch s {
	case "HTTP_MEDIA_TYPE":
		return ProblemHttpMediaType
	case "HTTP_REQUEST_BODY":
		return ProblemHttpRequestBody
	case "HTTP_REQUEST_URI":
		return ProblemHttpRequestUri
	case "DUPLICATE_ID":
		return ProblemDuplicateId
	case "INVALID_ATTRIBUTE":
		return ProblemInvalidAttribute
	case "UNKNOWN_TYPE":
		return ProblemUnknownType
	case "UNRESOLVED_REFERENCE":
		return ProblemUnresolvedReference
	case "NOT_FOUND":
		return ProblemNotFound
	case "WRITE":
		return ProblemWrite
	default:
		return 0
	}
}

func (v ProblemType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", v.String())), nil
}

func (v ProblemType) String() string {
	switch v {
	case ProblemHttpMediaType:
		return "HTTP_MEDIA_TYPE"
	case ProblemHttpRequestBody:
		return "HTTP_REQUEST_BODY"
	case ProblemHttpRequestUri:
		return "HTTP_REQUEST_URI"
	case ProblemDuplicateId:
		return "DUPLICATE_ID"
	case ProblemInvalidAttribute:
		return "INVALID_ATTRIBUTE"
	case ProblemUnknownType:
		return "UNKNOWN_TYPE"
	case ProblemUnresolvedReference:
		return "UNRESOLVED_REFERENCE"
	case ProblemNotFound:
		return "NOT_FOUND"
	case ProblemWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

func (v *ProblemType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 {
		return fmt.Errorf("invalid problem type data %s", s)
	}
	*v = MapProblemType(s[1 : len(s)-1])
	return nil
}

// Common format for HTTP 4xx error responses, based on https://datatracker.ietf.org/doc/html/rfc9457.
type Problem struct {
	Status int         `json:"status"`           // HTTP status code.
	Type   ProblemType `json:"type"`             // Problem type.
	Title  string      `json:"title"`            // Human-readable problem summary.
	Detail string      `json:"detail"`           // Human-readable, detailed information about the problem.
	Errors []Error     `json:"errors,omitempty"` // Validation errors or model error causes.
}

func (v Problem) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("HTTP %d: %s: %s: %s", v.Status, v.Type, v.Title, v.Detail))

	for i := range v.Errors {
		sb.WriteRune('\n')
		sb.WriteString(v.Errors[i].String())
	}

	return sb.String()
}

// Error represents a failed validation, pointing on a JSON property or BPMN element.
type Error struct {
	// A pointer, locating the invalid JSON property (e.g. #/nodes/0/type) or BPMN element (e.g. PizzaOrderProcess/Flow_1).
	Pointer string `json:"pointer"`
	// Error type.
	//
	// JSON property related values:
	//   - `bpmn_id`: value is not a valid BPMN ID
	//   - `cron`: value is not a valid CRON expression
	//   - `min`: array has less than the minimum number of items
	//   - `owner_path`: value is not a valid owner path
	//   - `required`: value is required
	//
	// BPMN element related values name the faulty attribute - e.g. `id`, `sourceRef`, `targetRef` or `processRef`.
	Type string `json:"type"`
	// Human-readable, detailed information about the error.
	Detail string `json:"detail"`
	// Value that caused the validation error.
	Value string `json:"value,omitempty"`
}

func (v Error) String() string {
	return fmt.Sprintf("%s: %s", v.Pointer, v.Detail)
}
