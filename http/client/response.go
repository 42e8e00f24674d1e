package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gclaussn/go-bpmn-model/http/common"
	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
)

// readResponseBody reads the body of a successful response or decodes the problem of a failed one.
func readResponseBody(res *http.Response) (string, error) {
	defer res.Body.Close()

	contentType := res.Header.Get(common.HeaderContentType)
	if contentType == common.ContentTypeProblemJson {
		var problem common.Problem
		if err := json.NewDecoder(res.Body).Decode(&problem); err != nil {
			return "", fmt.Errorf("failed to decode JSON problem response body: %v", err)
		}
		return "", mapProblem(problem)
	}

	b, err := io.ReadAll(res.Body)

	if res.StatusCode >= 300 {
		text := fmt.Sprintf(
			"%s %s: HTTP %d",
			res.Request.Method,
			res.Request.URL.Path,
			res.StatusCode,
		)

		if err != nil {
			return "", fmt.Errorf("%s: %v", text, err)
		} else if len(b) != 0 {
			return "", fmt.Errorf("%s: %s", text, strings.TrimSpace(string(b)))
		} else {
			return "", errors.New(text)
		}
	}

	if err != nil {
		return "", fmt.Errorf("failed to read response body: %v", err)
	}

	return string(b), nil
}

// mapProblem maps a problem to the error, which the server mapped to the problem - if possible.
func mapProblem(problem common.Problem) error {
	var errorType model.ErrorType
	switch problem.Type {
	case common.ProblemDuplicateId:
		errorType = model.ErrorDuplicateId
	case common.ProblemInvalidAttribute:
		errorType = model.ErrorInvalidAttribute
	case common.ProblemUnknownType:
		errorType = model.ErrorUnknownType
	case common.ProblemUnresolvedReference:
		errorType = model.ErrorUnresolvedReference
	case common.ProblemNotFound:
		return fmt.Errorf("%w: %s", sink.ErrNotFound, problem.Detail)
	default:
		return problem
	}

	causes := make([]model.ErrorCause, len(problem.Errors))
	for i, e := range problem.Errors {
		causes[i] = model.ErrorCause{
			Pointer: e.Pointer,
			Type:    e.Type,
			Detail:  e.Detail,
		}
	}

	return model.Error{
		Type:   errorType,
		Title:  problem.Title,
		Detail: problem.Detail,
		Causes: causes,
	}
}
