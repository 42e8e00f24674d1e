package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gclaussn/go-bpmn-model/http/common"
	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
)

func encodeJSONProblemResponseBody(w http.ResponseWriter, r *http.Request, err error) {
	var (
		problem   common.Problem
		modelErr  model.Error
		writeErr  sink.WriteError
		isProblem bool
	)

	problem, isProblem = err.(common.Problem)

	switch {
	case isProblem:
	case errors.As(err, &modelErr) && modelErr.Type != 0:
		var problemType common.ProblemType
		switch modelErr.Type {
		case model.ErrorDuplicateId:
			problemType = common.ProblemDuplicateId
		case model.ErrorInvalidAttribute:
			problemType = common.ProblemInvalidAttribute
		case model.ErrorUnknownType:
			problemType = common.ProblemUnknownType
		case model.ErrorUnresolvedReference:
			problemType = common.ProblemUnresolvedReference
		}

		causes := make([]common.Error, len(modelErr.Causes))
		for i, cause := range modelErr.Causes {
			causes[i] = common.Error{
				Pointer: cause.Pointer,
				Type:    cause.Type,
				Detail:  cause.Detail,
			}
		}

		problem = common.Problem{
			Status: http.StatusUnprocessableEntity,
			Type:   problemType,
			Title:  modelErr.Title,
			Detail: modelErr.Detail,
			Errors: causes,
		}
	case errors.Is(err, sink.ErrNotFound):
		problem = common.Problem{
			Status: http.StatusNotFound,
			Type:   common.ProblemNotFound,
			Title:  "document not found",
			Detail: r.PathValue("name"),
		}
	case errors.As(err, &writeErr):
		log.Printf("%s %s: %v", r.Method, r.RequestURI, err)

		problem = common.Problem{
			Status: http.StatusInternalServerError,
			Type:   common.ProblemWrite,
			Title:  "failed to write document",
			Detail: "see server logs",
		}
	default:
		log.Printf("%s %s: unexpected error occurred: %v", r.Method, r.RequestURI, err)

		problem = common.Problem{
			Status: http.StatusInternalServerError,
			Title:  "unexpected error occurred",
			Detail: "see server logs",
		}
	}

	w.Header().Set(common.HeaderContentType, common.ContentTypeProblemJson)
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		log.Printf("%s %s: failed to create JSON problem response body: %v", r.Method, r.RequestURI, err)
		http.Error(w, "unexpected error occurred - see server logs", http.StatusInternalServerError)
	}
}

func encodeXmlResponseBody(w http.ResponseWriter, bpmnXml string, statusCode int) {
	w.Header().Set(common.HeaderContentType, common.ContentTypeXml)
	w.WriteHeader(statusCode)
	w.Write([]byte(bpmnXml))
}
