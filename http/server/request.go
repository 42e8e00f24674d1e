package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gclaussn/go-bpmn-model/http/common"
	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0] // e.g. `json:"timeCycle,omitempty"` -> timeCycle
	})

	model.RegisterValidations(validate)
	return validate
}

// decodeJSONRequestBody decodes the request body using v and validates it.
// Media type, request body or validation related errors are returned as a Problem.
//
// inspired by https://www.alexedwards.net/blog/how-to-properly-parse-a-json-request-body
func decodeJSONRequestBody(w http.ResponseWriter, r *http.Request, v any) error {
	if contentType := r.Header.Get(common.HeaderContentType); contentType != "" {
		mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if mediaType != common.ContentTypeJson {
			return common.Problem{
				Status: http.StatusUnsupportedMediaType,
				Type:   common.ProblemHttpMediaType,
				Title:  "unsupported media type",
				Detail: fmt.Sprintf("media type %s is not supported", mediaType),
			}
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576) // 1mb = 1024 * 1024

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError

		problem := common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemHttpRequestBody,
			Title:  "invalid request body",
		}

		switch {
		case errors.As(err, &syntaxError):
			problem.Detail = fmt.Sprintf("malformed JSON at position %d", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			problem.Detail = "unexpected end of JSON"
		case errors.As(err, &unmarshalTypeError):
			problem.Detail = fmt.Sprintf("JSON field %s has an invalid value at position %d", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			problem.Detail = fmt.Sprintf("unknown JSON field %s", fieldName)
		case errors.Is(err, io.EOF):
			problem.Detail = "request body is empty"
		case err.Error() == "http: request body too large":
			problem.Detail = "request body size must not exceed 1MB"
		default:
			problem.Detail = fmt.Sprintf("failed to unmarshal JSON: %v", err)
		}

		return problem
	}

	if err := validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("failed to validate request body: %v", err)
		}

		errors := make([]common.Error, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			var (
				detail string
				value  string
			)
			switch fieldError.Tag() {
			case "min":
				detail = fmt.Sprintf("requires at least %s item(s)", fieldError.Param())
			case "required":
				detail = "is required"
			// custom validation
			case "bpmn_id":
				detail = fmt.Sprintf("must match regex %s", model.RegexpId)
				value = fmt.Sprintf("%s", fieldError.Value())
			case "cron":
				detail = "is invalid"
				value = fmt.Sprintf("%s", fieldError.Value())
			case "owner_path":
				detail = "must be a process ID or <process ID>/<lane ID>"
				value = fmt.Sprintf("%s", fieldError.Value())
			default:
				detail = "unknown error"
				value = fmt.Sprintf("%v", fieldError.Value())
			}

			errors = append(errors, common.Error{
				Pointer: toJSONPointer(fieldError.Namespace()),
				Type:    fieldError.Tag(),
				Detail:  detail,
				Value:   value,
			})
		}

		return common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemHttpRequestBody,
			Title:  "invalid request body",
			Detail: "failed to validate request body",
			Errors: errors,
		}
	}

	return nil
}

func parseName(r *http.Request) (string, error) {
	name := r.PathValue("name")
	if err := sink.ValidateName(name); err != nil {
		return "", common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemHttpRequestUri,
			Title:  "invalid path parameter name",
			Detail: fmt.Sprintf("name must match regex %s", sink.RegexpName),
		}
	}
	return name, nil
}

// toJSONPointer converts a validator namespace into a JSON pointer - e.g. Description.nodes[0].type -> #/nodes/0/type.
func toJSONPointer(namespace string) string {
	_, path, _ := strings.Cut(namespace, ".") // skip struct name

	var pointerBuilder strings.Builder
	pointerBuilder.WriteString("#/")
	for _, r := range path {
		switch r {
		case '.', '[':
			pointerBuilder.WriteRune('/')
		case ']':
			continue
		default:
			pointerBuilder.WriteRune(r)
		}
	}
	return pointerBuilder.String()
}
