package model

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/adhocore/gronx"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0] // e.g. `yaml:"timeCycle,omitempty"` -> timeCycle
	})

	RegisterValidations(validate)
	return validate
}

// RegisterValidations registers the custom validations, a [Description] relies on:
//   - bpmn_id: value must be empty or a valid ID
//   - cron: value must be empty or a valid CRON expression
//   - owner_path: value must be empty, a process ID or <process ID>/<lane ID>
func RegisterValidations(validate *validator.Validate) {
	validate.RegisterValidation("bpmn_id", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return true
		}
		return RegexpId.MatchString(v)
	})
	validate.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return true
		}
		return gronx.IsValid(v)
	})
	validate.RegisterValidation("owner_path", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return true
		}
		processId, laneId, hasLane := strings.Cut(v, "/")
		if !RegexpId.MatchString(processId) {
			return false
		}
		return !hasLane || RegexpId.MatchString(laneId)
	})
}

// Description describes a model declaratively: processes with their lanes, an optional collaboration,
// flow nodes and the sequence flows (edges) between them.
type Description struct {
	Id              string `json:"id,omitempty" yaml:"id,omitempty" validate:"bpmn_id"`
	TargetNamespace string `json:"targetNamespace" yaml:"targetNamespace" validate:"required"`

	Processes     []ProcessSpec      `json:"processes" yaml:"processes" validate:"required,min=1,dive"`
	Collaboration *CollaborationSpec `json:"collaboration,omitempty" yaml:"collaboration,omitempty" validate:"omitempty"`
	Nodes         []NodeSpec         `json:"nodes,omitempty" yaml:"nodes,omitempty" validate:"dive"`
	Edges         []EdgeSpec         `json:"edges,omitempty" yaml:"edges,omitempty" validate:"dive"`
}

type ProcessSpec struct {
	Id           string     `json:"id" yaml:"id" validate:"required,bpmn_id"`
	Name         string     `json:"name,omitempty" yaml:"name,omitempty"`
	IsExecutable bool       `json:"isExecutable,omitempty" yaml:"isExecutable,omitempty"`
	LaneSetId    string     `json:"laneSetId,omitempty" yaml:"laneSetId,omitempty" validate:"bpmn_id"`
	Lanes        []LaneSpec `json:"lanes,omitempty" yaml:"lanes,omitempty" validate:"dive"`
}

type LaneSpec struct {
	Id   string `json:"id" yaml:"id" validate:"required,bpmn_id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

type CollaborationSpec struct {
	Id           string            `json:"id" yaml:"id" validate:"required,bpmn_id"`
	Participants []ParticipantSpec `json:"participants" yaml:"participants" validate:"dive"`
}

type ParticipantSpec struct {
	Id         string `json:"id" yaml:"id" validate:"required,bpmn_id"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	ProcessRef string `json:"processRef" yaml:"processRef" validate:"required"`
}

// NodeSpec describes a flow node.
type NodeSpec struct {
	Type string `json:"type" yaml:"type" validate:"required"` // Element type - e.g. START_EVENT or startEvent.
	Id   string `json:"id" yaml:"id" validate:"required,bpmn_id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Owner path: <process ID> or <process ID>/<lane ID>.
	// Can be omitted, if the description contains a single process.
	Owner     string `json:"owner,omitempty" yaml:"owner,omitempty" validate:"owner_path"`
	TimeCycle string `json:"timeCycle,omitempty" yaml:"timeCycle,omitempty" validate:"cron"` // Only for TIMER_START_EVENT.
}

// EdgeSpec describes a sequence flow.
type EdgeSpec struct {
	Id     string `json:"id" yaml:"id" validate:"required,bpmn_id"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Source string `json:"source" yaml:"source" validate:"required"`
	Target string `json:"target" yaml:"target" validate:"required"`
	// ID of the process. Can be omitted, if the description contains a single process.
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty" validate:"bpmn_id"`
}

// ReadDescription reads a YAML or JSON encoded description. Unknown fields are rejected.
func ReadDescription(r io.Reader) (Description, error) {
	var description Description

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&description); err != nil {
		if errors.Is(err, io.EOF) {
			return Description{}, errors.New("description is empty")
		}
		return Description{}, fmt.Errorf("failed to decode description: %v", err)
	}

	return description, nil
}

// Validate validates the structure of the description.
// If the description is invalid, an [Error] of type [ErrorInvalidAttribute] with one cause per invalid field is returned.
func (d Description) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate description: %v", err)
	}

	causes := make([]ErrorCause, len(validationErrors))
	for i, fieldError := range validationErrors {
		_, pointer, _ := strings.Cut(fieldError.Namespace(), ".") // strip struct name

		var detail string
		switch fieldError.Tag() {
		case "bpmn_id":
			detail = fmt.Sprintf("%q is not a valid ID", fieldError.Value())
		case "cron":
			detail = fmt.Sprintf("%q is not a valid CRON expression", fieldError.Value())
		case "min":
			detail = fmt.Sprintf("at least %s item(s) required", fieldError.Param())
		case "owner_path":
			detail = fmt.Sprintf("%q is not a valid owner path", fieldError.Value())
		case "required":
			detail = "is required"
		default:
			detail = fmt.Sprintf("failed on %s validation", fieldError.Tag())
		}

		causes[i] = ErrorCause{
			Pointer: pointer,
			Type:    fieldError.Field(),
			Detail:  detail,
		}
	}

	return Error{
		Type:   ErrorInvalidAttribute,
		Title:  "invalid description",
		Detail: fmt.Sprintf("description has %d invalid attribute(s)", len(causes)),
		Causes: causes,
	}
}

// PizzaOrderDescription describes the pizza order example: a customer pool with three lanes,
// four flow nodes and two sequence flows. Task_OrderPizza has no outgoing sequence flow.
func PizzaOrderDescription() Description {
	return Description{
		TargetNamespace: "http://bpmn.io/schema/bpmn",
		Processes: []ProcessSpec{
			{
				Id: "PizzaOrderProcess",
				Lanes: []LaneSpec{
					{Id: "Clerk", Name: "Clerk"},
					{Id: "PizzaChef", Name: "Pizza Chef"},
					{Id: "DeliveryBoy", Name: "Delivery Boy"},
				},
			},
		},
		Collaboration: &CollaborationSpec{
			Id: "Collaboration_1",
			Participants: []ParticipantSpec{
				{Id: "PizzaCustomer", Name: "Pizza Customer", ProcessRef: "PizzaOrderProcess"},
			},
		},
		Nodes: []NodeSpec{
			{Type: "START_EVENT", Id: "StartEvent_1", Name: "Hungry for Pizza"},
			{Type: "TASK", Id: "Task_SelectPizza", Name: "Select a Pizza"},
			{Type: "TASK", Id: "Task_OrderPizza", Name: "Order Pizza"},
			{Type: "END_EVENT", Id: "EndEvent_1", Name: "Hunger satisfied"},
		},
		Edges: []EdgeSpec{
			{Id: "Flow_1", Source: "StartEvent_1", Target: "Task_SelectPizza"},
			{Id: "Flow_2", Source: "Task_SelectPizza", Target: "Task_OrderPizza"},
		},
	}
}
