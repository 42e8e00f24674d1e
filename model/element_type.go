package model

import "fmt"

// ElementType describes the different BPMN element types a model can be built from.
type ElementType int

const (
	ElementBusinessRuleTask ElementType = iota + 1
	ElementCollaboration
	ElementDefinitions
	ElementEndEvent
	ElementExclusiveGateway
	ElementInclusiveGateway
	ElementIntermediateThrowEvent
	ElementLane
	ElementLaneSet
	ElementManualTask
	ElementParallelGateway
	ElementParticipant
	ElementProcess
	ElementScriptTask
	ElementSendTask
	ElementSequenceFlow
	ElementServiceTask
	ElementStartEvent
	ElementTask
	ElementTimerStartEvent
	ElementUserTask
)

// MapElementType maps an upper snake case name (e.g. START_EVENT) or a BPMN XML local name (e.g. startEvent) to an element type.
// If the name is unknown, 0 is returned.
func MapElementType(s string) ElementType {
	switch s {
	case "BUSINESS_RULE_TASK", "businessRuleTask":
		return ElementBusinessRuleTask
	case "COLLABORATION", "collaboration":
		return ElementCollaboration
	case "DEFINITIONS", "definitions":
		return ElementDefinitions
	case "END_EVENT", "endEvent":
		return ElementEndEvent
	case "EXCLUSIVE_GATEWAY", "exclusiveGateway":
		return ElementExclusiveGateway
	case "INCLUSIVE_GATEWAY", "inclusiveGateway":
		return ElementInclusiveGateway
	case "INTERMEDIATE_THROW_EVENT", "intermediateThrowEvent":
		return ElementIntermediateThrowEvent
	case "LANE", "lane":
		return ElementLane
	case "LANE_SET", "laneSet":
		return ElementLaneSet
	case "MANUAL_TASK", "manualTask":
		return ElementManualTask
	case "PARALLEL_GATEWAY", "parallelGateway":
		return ElementParallelGateway
	case "PARTICIPANT", "participant":
		return ElementParticipant
	case "PROCESS", "process":
		return ElementProcess
	case "SCRIPT_TASK", "scriptTask":
		return ElementScriptTask
	case "SEND_TASK", "sendTask":
		return ElementSendTask
	case "SEQUENCE_FLOW", "sequenceFlow":
		return ElementSequenceFlow
	case "SERVICE_TASK", "serviceTask":
		return ElementServiceTask
	case "START_EVENT", "startEvent":
		return ElementStartEvent
	case "TASK", "task":
		return ElementTask
	case "TIMER_START_EVENT":
		return ElementTimerStartEvent
	case "USER_TASK", "userTask":
		return ElementUserTask
	default:
		return 0
	}
}

// IsFlowNode determines if elements of the type are flow nodes, which can be connected by sequence flows.
func (v ElementType) IsFlowNode() bool {
	switch v {
	case
		ElementBusinessRuleTask,
		ElementEndEvent,
		ElementExclusiveGateway,
		ElementInclusiveGateway,
		ElementIntermediateThrowEvent,
		ElementManualTask,
		ElementParallelGateway,
		ElementScriptTask,
		ElementSendTask,
		ElementServiceTask,
		ElementStartEvent,
		ElementTask,
		ElementTimerStartEvent,
		ElementUserTask:
		return true
	default:
		return false
	}
}

// IsStartEvent determines if the type is a start event of any kind.
func (v ElementType) IsStartEvent() bool {
	return v == ElementStartEvent || v == ElementTimerStartEvent
}

func (v ElementType) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ElementType) String() string {
	switch v {
	case ElementBusinessRuleTask:
		return "BUSINESS_RULE_TASK"
	case ElementCollaboration:
		return "COLLABORATION"
	case ElementDefinitions:
		return "DEFINITIONS"
	case ElementEndEvent:
		return "END_EVENT"
	case ElementExclusiveGateway:
		return "EXCLUSIVE_GATEWAY"
	case ElementInclusiveGateway:
		return "INCLUSIVE_GATEWAY"
	case ElementIntermediateThrowEvent:
		return "INTERMEDIATE_THROW_EVENT"
	case ElementLane:
		return "LANE"
	case ElementLaneSet:
		return "LANE_SET"
	case ElementManualTask:
		return "MANUAL_TASK"
	case ElementParallelGateway:
		return "PARALLEL_GATEWAY"
	case ElementParticipant:
		return "PARTICIPANT"
	case ElementProcess:
		return "PROCESS"
	case ElementScriptTask:
		return "SCRIPT_TASK"
	case ElementSendTask:
		return "SEND_TASK"
	case ElementSequenceFlow:
		return "SEQUENCE_FLOW"
	case ElementServiceTask:
		return "SERVICE_TASK"
	case ElementStartEvent:
		return "START_EVENT"
	case ElementTask:
		return "TASK"
	case ElementTimerStartEvent:
		return "TIMER_START_EVENT"
	case ElementUserTask:
		return "USER_TASK"
	default:
		return ""
	}
}

func (v *ElementType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapElementType(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid element type data %s", s)
	}
	return nil
}

// localName returns the BPMN XML local name of the element type.
// A timer start event is serialized as start event with a timer event definition.
func (v ElementType) localName() string {
	switch v {
	case ElementBusinessRuleTask:
		return "businessRuleTask"
	case ElementCollaboration:
		return "collaboration"
	case ElementDefinitions:
		return "definitions"
	case ElementEndEvent:
		return "endEvent"
	case ElementExclusiveGateway:
		return "exclusiveGateway"
	case ElementInclusiveGateway:
		return "inclusiveGateway"
	case ElementIntermediateThrowEvent:
		return "intermediateThrowEvent"
	case ElementLane:
		return "lane"
	case ElementLaneSet:
		return "laneSet"
	case ElementManualTask:
		return "manualTask"
	case ElementParallelGateway:
		return "parallelGateway"
	case ElementParticipant:
		return "participant"
	case ElementProcess:
		return "process"
	case ElementScriptTask:
		return "scriptTask"
	case ElementSendTask:
		return "sendTask"
	case ElementSequenceFlow:
		return "sequenceFlow"
	case ElementServiceTask:
		return "serviceTask"
	case ElementStartEvent, ElementTimerStartEvent:
		return "startEvent"
	case ElementTask:
		return "task"
	case ElementUserTask:
		return "userTask"
	default:
		return ""
	}
}
