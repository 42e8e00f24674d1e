package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adhocore/gronx"
)

var RegexpId = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)

// Attributes is the attribute bag, used to create an element of any type via [Registry.Create].
// Which attributes are required depends on the element type.
type Attributes struct {
	Id   string
	Name string

	// Owner path of the element:
	//   - participant: ID of a collaboration
	//   - lane set, lane, sequence flow: ID of a process
	//   - flow node: ID of a process or <process ID>/<lane ID>
	Owner string

	IsExecutable bool   // process
	ProcessRef   string // participant
	SourceRef    string // sequence flow
	TargetRef    string // sequence flow
	TimeCycle    string // timer start event
}

// NewRegistry creates a registry together with the root of the model.
// A registry must be used for one model only and must not be shared between goroutines.
func NewRegistry(id string, targetNamespace string) (*Registry, error) {
	if strings.TrimSpace(targetNamespace) == "" {
		return nil, newError(ErrorInvalidAttribute, "failed to create definitions", "definitions", "targetNamespace", "target namespace is required")
	}
	if id != "" && !RegexpId.MatchString(id) {
		return nil, newError(ErrorInvalidAttribute, "failed to create definitions", "definitions", "id", fmt.Sprintf("ID %q is malformed", id))
	}

	definitions := Definitions{TargetNamespace: targetNamespace}
	definitions.Id = id

	r := Registry{
		definitions:  &definitions,
		elements:     make(map[string]Element),
		flowElements: make(map[string]map[string]FlowElement),
	}

	if id != "" {
		r.elements[id] = &definitions
	}

	return &r, nil
}

// Registry creates elements, assigns them to their owner and tracks their identity.
//
// Definitions, process, collaboration, participant, lane set and lane IDs are unique within the document.
// Flow node and sequence flow IDs are unique within their process.
type Registry struct {
	definitions  *Definitions
	elements     map[string]Element                // document scope
	flowElements map[string]map[string]FlowElement // process scope, by process ID
	frozen       bool
}

// Definitions freezes the registry and returns the root of the model.
// Afterwards no element can be created anymore.
func (r *Registry) Definitions() *Definitions {
	r.frozen = true
	return r.definitions
}

// ElementById returns the definitions, a process, collaboration, participant, lane set or lane by ID, or nil, if no such element exists.
func (r *Registry) ElementById(id string) Element {
	return r.elements[id]
}

// FlowElementById returns a flow node or sequence flow of a process, or nil, if no such element exists.
func (r *Registry) FlowElementById(processId string, id string) FlowElement {
	return r.flowElements[processId][id]
}

// Create creates an element of the given type, using the related attributes.
func (r *Registry) Create(elementType ElementType, attributes Attributes) (Element, error) {
	switch elementType {
	case ElementProcess:
		return r.CreateProcess(attributes.Id, attributes.Name, attributes.IsExecutable)
	case ElementCollaboration:
		return r.CreateCollaboration(attributes.Id)
	case ElementParticipant:
		return r.CreateParticipant(attributes.Owner, attributes.Id, attributes.Name, attributes.ProcessRef)
	case ElementLaneSet:
		return r.CreateLaneSet(attributes.Owner, attributes.Id)
	case ElementLane:
		return r.CreateLane(attributes.Owner, attributes.Id, attributes.Name)
	case ElementSequenceFlow:
		return r.CreateSequenceFlow(attributes.Owner, attributes.Id, attributes.SourceRef, attributes.TargetRef)
	case ElementTimerStartEvent:
		return r.CreateTimerStartEvent(attributes.Owner, attributes.Id, attributes.Name, attributes.TimeCycle)
	default:
		if elementType.IsFlowNode() && attributes.TimeCycle != "" {
			if elementType != ElementStartEvent {
				return nil, newError(ErrorInvalidAttribute, fmt.Sprintf("failed to create %s", elementType), pointerOf(attributes.Owner, attributes.Id), "timeCycle", fmt.Sprintf("time cycle is not supported by %s %q", elementType, attributes.Id))
			}
			return r.CreateTimerStartEvent(attributes.Owner, attributes.Id, attributes.Name, attributes.TimeCycle)
		}
		if elementType.IsFlowNode() {
			return r.CreateFlowNode(attributes.Owner, elementType, attributes.Id, attributes.Name)
		}
		return nil, Error{
			Type:   ErrorUnknownType,
			Title:  "failed to create element",
			Detail: fmt.Sprintf("element type %d is unknown or cannot be created", elementType),
		}
	}
}

func (r *Registry) CreateProcess(id string, name string, isExecutable bool) (*Process, error) {
	if err := r.checkGlobalId(ElementProcess, id); err != nil {
		return nil, err
	}

	process := Process{IsExecutable: isExecutable}
	process.Id = id
	process.Name = name

	r.elements[id] = &process
	r.flowElements[id] = make(map[string]FlowElement)
	r.definitions.rootElements = append(r.definitions.rootElements, &process)
	return &process, nil
}

func (r *Registry) CreateCollaboration(id string) (*Collaboration, error) {
	if err := r.checkGlobalId(ElementCollaboration, id); err != nil {
		return nil, err
	}

	collaboration := Collaboration{}
	collaboration.Id = id

	r.elements[id] = &collaboration
	r.definitions.rootElements = append(r.definitions.rootElements, &collaboration)
	return &collaboration, nil
}

// CreateParticipant creates a participant, which references an existing process.
func (r *Registry) CreateParticipant(collaborationId string, id string, name string, processRef string) (*Participant, error) {
	if err := r.checkGlobalId(ElementParticipant, id); err != nil {
		return nil, err
	}

	collaboration, ok := r.elements[collaborationId].(*Collaboration)
	if !ok {
		return nil, newError(ErrorInvalidAttribute, "failed to create participant", id, "owner", fmt.Sprintf("collaboration %q does not exist", collaborationId))
	}
	if processRef == "" {
		return nil, newError(ErrorInvalidAttribute, "failed to create participant", pointerOf(collaborationId, id), "processRef", "process reference is required")
	}
	if _, ok := r.elements[processRef].(*Process); !ok {
		return nil, newError(ErrorInvalidAttribute, "failed to create participant", pointerOf(collaborationId, id), "processRef", fmt.Sprintf("process %q does not exist", processRef))
	}

	participant := Participant{ProcessRef: processRef}
	participant.Id = id
	participant.Name = name

	r.elements[id] = &participant
	collaboration.participants = append(collaboration.participants, &participant)
	return &participant, nil
}

// CreateLaneSet creates a lane set. Since a lane set is never referenced, the ID is optional.
func (r *Registry) CreateLaneSet(processId string, id string) (*LaneSet, error) {
	if err := r.checkFrozen(ElementLaneSet); err != nil {
		return nil, err
	}
	if id != "" {
		if err := r.checkGlobalId(ElementLaneSet, id); err != nil {
			return nil, err
		}
	}

	process, err := r.process(ElementLaneSet, processId, id)
	if err != nil {
		return nil, err
	}

	laneSet := LaneSet{}
	laneSet.Id = id

	if id != "" {
		r.elements[id] = &laneSet
	}
	process.laneSets = append(process.laneSets, &laneSet)
	return &laneSet, nil
}

// CreateLane creates a lane within the last lane set of a process.
func (r *Registry) CreateLane(processId string, id string, name string) (*Lane, error) {
	if err := r.checkGlobalId(ElementLane, id); err != nil {
		return nil, err
	}

	process, err := r.process(ElementLane, processId, id)
	if err != nil {
		return nil, err
	}
	if len(process.laneSets) == 0 {
		return nil, newError(ErrorInvalidAttribute, "failed to create lane", pointerOf(processId, id), "owner", fmt.Sprintf("process %q has no lane set", processId))
	}

	lane := Lane{}
	lane.Id = id
	lane.Name = name

	laneSet := process.laneSets[len(process.laneSets)-1]

	r.elements[id] = &lane
	laneSet.lanes = append(laneSet.lanes, &lane)
	return &lane, nil
}

// CreateFlowNode creates an event, task or gateway within a process.
// If the owner path specifies a lane (<process ID>/<lane ID>), the flow node becomes a member of the lane.
func (r *Registry) CreateFlowNode(ownerPath string, elementType ElementType, id string, name string) (*FlowNode, error) {
	if !elementType.IsFlowNode() {
		return nil, newError(ErrorUnknownType, "failed to create flow node", pointerOf(ownerPath, id), "type", fmt.Sprintf("element type %s is not a flow node", elementType))
	}
	if elementType == ElementTimerStartEvent {
		return nil, newError(ErrorInvalidAttribute, "failed to create flow node", pointerOf(ownerPath, id), "timeCycle", "timer start event requires a time cycle")
	}
	return r.createFlowNode(ownerPath, elementType, id, name, "")
}

// CreateTimerStartEvent creates a start event, which is triggered according to a CRON expression.
func (r *Registry) CreateTimerStartEvent(ownerPath string, id string, name string, timeCycle string) (*FlowNode, error) {
	if !gronx.IsValid(timeCycle) {
		return nil, newError(ErrorInvalidAttribute, "failed to create flow node", pointerOf(ownerPath, id), "timeCycle", fmt.Sprintf("time cycle %q is not a valid CRON expression", timeCycle))
	}
	return r.createFlowNode(ownerPath, ElementTimerStartEvent, id, name, timeCycle)
}

// CreateSequenceFlow creates a sequence flow between two flow nodes, which must already exist within the same process.
func (r *Registry) CreateSequenceFlow(processId string, id string, sourceRef string, targetRef string) (*SequenceFlow, error) {
	process, err := r.process(ElementSequenceFlow, processId, id)
	if err != nil {
		return nil, err
	}
	if err := r.checkLocalId(ElementSequenceFlow, processId, id); err != nil {
		return nil, err
	}

	pointer := pointerOf(processId, id)
	if err := r.checkFlowNodeRef(processId, pointer, "sourceRef", sourceRef); err != nil {
		return nil, err
	}
	if err := r.checkFlowNodeRef(processId, pointer, "targetRef", targetRef); err != nil {
		return nil, err
	}

	sequenceFlow := SequenceFlow{SourceRef: sourceRef, TargetRef: targetRef}
	sequenceFlow.Id = id

	r.flowElements[processId][id] = &sequenceFlow
	process.flowElements = append(process.flowElements, &sequenceFlow)
	return &sequenceFlow, nil
}

// AssignLane adds an existing flow node to the members of an existing lane of the same process.
func (r *Registry) AssignLane(processId string, laneId string, flowNodeId string) error {
	if err := r.checkFrozen(ElementLane); err != nil {
		return err
	}

	process, err := r.process(ElementLane, processId, laneId)
	if err != nil {
		return err
	}

	lane := process.laneById(laneId)
	if lane == nil {
		return newError(ErrorInvalidAttribute, "failed to assign lane", pointerOf(processId, flowNodeId), "owner", fmt.Sprintf("lane %q does not exist in process %q", laneId, processId))
	}
	if err := r.checkFlowNodeRef(processId, pointerOf(processId, laneId), "flowNodeRef", flowNodeId); err != nil {
		return err
	}
	for _, flowNodeRef := range lane.flowNodeRefs {
		if flowNodeRef == flowNodeId {
			return newError(ErrorDuplicateId, "failed to assign lane", pointerOf(processId, laneId), "flowNodeRef", fmt.Sprintf("flow node %q is already member of lane %q", flowNodeId, laneId))
		}
	}

	lane.flowNodeRefs = append(lane.flowNodeRefs, flowNodeId)
	return nil
}

func (r *Registry) createFlowNode(ownerPath string, elementType ElementType, id string, name string, timeCycle string) (*FlowNode, error) {
	processId, laneId, _ := strings.Cut(ownerPath, "/")

	process, err := r.process(elementType, processId, id)
	if err != nil {
		return nil, err
	}
	if err := r.checkLocalId(elementType, processId, id); err != nil {
		return nil, err
	}

	var lane *Lane
	if laneId != "" {
		if lane = process.laneById(laneId); lane == nil {
			return nil, newError(ErrorInvalidAttribute, "failed to create flow node", pointerOf(processId, id), "owner", fmt.Sprintf("lane %q does not exist in process %q", laneId, processId))
		}
	}

	flowNode := FlowNode{TimeCycle: timeCycle, elementType: elementType}
	flowNode.Id = id
	flowNode.Name = name

	r.flowElements[processId][id] = &flowNode
	process.flowElements = append(process.flowElements, &flowNode)

	if lane != nil {
		lane.flowNodeRefs = append(lane.flowNodeRefs, id)
	}
	return &flowNode, nil
}

func (r *Registry) checkFlowNodeRef(processId string, pointer string, attribute string, ref string) error {
	if ref == "" {
		return newError(ErrorInvalidAttribute, "failed to resolve reference", pointer, attribute, fmt.Sprintf("%s is required", attribute))
	}

	flowElement, ok := r.flowElements[processId][ref]
	if !ok {
		return newError(ErrorInvalidAttribute, "failed to resolve reference", pointer, attribute, fmt.Sprintf("flow node %q does not exist in process %q", ref, processId))
	}
	if _, ok := flowElement.(*FlowNode); !ok {
		return newError(ErrorInvalidAttribute, "failed to resolve reference", pointer, attribute, fmt.Sprintf("element %q is not a flow node", ref))
	}
	return nil
}

func (r *Registry) checkFrozen(elementType ElementType) error {
	if r.frozen {
		return Error{
			Type:   ErrorInvalidAttribute,
			Title:  fmt.Sprintf("failed to create %s", elementType),
			Detail: "registry is frozen",
		}
	}
	return nil
}

func (r *Registry) checkGlobalId(elementType ElementType, id string) error {
	if err := r.checkFrozen(elementType); err != nil {
		return err
	}
	if err := checkId(elementType, "", id); err != nil {
		return err
	}
	if existing, ok := r.elements[id]; ok {
		return newError(ErrorDuplicateId, fmt.Sprintf("failed to create %s", elementType), id, "id", fmt.Sprintf("ID %q is already used by %s", id, existing.Type()))
	}
	return nil
}

func (r *Registry) checkLocalId(elementType ElementType, processId string, id string) error {
	if err := r.checkFrozen(elementType); err != nil {
		return err
	}
	if err := checkId(elementType, processId, id); err != nil {
		return err
	}
	if existing, ok := r.flowElements[processId][id]; ok {
		return newError(ErrorDuplicateId, fmt.Sprintf("failed to create %s", elementType), pointerOf(processId, id), "id", fmt.Sprintf("ID %q is already used by %s in process %q", id, existing.Type(), processId))
	}
	return nil
}

func (r *Registry) process(elementType ElementType, processId string, id string) (*Process, error) {
	process, ok := r.elements[processId].(*Process)
	if !ok {
		return nil, newError(ErrorInvalidAttribute, fmt.Sprintf("failed to create %s", elementType), pointerOf(processId, id), "owner", fmt.Sprintf("process %q does not exist", processId))
	}
	return process, nil
}

func checkId(elementType ElementType, scope string, id string) error {
	if id == "" {
		return newError(ErrorInvalidAttribute, fmt.Sprintf("failed to create %s", elementType), scope, "id", "ID is required")
	}
	if !RegexpId.MatchString(id) {
		return newError(ErrorInvalidAttribute, fmt.Sprintf("failed to create %s", elementType), pointerOf(scope, id), "id", fmt.Sprintf("ID %q is malformed", id))
	}
	return nil
}
