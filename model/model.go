package model

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Parse parses BPMN 2.0 XML into a model. Elements are matched by namespace, so any prefix can be used.
//
// All elements are created via a [Registry], so a parsed model satisfies the same constraints as a built one.
// Unsupported elements (e.g. BPMN DI, incoming, outgoing or documentation) are skipped.
// Sequence flows, which reference a flow node that is defined later, are created at the end of the process.
// Lane memberships are assigned at the end of the process, participants at the end of the definitions.
func Parse(bpmnXmlReader io.Reader) (*Definitions, error) {
	var (
		r *Registry

		processId       string
		collaborationId string

		pendingFlows        []pendingFlow
		pendingLaneRefs     []pendingLaneRef
		pendingParticipants []pendingParticipant

		laneId string
	)

	decoder := xml.NewDecoder(bpmnXmlReader)

	count := 0
	for {
		token, err := decoder.Token()
		if token == nil || err == io.EOF {
			if count == 0 {
				return nil, errors.New("XML is empty")
			}
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode XML: %v", err)
		}

		count++

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Space != NamespaceBpmn {
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("failed to decode XML: %v", err)
				}
				continue
			}

			if r == nil && t.Name.Local != "definitions" {
				return nil, errors.New("no definitions found")
			}

			id := getAttrValue(t.Attr, "id")
			name := getAttrValue(t.Attr, "name")

			switch t.Name.Local {
			case "collaboration":
				if _, err := r.CreateCollaboration(id); err != nil {
					return nil, err
				}
				collaborationId = id
			case "definitions":
				if r != nil {
					return nil, errors.New("nested definitions found")
				}
				r, err = NewRegistry(id, getAttrValue(t.Attr, "targetNamespace"))
				if err != nil {
					return nil, err
				}
				r.definitions.Name = name
			case "flowNodeRef":
				var flowNodeRef string
				if err := decoder.DecodeElement(&flowNodeRef, &t); err != nil {
					return nil, fmt.Errorf("failed to decode XML: %v", err)
				}
				if laneId != "" {
					pendingLaneRefs = append(pendingLaneRefs, pendingLaneRef{laneId: laneId, flowNodeId: flowNodeRef})
				}
			case "lane":
				if _, err := r.CreateLane(processId, id, name); err != nil {
					return nil, err
				}
				laneId = id
			case "laneSet":
				if _, err := r.CreateLaneSet(processId, getAttrValue(t.Attr, "id")); err != nil {
					return nil, err
				}
			case "participant":
				pendingParticipants = append(pendingParticipants, pendingParticipant{
					collaborationId: collaborationId,
					id:              id,
					name:            name,
					processRef:      getAttrValue(t.Attr, "processRef"),
				})
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("failed to decode XML: %v", err)
				}
			case "process":
				isExecutable, _ := strconv.ParseBool(getAttrValue(t.Attr, "isExecutable"))
				if _, err := r.CreateProcess(id, name, isExecutable); err != nil {
					return nil, err
				}
				processId = id
			case "sequenceFlow":
				flow := pendingFlow{
					id:        id,
					name:      name,
					sourceRef: getAttrValue(t.Attr, "sourceRef"),
					targetRef: getAttrValue(t.Attr, "targetRef"),
				}
				if r.FlowElementById(processId, flow.sourceRef) != nil && r.FlowElementById(processId, flow.targetRef) != nil {
					if err := flow.create(r, processId); err != nil {
						return nil, err
					}
				} else {
					pendingFlows = append(pendingFlows, flow)
				}
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("failed to decode XML: %v", err)
				}
			case "startEvent":
				var startEvent struct {
					TimerEventDefinition *struct {
						TimeCycle string `xml:"timeCycle"`
					} `xml:"timerEventDefinition"`
				}
				if err := decoder.DecodeElement(&startEvent, &t); err != nil {
					return nil, fmt.Errorf("failed to decode XML: %v", err)
				}

				if startEvent.TimerEventDefinition != nil && startEvent.TimerEventDefinition.TimeCycle != "" {
					_, err = r.CreateTimerStartEvent(processId, id, name, startEvent.TimerEventDefinition.TimeCycle)
				} else {
					_, err = r.CreateFlowNode(processId, ElementStartEvent, id, name)
				}
				if err != nil {
					return nil, err
				}
			default:
				elementType := MapElementType(t.Name.Local)
				if elementType.IsFlowNode() && processId != "" {
					if _, err := r.CreateFlowNode(processId, elementType, id, name); err != nil {
						return nil, err
					}
				}
				// skip unknown elements and all children of flow nodes
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("failed to decode XML: %v", err)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "collaboration":
				collaborationId = ""
			case "definitions":
				for _, participant := range pendingParticipants {
					if _, err := r.CreateParticipant(participant.collaborationId, participant.id, participant.name, participant.processRef); err != nil {
						return nil, err
					}
				}
				return r.Definitions(), nil
			case "lane":
				laneId = ""
			case "process":
				for _, flow := range pendingFlows {
					if err := flow.create(r, processId); err != nil {
						return nil, err
					}
				}
				for _, laneRef := range pendingLaneRefs {
					if err := r.AssignLane(processId, laneRef.laneId, laneRef.flowNodeId); err != nil {
						return nil, err
					}
				}

				pendingFlows = nil
				pendingLaneRefs = nil
				processId = ""
			}
		}
	}

	return nil, errors.New("no definitions found")
}

type pendingFlow struct {
	id        string
	name      string
	sourceRef string
	targetRef string
}

func (f pendingFlow) create(r *Registry, processId string) error {
	sequenceFlow, err := r.CreateSequenceFlow(processId, f.id, f.sourceRef, f.targetRef)
	if err != nil {
		return err
	}
	sequenceFlow.Name = f.name
	return nil
}

type pendingLaneRef struct {
	laneId     string
	flowNodeId string
}

type pendingParticipant struct {
	collaborationId string
	id              string
	name            string
	processRef      string
}

func getAttrValue(attributes []xml.Attr, name string) string {
	for i := range attributes {
		if attributes[i].Name.Local == name && attributes[i].Name.Space == "" {
			return attributes[i].Value
		}
	}
	return ""
}
