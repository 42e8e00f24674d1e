package model

import "fmt"

// Build builds a model from a description. Elements are created in a fixed order:
//
//  1. definitions
//  2. processes
//  3. collaboration and participants
//  4. lane sets and lanes
//  5. flow nodes, in the order of the description
//  6. sequence flows, in the order of the description
//
// Since sequence flows are created after all flow nodes, every source and target reference can be resolved immediately.
// The first error aborts the build. In this case no definitions are returned.
func Build(description Description) (*Definitions, error) {
	if err := description.Validate(); err != nil {
		return nil, err
	}

	r, err := NewRegistry(description.Id, description.TargetNamespace)
	if err != nil {
		return nil, err
	}

	for _, process := range description.Processes {
		if _, err := r.CreateProcess(process.Id, process.Name, process.IsExecutable); err != nil {
			return nil, err
		}
	}

	if collaboration := description.Collaboration; collaboration != nil {
		if _, err := r.CreateCollaboration(collaboration.Id); err != nil {
			return nil, err
		}
		for _, participant := range collaboration.Participants {
			if _, err := r.CreateParticipant(collaboration.Id, participant.Id, participant.Name, participant.ProcessRef); err != nil {
				return nil, err
			}
		}
	}

	for _, process := range description.Processes {
		if len(process.Lanes) == 0 {
			continue
		}
		if _, err := r.CreateLaneSet(process.Id, process.LaneSetId); err != nil {
			return nil, err
		}
		for _, lane := range process.Lanes {
			if _, err := r.CreateLane(process.Id, lane.Id, lane.Name); err != nil {
				return nil, err
			}
		}
	}

	defaultOwner := ""
	if len(description.Processes) == 1 {
		defaultOwner = description.Processes[0].Id
	}

	for i, node := range description.Nodes {
		pointer := fmt.Sprintf("nodes[%d]", i)

		elementType := MapElementType(node.Type)
		if !elementType.IsFlowNode() {
			return nil, newError(ErrorUnknownType, "failed to create flow node", pointer, "type", fmt.Sprintf("type %q is not a known flow node type", node.Type))
		}
		if node.TimeCycle != "" {
			if !elementType.IsStartEvent() {
				return nil, newError(ErrorInvalidAttribute, "failed to create flow node", pointer, "timeCycle", fmt.Sprintf("time cycle is not supported by %s %q", elementType, node.Id))
			}
			elementType = ElementTimerStartEvent
		}

		owner := node.Owner
		if owner == "" {
			if defaultOwner == "" {
				return nil, newError(ErrorInvalidAttribute, "failed to create flow node", pointer, "owner", "owner is required, when more than one process is described")
			}
			owner = defaultOwner
		}

		if elementType == ElementTimerStartEvent {
			_, err = r.CreateTimerStartEvent(owner, node.Id, node.Name, node.TimeCycle)
		} else {
			_, err = r.CreateFlowNode(owner, elementType, node.Id, node.Name)
		}
		if err != nil {
			return nil, err
		}
	}

	for i, edge := range description.Edges {
		owner := edge.Owner
		if owner == "" {
			if defaultOwner == "" {
				return nil, newError(ErrorInvalidAttribute, "failed to create sequence flow", fmt.Sprintf("edges[%d]", i), "owner", "owner is required, when more than one process is described")
			}
			owner = defaultOwner
		}

		sequenceFlow, err := r.CreateSequenceFlow(owner, edge.Id, edge.Source, edge.Target)
		if err != nil {
			return nil, err
		}
		sequenceFlow.Name = edge.Name
	}

	return r.Definitions(), nil
}
