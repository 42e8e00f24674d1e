package model

import "slices"

// Element is implemented by all model elements. The set of implementations is closed.
type Element interface {
	// Type returns the element's variant.
	Type() ElementType

	base() *BaseElement
}

// RootElement is a top-level element, owned by the definitions: a process or a collaboration.
type RootElement interface {
	Element
	rootElement()
}

// FlowElement is an element, owned by a process: a flow node or a sequence flow.
type FlowElement interface {
	Element
	flowElement()
}

// BaseElement contains the attributes, all elements have in common.
type BaseElement struct {
	Id   string
	Name string
}

func (e *BaseElement) base() *BaseElement {
	return e
}

// IdOf returns the ID of an element.
func IdOf(e Element) string {
	return e.base().Id
}

// NameOf returns the name of an element.
func NameOf(e Element) string {
	return e.base().Name
}

// Definitions is the root of a model.
type Definitions struct {
	BaseElement
	TargetNamespace string

	rootElements []RootElement
}

func (d *Definitions) Type() ElementType {
	return ElementDefinitions
}

// RootElements returns processes and collaborations in insertion order.
func (d *Definitions) RootElements() []RootElement {
	return slices.Clone(d.rootElements)
}

// Processes returns all processes in insertion order.
func (d *Definitions) Processes() []*Process {
	var processes []*Process
	for _, rootElement := range d.rootElements {
		if process, ok := rootElement.(*Process); ok {
			processes = append(processes, process)
		}
	}
	return processes
}

// Collaborations returns all collaborations in insertion order.
func (d *Definitions) Collaborations() []*Collaboration {
	var collaborations []*Collaboration
	for _, rootElement := range d.rootElements {
		if collaboration, ok := rootElement.(*Collaboration); ok {
			collaborations = append(collaborations, collaboration)
		}
	}
	return collaborations
}

// ProcessById returns the process with the given ID, or nil, if no such process exists.
func (d *Definitions) ProcessById(id string) *Process {
	for _, process := range d.Processes() {
		if process.Id == id {
			return process
		}
	}
	return nil
}

type Process struct {
	BaseElement
	IsExecutable bool

	laneSets     []*LaneSet
	flowElements []FlowElement
}

func (p *Process) Type() ElementType {
	return ElementProcess
}

func (p *Process) LaneSets() []*LaneSet {
	return slices.Clone(p.laneSets)
}

// FlowElements returns flow nodes and sequence flows in insertion order.
func (p *Process) FlowElements() []FlowElement {
	return slices.Clone(p.flowElements)
}

// FlowElementById returns the flow node or sequence flow with the given ID, or nil, if no such element exists.
func (p *Process) FlowElementById(id string) FlowElement {
	for _, flowElement := range p.flowElements {
		if IdOf(flowElement) == id {
			return flowElement
		}
	}
	return nil
}

func (p *Process) FlowNodes() []*FlowNode {
	var flowNodes []*FlowNode
	for _, flowElement := range p.flowElements {
		if flowNode, ok := flowElement.(*FlowNode); ok {
			flowNodes = append(flowNodes, flowNode)
		}
	}
	return flowNodes
}

func (p *Process) SequenceFlows() []*SequenceFlow {
	var sequenceFlows []*SequenceFlow
	for _, flowElement := range p.flowElements {
		if sequenceFlow, ok := flowElement.(*SequenceFlow); ok {
			sequenceFlows = append(sequenceFlows, sequenceFlow)
		}
	}
	return sequenceFlows
}

// Lanes returns the lanes of all lane sets.
func (p *Process) Lanes() []*Lane {
	var lanes []*Lane
	for _, laneSet := range p.laneSets {
		lanes = append(lanes, laneSet.lanes...)
	}
	return lanes
}

func (p *Process) laneById(id string) *Lane {
	for _, lane := range p.Lanes() {
		if lane.Id == id {
			return lane
		}
	}
	return nil
}

func (p *Process) rootElement() {}

type Collaboration struct {
	BaseElement

	participants []*Participant
}

func (c *Collaboration) Type() ElementType {
	return ElementCollaboration
}

func (c *Collaboration) Participants() []*Participant {
	return slices.Clone(c.participants)
}

func (c *Collaboration) rootElement() {}

// Participant represents a pool. It references, but does not own, a process.
type Participant struct {
	BaseElement
	ProcessRef string // ID of the referenced process.
}

func (p *Participant) Type() ElementType {
	return ElementParticipant
}

type LaneSet struct {
	BaseElement

	lanes []*Lane
}

func (s *LaneSet) Type() ElementType {
	return ElementLaneSet
}

func (s *LaneSet) Lanes() []*Lane {
	return slices.Clone(s.lanes)
}

type Lane struct {
	BaseElement

	flowNodeRefs []string
}

func (l *Lane) Type() ElementType {
	return ElementLane
}

// FlowNodeRefs returns the IDs of the lane's member flow nodes in insertion order.
func (l *Lane) FlowNodeRefs() []string {
	return slices.Clone(l.flowNodeRefs)
}

// FlowNode is an event, a task or a gateway.
type FlowNode struct {
	BaseElement
	TimeCycle string // CRON expression - only set for timer start events.

	elementType ElementType
}

func (n *FlowNode) Type() ElementType {
	return n.elementType
}

func (n *FlowNode) flowElement() {}

// SequenceFlow connects two flow nodes of the same process.
type SequenceFlow struct {
	BaseElement
	SourceRef string // ID of the source flow node.
	TargetRef string // ID of the target flow node.
}

func (f *SequenceFlow) Type() ElementType {
	return ElementSequenceFlow
}

func (f *SequenceFlow) flowElement() {}
