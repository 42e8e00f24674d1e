package model

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

const (
	NamespaceBpmn = "http://www.omg.org/spec/BPMN/20100524/MODEL" // BPMN 2.0 model namespace.
	PrefixBpmn    = "bpmn"                                        // Prefix, the BPMN namespace is bound to.
)

// Marshal serializes a model as BPMN 2.0 XML.
//
// Child elements are written in insertion order and attributes in a fixed order per element type,
// so that the output is byte-identical for the same model.
// References are written as ID attributes (sourceRef, targetRef, processRef) or flowNodeRef elements.
func Marshal(definitions *Definitions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, definitions); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode serializes a model and writes it to w. Before anything is written, the model is checked for duplicate IDs and
// unresolved references, since it could have been modified after it was built.
func Encode(w io.Writer, definitions *Definitions) error {
	if definitions == nil {
		return Error{Type: ErrorInvalidAttribute, Title: "failed to serialize model", Detail: "definitions are nil"}
	}
	if err := checkDefinitions(definitions); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	e := encoder{xml.NewEncoder(&buf), nil}
	e.Indent("", "  ")

	e.encodeDefinitions(definitions)

	if e.err == nil {
		e.err = e.Close()
	}
	if e.err != nil {
		return fmt.Errorf("failed to encode XML: %v", e.err)
	}

	buf.WriteRune('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

type encoder struct {
	*xml.Encoder
	err error // first error, subsequent tokens are dropped
}

func (e *encoder) encodeDefinitions(definitions *Definitions) {
	e.start(ElementDefinitions,
		xml.Attr{Name: xml.Name{Local: "xmlns:" + PrefixBpmn}, Value: NamespaceBpmn},
		attr("id", definitions.Id),
		attr("name", definitions.Name),
		attr("targetNamespace", definitions.TargetNamespace),
	)

	for _, rootElement := range definitions.rootElements {
		switch rootElement := rootElement.(type) {
		case *Process:
			e.encodeProcess(rootElement)
		case *Collaboration:
			e.encodeCollaboration(rootElement)
		}
	}

	e.end(ElementDefinitions)
}

func (e *encoder) encodeProcess(process *Process) {
	var isExecutable string
	if process.IsExecutable {
		isExecutable = strconv.FormatBool(true)
	}

	e.start(ElementProcess,
		attr("id", process.Id),
		attr("name", process.Name),
		attr("isExecutable", isExecutable),
	)

	for _, laneSet := range process.laneSets {
		e.start(ElementLaneSet, attr("id", laneSet.Id))
		for _, lane := range laneSet.lanes {
			e.start(ElementLane, attr("id", lane.Id), attr("name", lane.Name))
			for _, flowNodeRef := range lane.flowNodeRefs {
				e.text("flowNodeRef", flowNodeRef)
			}
			e.end(ElementLane)
		}
		e.end(ElementLaneSet)
	}

	for _, flowElement := range process.flowElements {
		switch flowElement := flowElement.(type) {
		case *FlowNode:
			e.start(flowElement.elementType, attr("id", flowElement.Id), attr("name", flowElement.Name))
			if flowElement.elementType == ElementTimerStartEvent {
				e.encodeToken(xml.StartElement{Name: qualified("timerEventDefinition")})
				e.text("timeCycle", flowElement.TimeCycle)
				e.encodeToken(xml.EndElement{Name: qualified("timerEventDefinition")})
			}
			e.end(flowElement.elementType)
		case *SequenceFlow:
			e.start(ElementSequenceFlow,
				attr("id", flowElement.Id),
				attr("name", flowElement.Name),
				attr("sourceRef", flowElement.SourceRef),
				attr("targetRef", flowElement.TargetRef),
			)
			e.end(ElementSequenceFlow)
		}
	}

	e.end(ElementProcess)
}

func (e *encoder) encodeCollaboration(collaboration *Collaboration) {
	e.start(ElementCollaboration, attr("id", collaboration.Id), attr("name", collaboration.Name))
	for _, participant := range collaboration.participants {
		e.start(ElementParticipant,
			attr("id", participant.Id),
			attr("name", participant.Name),
			attr("processRef", participant.ProcessRef),
		)
		e.end(ElementParticipant)
	}
	e.end(ElementCollaboration)
}

func (e *encoder) start(elementType ElementType, attrs ...xml.Attr) {
	var nonEmpty []xml.Attr
	for _, attr := range attrs {
		if attr.Value != "" {
			nonEmpty = append(nonEmpty, attr)
		}
	}
	e.encodeToken(xml.StartElement{Name: qualified(elementType.localName()), Attr: nonEmpty})
}

func (e *encoder) end(elementType ElementType) {
	e.encodeToken(xml.EndElement{Name: qualified(elementType.localName())})
}

// text encodes an element with character data only.
func (e *encoder) text(localName string, value string) {
	e.encodeToken(xml.StartElement{Name: qualified(localName)})
	e.encodeToken(xml.CharData(value))
	e.encodeToken(xml.EndElement{Name: qualified(localName)})
}

func (e *encoder) encodeToken(token xml.Token) {
	if e.err != nil {
		return
	}
	e.err = e.EncodeToken(token)
}

func attr(name string, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// qualified returns a name, prefixed with the BPMN prefix.
// The prefix is part of the local name, since the encoder would otherwise declare the namespace on every element.
func qualified(localName string) xml.Name {
	return xml.Name{Local: PrefixBpmn + ":" + localName}
}

// checkDefinitions checks ID uniqueness and that all references can be resolved within the same definitions.
func checkDefinitions(definitions *Definitions) error {
	const title = "failed to serialize model"

	global := make(map[string]Element)
	if definitions.Id != "" {
		global[definitions.Id] = definitions
	}

	addGlobal := func(element Element, pointer string) error {
		id := IdOf(element)
		if id == "" {
			return newError(ErrorInvalidAttribute, title, pointer, "id", fmt.Sprintf("%s has no ID", element.Type()))
		}
		if existing, ok := global[id]; ok {
			return newError(ErrorDuplicateId, title, pointer, "id", fmt.Sprintf("ID %q is used by %s and %s", id, existing.Type(), element.Type()))
		}
		global[id] = element
		return nil
	}

	for _, rootElement := range definitions.rootElements {
		if err := addGlobal(rootElement, IdOf(rootElement)); err != nil {
			return err
		}
	}

	for _, process := range definitions.Processes() {
		for _, laneSet := range process.laneSets {
			if laneSet.Id != "" {
				if err := addGlobal(laneSet, pointerOf(process.Id, laneSet.Id)); err != nil {
					return err
				}
			}
			for _, lane := range laneSet.lanes {
				if err := addGlobal(lane, pointerOf(process.Id, lane.Id)); err != nil {
					return err
				}
			}
		}

		local := make(map[string]FlowElement, len(process.flowElements))
		for _, flowElement := range process.flowElements {
			id := IdOf(flowElement)
			pointer := pointerOf(process.Id, id)
			if id == "" {
				return newError(ErrorInvalidAttribute, title, pointer, "id", fmt.Sprintf("%s has no ID", flowElement.Type()))
			}
			if existing, ok := local[id]; ok {
				return newError(ErrorDuplicateId, title, pointer, "id", fmt.Sprintf("ID %q is used by %s and %s", id, existing.Type(), flowElement.Type()))
			}
			local[id] = flowElement
		}

		resolve := func(pointer string, attribute string, ref string) error {
			if _, ok := local[ref].(*FlowNode); !ok {
				return newError(ErrorUnresolvedReference, title, pointer, attribute, fmt.Sprintf("flow node %q does not exist in process %q", ref, process.Id))
			}
			return nil
		}

		for _, sequenceFlow := range process.SequenceFlows() {
			pointer := pointerOf(process.Id, sequenceFlow.Id)
			if err := resolve(pointer, "sourceRef", sequenceFlow.SourceRef); err != nil {
				return err
			}
			if err := resolve(pointer, "targetRef", sequenceFlow.TargetRef); err != nil {
				return err
			}
		}
		for _, lane := range process.Lanes() {
			for _, flowNodeRef := range lane.flowNodeRefs {
				if err := resolve(pointerOf(process.Id, lane.Id), "flowNodeRef", flowNodeRef); err != nil {
					return err
				}
			}
		}
	}

	for _, collaboration := range definitions.Collaborations() {
		for _, participant := range collaboration.participants {
			pointer := pointerOf(collaboration.Id, participant.Id)
			if err := addGlobal(participant, pointer); err != nil {
				return err
			}
			if _, ok := global[participant.ProcessRef].(*Process); !ok {
				return newError(ErrorUnresolvedReference, title, pointer, "processRef", fmt.Sprintf("process %q does not exist", participant.ProcessRef))
			}
		}
	}

	return nil
}
