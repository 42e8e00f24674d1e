package model

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var flowNodeTypes = []string{
	"BUSINESS_RULE_TASK",
	"END_EVENT",
	"EXCLUSIVE_GATEWAY",
	"INCLUSIVE_GATEWAY",
	"INTERMEDIATE_THROW_EVENT",
	"MANUAL_TASK",
	"PARALLEL_GATEWAY",
	"SCRIPT_TASK",
	"SEND_TASK",
	"SERVICE_TASK",
	"START_EVENT",
	"TASK",
	"USER_TASK",
}

// drawDescription draws a valid description of a single process with lanes, flow nodes and sequence flows.
func drawDescription(t *rapid.T) Description {
	name := rapid.StringMatching(`[a-zA-Z0-9 &<>"']{0,12}`)

	description := Description{
		TargetNamespace: "http://example.com/bpmn",
		Processes: []ProcessSpec{{
			Id:           "process",
			Name:         name.Draw(t, "processName"),
			IsExecutable: rapid.Bool().Draw(t, "isExecutable"),
		}},
	}

	laneCount := rapid.IntRange(0, 3).Draw(t, "laneCount")
	for i := 0; i < laneCount; i++ {
		description.Processes[0].Lanes = append(description.Processes[0].Lanes, LaneSpec{
			Id:   fmt.Sprintf("lane%d", i),
			Name: name.Draw(t, "laneName"),
		})
	}

	nodeCount := rapid.IntRange(1, 20).Draw(t, "nodeCount")
	for i := 0; i < nodeCount; i++ {
		node := NodeSpec{
			Type: rapid.SampledFrom(flowNodeTypes).Draw(t, "type"),
			Id:   fmt.Sprintf("node%d", i),
			Name: name.Draw(t, "nodeName"),
		}
		if laneCount != 0 {
			if lane := rapid.IntRange(-1, laneCount-1).Draw(t, "lane"); lane != -1 {
				node.Owner = fmt.Sprintf("process/lane%d", lane)
			}
		}
		description.Nodes = append(description.Nodes, node)
	}

	edgeCount := rapid.IntRange(0, 30).Draw(t, "edgeCount")
	for i := 0; i < edgeCount; i++ {
		description.Edges = append(description.Edges, EdgeSpec{
			Id:     fmt.Sprintf("flow%d", i),
			Name:   name.Draw(t, "edgeName"),
			Source: fmt.Sprintf("node%d", rapid.IntRange(0, nodeCount-1).Draw(t, "source")),
			Target: fmt.Sprintf("node%d", rapid.IntRange(0, nodeCount-1).Draw(t, "target")),
		})
	}

	return description
}

func TestProperties(t *testing.T) {
	t.Run("parse after marshal returns an equal model", rapid.MakeCheck(func(t *rapid.T) {
		definitions, err := Build(drawDescription(t))
		if err != nil {
			t.Fatalf("failed to build model: %v", err)
		}

		b, err := Marshal(definitions)
		if err != nil {
			t.Fatalf("failed to marshal model: %v", err)
		}

		parsed, err := Parse(strings.NewReader(string(b)))
		if err != nil {
			t.Fatalf("failed to parse model: %v", err)
		}

		b2, err := Marshal(parsed)
		if err != nil {
			t.Fatalf("failed to marshal parsed model: %v", err)
		}
		if string(b) != string(b2) {
			t.Fatalf("expected equal output, but got:\n%s\n%s", b, b2)
		}
	}))

	t.Run("flow elements are serialized in insertion order", rapid.MakeCheck(func(t *rapid.T) {
		description := drawDescription(t)

		definitions, err := Build(description)
		if err != nil {
			t.Fatalf("failed to build model: %v", err)
		}

		b, err := Marshal(definitions)
		if err != nil {
			t.Fatalf("failed to marshal model: %v", err)
		}

		bpmnXml := string(b)

		var ids []string
		for _, node := range description.Nodes {
			ids = append(ids, node.Id)
		}
		for _, edge := range description.Edges {
			ids = append(ids, edge.Id)
		}

		offset := strings.Index(bpmnXml, "</bpmn:laneSet>") // skip lanes, containing flow node refs
		for _, id := range ids {
			i := strings.Index(bpmnXml[offset+1:], `id="`+id+`"`)
			if i == -1 {
				t.Fatalf("expected %s to be serialized after offset %d", id, offset)
			}
			offset += i + 1
		}
	}))

	t.Run("every ID occurs exactly once", rapid.MakeCheck(func(t *rapid.T) {
		description := drawDescription(t)

		definitions, err := Build(description)
		if err != nil {
			t.Fatalf("failed to build model: %v", err)
		}

		b, err := Marshal(definitions)
		if err != nil {
			t.Fatalf("failed to marshal model: %v", err)
		}

		bpmnXml := string(b)
		for _, node := range description.Nodes {
			if n := strings.Count(bpmnXml, `id="`+node.Id+`"`); n != 1 {
				t.Fatalf("expected ID %s to occur once, but was %d", node.Id, n)
			}
		}
	}))

	t.Run("dangling reference is rejected", rapid.MakeCheck(func(t *rapid.T) {
		description := drawDescription(t)
		description.Edges = append(description.Edges, EdgeSpec{
			Id:     "danglingFlow",
			Source: "node0",
			Target: fmt.Sprintf("node%d", len(description.Nodes)+rapid.IntRange(0, 10).Draw(t, "target")),
		})

		definitions, err := Build(description)
		if definitions != nil {
			t.Fatalf("expected no definitions")
		}
		if !IsErrorType(err, ErrorInvalidAttribute) {
			t.Fatalf("expected invalid attribute error, but got %v", err)
		}
	}))
}
