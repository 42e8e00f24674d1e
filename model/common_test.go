package model

import (
	"os"
	"testing"
)

func mustBuild(t *testing.T, description Description) *Definitions {
	definitions, err := Build(description)
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}
	return definitions
}

func mustMarshal(t *testing.T, definitions *Definitions) string {
	b, err := Marshal(definitions)
	if err != nil {
		t.Fatalf("failed to marshal model: %v", err)
	}
	return string(b)
}

func mustParse(t *testing.T, fileName string) *Definitions {
	fileName = "./testdata/" + fileName

	bpmnFile, err := os.Open(fileName)
	if err != nil {
		t.Fatalf("failed to open BPMN file %s: %v", fileName, err)
	}

	defer bpmnFile.Close()

	definitions, err := Parse(bpmnFile)
	if err != nil {
		t.Fatalf("failed to parse BPMN XML: %v", err)
	}

	return definitions
}

func mustReadDescription(t *testing.T, fileName string) Description {
	fileName = "./testdata/" + fileName

	descriptionFile, err := os.Open(fileName)
	if err != nil {
		t.Fatalf("failed to open description file %s: %v", fileName, err)
	}

	defer descriptionFile.Close()

	description, err := ReadDescription(descriptionFile)
	if err != nil {
		t.Fatalf("failed to read description: %v", err)
	}

	return description
}

func mustReadFile(t *testing.T, fileName string) string {
	b, err := os.ReadFile("./testdata/" + fileName)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", fileName, err)
	}
	return string(b)
}

func flowElementIds(process *Process) []string {
	var ids []string
	for _, flowElement := range process.FlowElements() {
		ids = append(ids, IdOf(flowElement))
	}
	return ids
}
