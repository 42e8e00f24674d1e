package cli

import (
	"bytes"
	"os"
	"testing"
)

const (
	testDescriptionFile = "../model/testdata/pizza-order.yaml"
	testBpmnFile        = "../model/testdata/pizza-order.bpmn"
	testModelerBpmnFile = "../model/testdata/modeler.bpmn"
)

// execute executes a command and returns what was written to stdout and stderr.
func execute(args []string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	rootCmd := newRootCmd(&Cli{version: "test-version"})
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustExecute(t *testing.T, args []string) (string, string) {
	stdout, stderr, err := execute(args)
	if err != nil {
		t.Fatalf("failed to execute %v: %v", args, err)
	}
	return stdout, stderr
}

func mustReadFile(t *testing.T, fileName string) string {
	b, err := os.ReadFile(fileName)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", fileName, err)
	}
	return string(b)
}
