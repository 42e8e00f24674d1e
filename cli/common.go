package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/spf13/cobra"
)

// open opens the named file or, if the name is "-", the command's standard input.
func open(c *cobra.Command, fileName string) (io.ReadCloser, error) {
	if fileName == stdin {
		return io.NopCloser(c.InOrStdin()), nil
	}

	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %v", fileName, err)
	}
	return f, nil
}

func readBpmnXml(c *cobra.Command, bpmnFileName string) (string, error) {
	bpmnFile, err := open(c, bpmnFileName)
	if err != nil {
		return "", err
	}

	defer bpmnFile.Close()

	b, err := io.ReadAll(bpmnFile)
	if err != nil {
		return "", fmt.Errorf("failed to read BPMN XML: %v", err)
	}

	return string(b), nil
}

func readDescription(c *cobra.Command, descriptionFileName string) (model.Description, error) {
	descriptionFile, err := open(c, descriptionFileName)
	if err != nil {
		return model.Description{}, err
	}

	defer descriptionFile.Close()

	return model.ReadDescription(descriptionFile)
}

func printWarnings(c *cobra.Command, warnings []model.Warning) {
	for _, warning := range warnings {
		c.PrintErrln("warning: " + warning.String())
	}
}
