package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
	"github.com/spf13/cobra"
)

const defaultDocumentName = "process.bpmn"

func newBuildCmd(cli *Cli) *cobra.Command {
	var (
		descriptionFileName string
		outputFileName      string
		outputDir           string
		warningsEnabled     bool

		name = documentNameValue(defaultDocumentName)
	)

	c := cobra.Command{
		Use:   "build",
		Short: "Build a BPMN model from a YAML or JSON description",
		Long: `Build a BPMN model from a YAML or JSON description.

The BPMN XML is written to the output file, to a document within the output directory or to stdout.
Flow nodes, which are not reachable from a start event, are reported as warnings.`,
		Example: `  bpmn-model build --description pizza-order.yaml --output pizza-order.bpmn
  cat pizza-order.yaml | bpmn-model build --description - --output-dir ./bpmn --name pizza-order.bpmn`,
		RunE: func(c *cobra.Command, _ []string) error {
			description, err := readDescription(c, descriptionFileName)
			if err != nil {
				return err
			}

			definitions, err := model.Build(description)
			if err != nil {
				return err
			}

			bpmnXml, err := model.Marshal(definitions)
			if err != nil {
				return err
			}

			if warningsEnabled {
				printWarnings(c, model.CheckReachability(definitions))
			}

			var (
				s            *sink.File
				documentName string
			)

			switch {
			case outputFileName != "":
				s = sink.NewFile(filepath.Dir(outputFileName))
				documentName = filepath.Base(outputFileName)
			case outputDir != "":
				s = sink.NewFile(outputDir)
				documentName = name.String()
			default:
				c.Print(string(bpmnXml))
				return nil
			}

			if err := s.Write(context.Background(), documentName, string(bpmnXml)); err != nil {
				return err
			}

			c.Println(filepath.Join(s.Dir(), documentName))
			return nil
		},
	}

	c.Flags().StringVar(&descriptionFileName, "description", "", "Path to a YAML or JSON description or - to read from stdin")
	c.Flags().StringVar(&outputFileName, "output", "", "Path to the BPMN file to write")
	c.Flags().StringVar(&outputDir, "output-dir", "", "Directory to write the BPMN document into")
	c.Flags().Var(&name, "name", "Name of the BPMN document, written into the output directory")
	c.Flags().BoolVar(&warningsEnabled, "warnings", true, "Report flow nodes, which are not reachable")

	c.Flags().SetAnnotation("output-dir", envLookupAllowed, nil)
	c.Flags().SetAnnotation("warnings", envLookupAllowed, nil)

	c.MarkFlagRequired("description")
	c.MarkFlagsMutuallyExclusive("output", "output-dir")

	return &c
}

func newValidateCmd(cli *Cli) *cobra.Command {
	var (
		descriptionFileName string
		bpmnFileName        string
		strict              bool
	)

	c := cobra.Command{
		Use:   "validate",
		Short: "Validate a description or a BPMN file",
		Long: `Validate a description or a BPMN file.

A description is built, a BPMN file is parsed. For each process, the number of flow nodes,
sequence flows and lanes is listed. Reachability warnings are written to stderr.`,
		RunE: func(c *cobra.Command, _ []string) error {
			var (
				definitions *model.Definitions
				err         error
			)

			if descriptionFileName != "" {
				var description model.Description
				description, err = readDescription(c, descriptionFileName)
				if err != nil {
					return err
				}

				definitions, err = model.Build(description)
			} else {
				var bpmnXml string
				bpmnXml, err = readBpmnXml(c, bpmnFileName)
				if err != nil {
					return err
				}

				definitions, err = model.Parse(strings.NewReader(bpmnXml))
			}

			if err != nil {
				return err
			}

			table := newTable([]string{
				"PROCESS",
				"NAME",
				"EXECUTABLE",
				"FLOW NODES",
				"SEQUENCE FLOWS",
				"LANES",
			})

			for _, process := range definitions.Processes() {
				table.addRow([]string{
					process.Id,
					process.Name,
					strconv.FormatBool(process.IsExecutable),
					strconv.Itoa(len(process.FlowNodes())),
					strconv.Itoa(len(process.SequenceFlows())),
					strconv.Itoa(len(process.Lanes())),
				})
			}

			c.Print(table.format())

			warnings := model.CheckReachability(definitions)
			printWarnings(c, warnings)

			if strict && len(warnings) != 0 {
				return fmt.Errorf("model has %d warning(s)", len(warnings))
			}
			return nil
		},
	}

	c.Flags().StringVar(&descriptionFileName, "description", "", "Path to a YAML or JSON description or - to read from stdin")
	c.Flags().StringVar(&bpmnFileName, "bpmn-file", "", "Path to a BPMN file or - to read from stdin")
	c.Flags().BoolVar(&strict, "strict", false, "Fail, if warnings are reported")

	c.Flags().SetAnnotation("strict", envLookupAllowed, nil)

	c.MarkFlagsOneRequired("description", "bpmn-file")
	c.MarkFlagsMutuallyExclusive("description", "bpmn-file")

	return &c
}
