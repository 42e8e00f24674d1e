package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
)

func newFormatCmd(cli *Cli) *cobra.Command {
	var (
		bpmnFileName string
		write        bool
	)

	c := cobra.Command{
		Use:   "format",
		Short: "Rewrite a BPMN file in canonical form",
		Long: `Rewrite a BPMN file in canonical form.

The file is parsed and serialized again. Unsupported elements, like diagram interchange, are dropped.`,
		RunE: func(c *cobra.Command, _ []string) error {
			bpmnXml, formatted, err := formatBpmnFile(c, bpmnFileName)
			if err != nil {
				return err
			}

			if !write {
				c.Print(formatted)
				return nil
			}

			if bpmnFileName == stdin {
				return fmt.Errorf("cannot write formatted BPMN XML, read from stdin")
			}
			if bpmnXml == formatted {
				return nil
			}

			s := sink.NewFile(filepath.Dir(bpmnFileName))
			return s.Write(context.Background(), filepath.Base(bpmnFileName), formatted)
		},
	}

	c.Flags().StringVar(&bpmnFileName, "bpmn-file", "", "Path to a BPMN file or - to read from stdin")
	c.Flags().BoolVar(&write, "write", false, "Write the result to the BPMN file instead of stdout")

	c.MarkFlagRequired("bpmn-file")

	return &c
}

func newCheckCmd(cli *Cli) *cobra.Command {
	var bpmnFileName string

	c := cobra.Command{
		Use:   "check",
		Short: "Check if a BPMN file is in canonical form",
		Long: `Check if a BPMN file is in canonical form.

If the file differs from its canonical form, a unified diff is printed and the command fails.`,
		RunE: func(c *cobra.Command, _ []string) error {
			bpmnXml, formatted, err := formatBpmnFile(c, bpmnFileName)
			if err != nil {
				return err
			}

			if bpmnXml == formatted {
				return nil
			}

			diff, err := formatDiff(bpmnFileName, bpmnXml, formatted)
			if err != nil {
				return err
			}

			c.Print(diff)
			return fmt.Errorf("BPMN file %s is not formatted", bpmnFileName)
		},
	}

	c.Flags().StringVar(&bpmnFileName, "bpmn-file", "", "Path to a BPMN file or - to read from stdin")

	c.MarkFlagRequired("bpmn-file")

	return &c
}

// formatBpmnFile reads a BPMN file and returns its content and its canonical form.
func formatBpmnFile(c *cobra.Command, bpmnFileName string) (string, string, error) {
	bpmnXml, err := readBpmnXml(c, bpmnFileName)
	if err != nil {
		return "", "", err
	}

	definitions, err := model.Parse(strings.NewReader(bpmnXml))
	if err != nil {
		return "", "", err
	}

	formatted, err := model.Marshal(definitions)
	if err != nil {
		return "", "", err
	}

	return bpmnXml, string(formatted), nil
}

// formatDiff returns a unified diff between the content of a file and its canonical form.
func formatDiff(fileName string, a string, b string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fileName,
		ToFile:   fileName + " (formatted)",
		Context:  3,
	}

	s, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to create diff: %v", err)
	}
	return s, nil
}

func newTable(headers []string) table {
	rows := make([][]string, 2)
	rows[0] = headers
	rows[1] = make([]string, len(headers))

	return table{rows: rows}
}

// table formats rows as left aligned columns. The second row, separating header and body, is empty.
type table struct {
	rows [][]string
}

func (t *table) addRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *table) format() string {
	rows := t.rows

	columns := make([]int, len(rows[0]))
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			l := utf8.RuneCountInString(rows[i][j])
			if columns[j] < l {
				columns[j] = l
			}
		}
	}

	var sb strings.Builder
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			if j != 0 {
				sb.WriteString("   ")
			}

			value := rows[i][j]
			sb.WriteString(value)

			if j == len(columns)-1 {
				break // no trailing spaces
			}

			l := utf8.RuneCountInString(value)
			for k := 0; k < columns[j]-l; k++ {
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
