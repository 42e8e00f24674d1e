/*
bpmn-model is a CLI for building, validating and formatting BPMN 2.0 process models.

Usage:

	bpmn-model [flags]
	bpmn-model [command]

Available Commands:

	build       Build a BPMN model from a YAML or JSON description
	check       Check if a BPMN file is in canonical form
	completion  Generate the autocompletion script for the specified shell
	format      Rewrite a BPMN file in canonical form
	help        Help about any command
	publish     Publish a description to a bpmn-modeld server
	validate    Validate a description or a BPMN file
	version     Show version

Flags:

	-h, --help   help for bpmn-model

Use "bpmn-model [command] --help" for more information about a command.
*/
package main

import (
	"os"

	"github.com/gclaussn/go-bpmn-model/cli"
)

var (
	version = "unknown-version"
)

func main() {
	cli := cli.New(version)
	os.Exit(cli.Execute())
}
