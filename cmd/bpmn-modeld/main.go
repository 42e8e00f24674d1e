/*
bpmn-modeld is a daemon, serving BPMN documents via HTTP. Documents are built from JSON descriptions and kept in
memory, in a directory or in a PostgreSQL database.

Usage:

	-env value
		set environment variables
	-env-file value
		read in a file of environment variables
	-list-conf
		list configuration
	-list-conf-opts
		list configuration options
	-version
		show version
*/
package main

import (
	"log"
	"os"

	"github.com/gclaussn/go-bpmn-model/daemon"
)

func main() {
	log.SetOutput(os.Stdout)

	code := daemon.Run(os.Args[1:])
	os.Exit(code)
}
