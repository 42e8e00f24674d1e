package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const buildDir = "./build"

func main() {
	log.SetFlags(0)

	flags := flag.NewFlagSet("build", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	var tagName string
	flags.StringVar(&tagName, "tag-name", "", "name of the tag to build")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}

	if tagName == "" {
		log.Fatal("please provide a tag name")
	}

	if err := os.RemoveAll(buildDir); err != nil {
		log.Fatalf("failed to delete build directory: %v", err)
	}
	if err := os.MkdirAll(buildDir, 0700); err != nil {
		log.Fatalf("failed to create build directory: %v", err)
	}

	checkExamples()
	buildExamples()

	run(exec.Command("go", "run", "./cmd/openapi", "-output-path", filepath.Join(buildDir, "bpmn-model-openapi.yaml"), "-version", tagName))

	builds := []osArch{
		{os: "linux", arch: "amd64"},
		{os: "linux", arch: "arm64"},
		{os: "windows", arch: "amd64"},
	}

	for _, build := range builds {
		goBuild(build, "-ldflags", "-X main.version="+tagName, "-o", build.binary("bpmn-model"), "./cmd/bpmn-model")
		goBuild(build, "-ldflags", "-X github.com/gclaussn/go-bpmn-model/daemon.version="+tagName, "-o", build.binary("bpmn-modeld"), "./cmd/bpmn-modeld")

		archiveName := fmt.Sprintf("bpmn-model-%s-%s.tar.gz", build.os, build.arch)
		run(exec.Command("tar", "cfz", filepath.Join(buildDir, archiveName), build.binary("bpmn-model"), build.binary("bpmn-modeld")))

		writeChecksum(archiveName)
	}
}

type osArch struct {
	os   string
	arch string
}

func (b osArch) binary(name string) string {
	if b.os == "windows" {
		return name + ".exe"
	}
	return name
}

// checkExamples fails, if a BPMN file under model/testdata, written by bpmn-model, is not in canonical form.
func checkExamples() {
	bpmnFileNames, err := filepath.Glob("./model/testdata/*.bpmn")
	if err != nil {
		log.Fatalf("failed to list BPMN files: %v", err)
	}

	for _, bpmnFileName := range bpmnFileNames {
		if filepath.Base(bpmnFileName) == "modeler.bpmn" {
			continue // written by a modeler, used as parser input
		}
		run(exec.Command("go", "run", "./cmd/bpmn-model", "check", "--bpmn-file", bpmnFileName))
	}
}

// buildExamples builds a BPMN document for each example description, so that it can be attached to a release.
func buildExamples() {
	descriptionFileNames, err := filepath.Glob("./model/testdata/*.yaml")
	if err != nil {
		log.Fatalf("failed to list descriptions: %v", err)
	}

	for _, descriptionFileName := range descriptionFileNames {
		name := strings.TrimSuffix(filepath.Base(descriptionFileName), ".yaml") + ".bpmn"

		run(exec.Command(
			"go", "run", "./cmd/bpmn-model", "build",
			"--description", descriptionFileName,
			"--output", filepath.Join(buildDir, name),
			"--warnings=false",
		))
	}
}

func goBuild(build osArch, args ...string) {
	cmd := exec.Command("go")
	cmd.Args = append(cmd.Args, "build")
	cmd.Args = append(cmd.Args, args...)
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, "CGO_ENABLED=0")
	cmd.Env = append(cmd.Env, "GOOS="+build.os)
	cmd.Env = append(cmd.Env, "GOARCH="+build.arch)

	log.Printf("%s-%s:", build.os, build.arch)
	run(cmd)
}

func run(cmd *exec.Cmd) {
	log.Print(strings.Join(cmd.Args, " "))

	out, err := cmd.Output()
	if len(out) != 0 {
		log.Println(string(out))
	}
	if err != nil {
		log.Fatalf("failed to run command: %v", err)
	}
}

// writeChecksum writes a sha256sum compatible checksum file next to the archive.
func writeChecksum(archiveName string) {
	archive, err := os.Open(filepath.Join(buildDir, archiveName))
	if err != nil {
		log.Fatalf("failed to open archive: %v", err)
	}

	defer archive.Close()

	h := sha256.New()
	if _, err := io.Copy(h, archive); err != nil {
		log.Fatalf("failed to read archive %s: %v", archiveName, err)
	}

	checksum := fmt.Sprintf("%s  %s\n", hex.EncodeToString(h.Sum(nil)), archiveName)

	checksumFileName := strings.TrimSuffix(archiveName, ".tar.gz") + ".sha256"
	if err := os.WriteFile(filepath.Join(buildDir, checksumFileName), []byte(checksum), 0600); err != nil {
		log.Fatalf("failed to write checksum file: %v", err)
	}
}
