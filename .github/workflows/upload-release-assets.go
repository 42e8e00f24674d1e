package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// content types of the release assets, written by build.go
var contentTypes = map[string]string{
	".bpmn":   "text/xml",
	".gz":     "application/gzip",
	".sha256": "text/plain",
	".yaml":   "text/yaml",
}

func main() {
	log.SetFlags(0)

	flags := flag.NewFlagSet("upload-release-assets", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	var (
		releaseId  string
		repository string
	)
	flags.StringVar(&releaseId, "release-id", "", "ID of the Github release")
	flags.StringVar(&repository, "repository", "gclaussn/go-bpmn-model", "owner and name of the Github repository")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}

	if releaseId == "" {
		log.Fatal("please provide a release ID")
	}

	githubToken, ok := os.LookupEnv("GITHUB_TOKEN")
	if !ok {
		log.Fatal("please set environment variable GITHUB_TOKEN")
	}

	buildArtifacts, err := os.ReadDir("./build")
	if err != nil {
		log.Fatalf("failed to read build directory: %v", err)
	}

	httpClient := http.Client{Timeout: 5 * time.Minute}

	for _, buildArtifact := range buildArtifacts {
		name := buildArtifact.Name()

		contentType, ok := contentTypes[filepath.Ext(name)]
		if !ok {
			log.Fatalf("file %s has an unsupported extension", name)
		}

		uploadUrl := fmt.Sprintf("https://uploads.github.com/repos/%s/releases/%s/assets?name=%s", repository, releaseId, url.QueryEscape(name))
		if err := uploadReleaseAsset(&httpClient, uploadUrl, githubToken, name, contentType); err != nil {
			log.Fatalf("failed to upload %s: %v", name, err)
		}

		log.Printf("uploaded %s", name)
	}
}

func uploadReleaseAsset(httpClient *http.Client, uploadUrl string, githubToken string, name string, contentType string) error {
	f, err := os.Open(filepath.Join("./build", name))
	if err != nil {
		return err
	}

	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, uploadUrl, f)
	if err != nil {
		return err
	}

	req.ContentLength = stat.Size()
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+githubToken)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	res, err := httpClient.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("HTTP %d: %s", res.StatusCode, b)
	}
	return nil
}
