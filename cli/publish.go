package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gclaussn/go-bpmn-model/http/client"
	"github.com/gclaussn/go-bpmn-model/http/common"
	"github.com/spf13/cobra"
)

const (
	envHttpBasicAuthUsername = envPrefix + "HTTP_BASIC_AUTH_USERNAME"
	envHttpBasicAuthPassword = envPrefix + "HTTP_BASIC_AUTH_PASSWORD"
)

func newPublishCmd(cli *Cli) *cobra.Command {
	var (
		descriptionFileName string
		url                 string
		timeout             time.Duration
		debugEnabled        bool

		name = documentNameValue(defaultDocumentName)
	)

	c := cobra.Command{
		Use:   "publish",
		Short: "Publish a description to a bpmn-modeld server",
		Long: `Publish a description to a bpmn-modeld server.

The server builds the BPMN model and serves it as document. If the server requires basic authentication,
the environment variables ` + envHttpBasicAuthUsername + ` and ` + envHttpBasicAuthPassword + ` must be set.`,
		Example: `  bpmn-model publish --description pizza-order.yaml --url http://localhost:8080 --name pizza-order.bpmn`,
		RunE: func(c *cobra.Command, _ []string) error {
			if url == "" {
				return errors.New("no URL set")
			}

			description, err := readDescription(c, descriptionFileName)
			if err != nil {
				return err
			}

			httpClient, err := client.New(url, func(o *client.Options) {
				o.Timeout = timeout

				o.BasicAuthUsername = os.Getenv(envHttpBasicAuthUsername)
				o.BasicAuthPassword = os.Getenv(envHttpBasicAuthPassword)

				if debugEnabled {
					o.OnRequest = debugRequest
					o.OnResponse = debugResponse
				}
			})
			if err != nil {
				return fmt.Errorf("failed to create HTTP client: %v", err)
			}

			if _, err := httpClient.PutDocument(context.Background(), name.String(), description); err != nil {
				return err
			}

			c.Println(strings.TrimSuffix(url, "/") + strings.Replace(common.PathDocuments, "{name}", name.String(), 1))
			return nil
		},
	}

	c.Flags().StringVar(&descriptionFileName, "description", "", "Path to a YAML or JSON description or - to read from stdin")
	c.Flags().StringVar(&url, "url", "", "HTTP server URL")
	c.Flags().Var(&name, "name", "Name of the BPMN document")
	c.Flags().DurationVar(&timeout, "timeout", 40*time.Second, "Time limit for requests made by the HTTP client")
	c.Flags().BoolVar(&debugEnabled, "debug", false, "Log HTTP requests and responses")

	c.Flags().SetAnnotation("url", envLookupAllowed, nil)
	c.Flags().SetAnnotation("timeout", envLookupAllowed, nil)
	c.Flags().SetAnnotation("debug", envLookupAllowed, nil)

	c.MarkFlagRequired("description")

	return &c
}

func debugRequest(req *http.Request) error {
	log.Printf("%s %s", req.Method, req.URL)

	if req.Body == nil {
		return nil
	}

	b, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}

	var reqBodyStr string

	buf := &bytes.Buffer{}
	if err := json.Indent(buf, b, "", "  "); err != nil {
		reqBodyStr = string(b)
	} else {
		reqBodyStr = buf.String()
	}

	req.Body = io.NopCloser(bytes.NewReader(b)) // make body readable again

	log.Printf("request body:\n%s", reqBodyStr)
	return nil
}

func debugResponse(res *http.Response) error {
	log.Printf("status code: %d", res.StatusCode)

	log.Println("response headers:")
	for name, values := range res.Header {
		log.Printf("%s: %s", name, strings.Join(values, ", "))
	}

	b, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		log.Printf("failed to read response body: %v", err)
		return err
	}

	res.Body = io.NopCloser(bytes.NewReader(b)) // make body readable again

	resBodyStr := string(b)

	if res.Header.Get(common.HeaderContentType) == common.ContentTypeProblemJson {
		buf := &bytes.Buffer{}
		if err := json.Indent(buf, b, "", "  "); err == nil {
			resBodyStr = buf.String()
		}
	}

	if resBodyStr != "" {
		log.Printf("response body:\n%s", resBodyStr)
	}
	return nil
}
