package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gclaussn/go-bpmn-model/http/common"
	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
)

func New(url string, customizers ...func(*Options)) (*Client, error) {
	if url == "" {
		return nil, errors.New("URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	httpClient := http.Client{}

	if options.Configure != nil {
		options.Configure(&httpClient)
	}

	client := Client{
		httpClient: &httpClient,
		url:        strings.TrimSuffix(url, "/"),
		options:    options,
	}

	return &client, nil
}

func NewOptions() Options {
	return Options{
		Timeout: 40 * time.Second,
	}
}

type Options struct {
	Timeout time.Duration // Time limit for requests made by the HTTP client, utilized when no external context is provided.

	BasicAuthUsername string // Optional - if set, a password is required.
	BasicAuthPassword string

	// OnRequest is an optional function that accepts a [*http.Request]. It is called before a HTTP request is send.
	OnRequest func(*http.Request) error
	// OnResponse is an optional function that accepts a [*http.Response]. It is called after a HTTP response is returned.
	OnResponse func(*http.Response) error

	Configure func(*http.Client) // Optional function, used to configure the underlying HTTP client.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than zero")
	}
	if (o.BasicAuthUsername == "") != (o.BasicAuthPassword == "") {
		return errors.New("basic auth username and password must be provided together")
	}
	return nil
}

// Client interacts with a bpmn-modeld HTTP server. Since it can read documents, it is a [sink.Store].
type Client struct {
	httpClient *http.Client
	url        string
	options    Options
}

// CheckReadiness checks if the server is ready to handle requests.
func (c *Client) CheckReadiness(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.do(ctx, http.MethodGet, common.PathReadiness, nil)
	if err != nil {
		return err
	}

	_, err = readResponseBody(res)
	return err
}

// PutDocument sends a description to the server, which builds the model and writes it as document with the given name.
// The serialized model is returned.
//
// If the description cannot be built, a [model.Error] is returned.
func (c *Client) PutDocument(ctx context.Context, name string, description model.Description) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	b, err := json.Marshal(description)
	if err != nil {
		return "", fmt.Errorf("failed to create JSON request body: %v", err)
	}

	res, err := c.do(ctx, http.MethodPut, resolve(name), b)
	if err != nil {
		return "", err
	}

	return readResponseBody(res)
}

// Read reads a document. If the document does not exist, [sink.ErrNotFound] is returned.
func (c *Client) Read(ctx context.Context, name string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.do(ctx, http.MethodGet, resolve(name), nil)
	if err != nil {
		return "", err
	}

	return readResponseBody(res)
}

func (c *Client) do(ctx context.Context, method string, path string, reqBody []byte) (*http.Response, error) {
	var body io.Reader
	if reqBody != nil {
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %v", method, err)
	}

	if reqBody != nil {
		req.Header.Set(common.HeaderContentType, common.ContentTypeJson)
	}
	if c.options.BasicAuthUsername != "" {
		req.SetBasicAuth(c.options.BasicAuthUsername, c.options.BasicAuthPassword)
	}

	if c.options.OnRequest != nil {
		if err := c.options.OnRequest(req); err != nil {
			return nil, err
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s %s: %v", method, c.url+path, err)
	}

	if c.options.OnResponse != nil {
		if err := c.options.OnResponse(res); err != nil {
			res.Body.Close()
			return nil, err
		}
	}

	return res, nil
}

// withTimeout applies the configured timeout, if the context has no deadline.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.options.Timeout)
}

var _ sink.Store = &Client{}
