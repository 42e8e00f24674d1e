package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gclaussn/go-bpmn-model/http/common"
	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCreateServer(t *testing.T, customizers ...func(*Options)) (*Server, *sink.Memory) {
	s := sink.NewMemory()

	server, err := New(s, s, customizers...)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	return server, s
}

func mustEncodeDescription(t *testing.T, description model.Description) string {
	b, err := json.Marshal(description)
	if err != nil {
		t.Fatalf("failed to marshal description: %v", err)
	}
	return string(b)
}

func serve(server *Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, r)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) common.Problem {
	assert.Equal(t, common.ContentTypeProblemJson, w.Header().Get(common.HeaderContentType))

	var problem common.Problem
	if err := json.NewDecoder(w.Body).Decode(&problem); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	return problem
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	s := sink.NewMemory()

	_, err := New(nil, s)
	assert.EqualError(err, "store is nil")

	_, err = New(s, nil)
	assert.EqualError(err, "sink is nil")

	_, err = New(s, s, func(o *Options) {
		o.BasicAuthUsername = "username"
	})
	assert.ErrorContains(err, "password")

	_, err = New(s, s, func(o *Options) {
		o.BasicAuthPassword = "password"
	})
	assert.ErrorContains(err, "username")

	_, err = New(s, s, func(o *Options) {
		o.DocumentName = "../process.bpmn"
	})
	assert.ErrorContains(err, "invalid document name")
}

func TestPutDocument(t *testing.T) {
	assert := assert.New(t)

	server, s := mustCreateServer(t)

	t.Run("pizza order", func(t *testing.T) {
		// given
		r := httptest.NewRequest(http.MethodPut, "/documents/pizza-order.bpmn", strings.NewReader(mustEncodeDescription(t, model.PizzaOrderDescription())))
		r.Header.Set(common.HeaderContentType, common.ContentTypeJson)

		// when
		w := serve(server, r)

		// then
		assert.Equal(http.StatusCreated, w.Code)
		assert.Equal(common.ContentTypeXml, w.Header().Get(common.HeaderContentType))
		assert.Equal("/documents/pizza-order.bpmn", w.Header().Get(common.HeaderLocation))

		definitions, err := model.Build(model.PizzaOrderDescription())
		require.NoError(t, err)
		bpmnXml, err := model.Marshal(definitions)
		require.NoError(t, err)

		assert.Equal(string(bpmnXml), w.Body.String())

		content, err := s.Read(context.Background(), "pizza-order.bpmn")
		assert.NoError(err)
		assert.Equal(string(bpmnXml), content)
	})

	t.Run("invalid name", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/documents/pizza%20order.bpmn", strings.NewReader(mustEncodeDescription(t, model.PizzaOrderDescription())))

		w := serve(server, r)

		assert.Equal(http.StatusBadRequest, w.Code)

		problem := decodeProblem(t, w)
		assert.Equal(common.ProblemHttpRequestUri, problem.Type)
	})

	t.Run("invalid request body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/documents/invalid.bpmn", strings.NewReader(`{"processes":[]}`))

		w := serve(server, r)

		assert.Equal(http.StatusBadRequest, w.Code)

		problem := decodeProblem(t, w)
		assert.Equal(common.ProblemHttpRequestBody, problem.Type)
		assert.Len(problem.Errors, 2)
	})

	t.Run("duplicate ID", func(t *testing.T) {
		description := model.PizzaOrderDescription()
		description.Nodes[3].Id = "Task_OrderPizza"

		r := httptest.NewRequest(http.MethodPut, "/documents/duplicate.bpmn", strings.NewReader(mustEncodeDescription(t, description)))

		w := serve(server, r)

		assert.Equal(http.StatusUnprocessableEntity, w.Code)

		problem := decodeProblem(t, w)
		assert.Equal(common.ProblemDuplicateId, problem.Type)
		require.Len(t, problem.Errors, 1)
		assert.Equal("PizzaOrderProcess/Task_OrderPizza", problem.Errors[0].Pointer)
		assert.Equal("id", problem.Errors[0].Type)

		_, err := s.Read(context.Background(), "duplicate.bpmn")
		assert.ErrorIs(err, sink.ErrNotFound)
	})

	t.Run("dangling target reference", func(t *testing.T) {
		description := model.PizzaOrderDescription()
		description.Edges[1].Target = "EndEvent_2"

		r := httptest.NewRequest(http.MethodPut, "/documents/dangling.bpmn", strings.NewReader(mustEncodeDescription(t, description)))

		w := serve(server, r)

		assert.Equal(http.StatusUnprocessableEntity, w.Code)

		problem := decodeProblem(t, w)
		assert.Equal(common.ProblemInvalidAttribute, problem.Type)
		require.Len(t, problem.Errors, 1)
		assert.Equal("PizzaOrderProcess/Flow_2", problem.Errors[0].Pointer)
		assert.Equal("targetRef", problem.Errors[0].Type)
	})

	t.Run("unknown type", func(t *testing.T) {
		description := model.PizzaOrderDescription()
		description.Nodes[0].Type = "SUB_PROCESS"

		r := httptest.NewRequest(http.MethodPut, "/documents/unknown.bpmn", strings.NewReader(mustEncodeDescription(t, description)))

		w := serve(server, r)

		assert.Equal(http.StatusUnprocessableEntity, w.Code)

		problem := decodeProblem(t, w)
		assert.Equal(common.ProblemUnknownType, problem.Type)
	})
}

func TestGetDocument(t *testing.T) {
	assert := assert.New(t)

	server, s := mustCreateServer(t)

	require.NoError(t, s.Write(context.Background(), "process.bpmn", "<bpmn:definitions />"))

	t.Run("found", func(t *testing.T) {
		w := serve(server, httptest.NewRequest(http.MethodGet, "/documents/process.bpmn", nil))

		assert.Equal(http.StatusOK, w.Code)
		assert.Equal(common.ContentTypeXml, w.Header().Get(common.HeaderContentType))
		assert.Equal("<bpmn:definitions />", w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(server, httptest.NewRequest(http.MethodGet, "/documents/not-existing.bpmn", nil))

		assert.Equal(http.StatusNotFound, w.Code)

		problem := decodeProblem(t, w)
		assert.Equal(common.ProblemNotFound, problem.Type)
		assert.Equal("not-existing.bpmn", problem.Detail)
	})

	t.Run("unknown path", func(t *testing.T) {
		w := serve(server, httptest.NewRequest(http.MethodGet, "/processes", nil))
		assert.Equal(http.StatusNotFound, w.Code)
	})
}

func TestGetIndex(t *testing.T) {
	assert := assert.New(t)

	server, _ := mustCreateServer(t, func(o *Options) {
		o.DocumentName = "pizza-order.bpmn"
	})

	w := serve(server, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(http.StatusOK, w.Code)
	assert.Equal(common.ContentTypeHtml, w.Header().Get(common.HeaderContentType))
	assert.Contains(w.Body.String(), `<a href="/documents/pizza-order.bpmn">pizza-order.bpmn</a>`)
}

func TestBasicAuth(t *testing.T) {
	assert := assert.New(t)

	server, _ := mustCreateServer(t, func(o *Options) {
		o.BasicAuthUsername = "username"
		o.BasicAuthPassword = "password"
	})

	t.Run("readiness without authentication", func(t *testing.T) {
		w := serve(server, httptest.NewRequest(http.MethodGet, common.PathReadiness, nil))

		assert.Equal(http.StatusOK, w.Code)
		assert.Equal("ready", w.Body.String())
	})

	t.Run("unauthorized", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.SetBasicAuth("username", "wrong")

		w := serve(server, r)
		assert.Equal(http.StatusUnauthorized, w.Code)
	})

	t.Run("authorized", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.SetBasicAuth("username", "password")

		w := serve(server, r)
		assert.Equal(http.StatusOK, w.Code)
	})
}

func TestListenAndServe(t *testing.T) {
	assert := assert.New(t)

	noDelay := func(o *Options) {
		o.ShutdownDelay = 0
		o.ShutdownPeriod = time.Second
		o.ShutdownForcePeriod = 0
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer listener.Close()

	t.Run("returns error when address is in use", func(t *testing.T) {
		server, _ := mustCreateServer(t, noDelay, func(o *Options) {
			o.BindAddress = listener.Addr().String()
		})

		err := server.ListenAndServe()
		assert.ErrorContains(err, "failed to listen")
	})

	t.Run("port retry", func(t *testing.T) {
		server, _ := mustCreateServer(t, noDelay, func(o *Options) {
			o.BindAddress = listener.Addr().String()
			o.PortRetry = true
		})

		require.NoError(t, server.ListenAndServe())
		defer server.Shutdown()

		assert.NotEqual(listener.Addr().String(), server.Addr())

		res, err := http.Get("http://" + server.Addr() + common.PathReadiness)
		require.NoError(t, err)

		defer res.Body.Close()

		b, err := io.ReadAll(res.Body)
		assert.NoError(err)
		assert.Equal(http.StatusOK, res.StatusCode)
		assert.Equal("ready", string(b))
	})
}
