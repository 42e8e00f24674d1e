package pg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookUpDatabaseUrl() string {
	return os.Getenv("BPMN_MODEL_TEST_DATABASE_URL")
}

func mustCreateSink(t *testing.T) *Sink {
	if testing.Short() {
		t.Skip()
	}

	databaseUrl := lookUpDatabaseUrl()
	if databaseUrl == "" {
		t.Skip("BPMN_MODEL_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseUrl)
	if err != nil {
		t.Fatalf("failed to establish database connection: %v", err)
	}

	defer conn.Close(ctx)

	databaseSchema := fmt.Sprintf("test_sink_%s", strings.Replace(time.Now().Format("20060102150405.000"), ".", "", 1))
	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", databaseSchema))
	if err != nil {
		t.Fatalf("failed to create database schema: %v", err)
	}

	databaseUrl = fmt.Sprintf("%s?search_path=%s", databaseUrl, databaseSchema)

	s, err := New(databaseUrl)
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}

	t.Cleanup(s.Shutdown)

	return s
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	_, err := New("")
	assert.EqualError(err, "database URL is empty")

	_, err = New("postgres://localhost:5432/test", func(o *Options) {
		o.Timeout = 0
	})
	assert.EqualError(err, "timeout must be greater than 0")

	_, err = New("postgres://localhost:5432/test", func(o *Options) {
		o.ApplicationName = ""
	})
	assert.EqualError(err, "application name is empty")
}

func TestSink(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateSink(t)

	definitions, err := model.Build(model.PizzaOrderDescription())
	require.NoError(t, err)

	bpmnXml, err := model.Marshal(definitions)
	require.NoError(t, err)

	t.Run("read returns ErrNotFound", func(t *testing.T) {
		_, err := s.Read(context.Background(), "pizza-order.bpmn")
		assert.ErrorIs(err, sink.ErrNotFound)
	})

	t.Run("write", func(t *testing.T) {
		// when
		err := s.Write(context.Background(), "pizza-order.bpmn", string(bpmnXml))
		require.NoError(t, err)

		// then
		content, err := s.Read(context.Background(), "pizza-order.bpmn")
		assert.NoError(err)
		assert.Equal(string(bpmnXml), content)
	})

	t.Run("write replaces document", func(t *testing.T) {
		// when
		err := s.Write(context.Background(), "pizza-order.bpmn", "<updated />")
		require.NoError(t, err)

		// then
		content, err := s.Read(context.Background(), "pizza-order.bpmn")
		assert.NoError(err)
		assert.Equal("<updated />", content)
	})

	t.Run("write returns WriteError when name is invalid", func(t *testing.T) {
		err := s.Write(context.Background(), "pizza order", string(bpmnXml))

		var writeErr sink.WriteError
		assert.True(errors.As(err, &writeErr))
	})

	t.Run("write returns WriteError when context is canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Write(ctx, "canceled.bpmn", string(bpmnXml))

		var writeErr sink.WriteError
		assert.True(errors.As(err, &writeErr))
	})
}
