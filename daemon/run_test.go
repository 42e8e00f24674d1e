package daemon

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	assert := assert.New(t)

	buffer := bytes.NewBufferString("")
	log.SetOutput(buffer)

	t.Run("help", func(t *testing.T) {
		assert.Equal(0, Run([]string{"-h"}))
	})

	t.Run("list-conf-opts", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(0, Run([]string{"-list-conf-opts"}))

		assert.Contains(buffer.String(), "BPMN_MODEL_DESCRIPTION_FILE")
		assert.Contains(buffer.String(), "BPMN_MODEL_DOCUMENT_DIR")
		assert.Contains(buffer.String(), "BPMN_MODEL_DOCUMENT_NAME")
		assert.Contains(buffer.String(), "BPMN_MODEL_HTTP_BIND_ADDRESS")
		assert.Contains(buffer.String(), "BPMN_MODEL_PG_DATABASE_URL")
		assert.Contains(buffer.String(), "default: 127.0.0.1:8080")
	})

	t.Run("list-conf", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(0, Run([]string{"-list-conf"}))

		assert.Contains(buffer.String(), "BPMN_MODEL_DOCUMENT_NAME=process.bpmn")
		assert.Contains(buffer.String(), "BPMN_MODEL_HTTP_BIND_ADDRESS=127.0.0.1:8080")
		assert.Contains(buffer.String(), "BPMN_MODEL_HTTP_PORT_RETRY=false")
	})

	t.Run("list-conf with env", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(0, Run([]string{"-env", "BPMN_MODEL_DOCUMENT_NAME=pizza-order.bpmn", "-env", "BPMN_MODEL_HTTP_BASIC_AUTH_PASSWORD=test-password", "-list-conf"}))

		assert.Contains(buffer.String(), "BPMN_MODEL_DOCUMENT_NAME=pizza-order.bpmn", "should override default value")
		assert.Contains(buffer.String(), "BPMN_MODEL_HTTP_BASIC_AUTH_PASSWORD=***", "should mask secret value")
		assert.NotContains(buffer.String(), "test-password")
	})

	t.Run("returns 1 when env is invalid", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(1, Run([]string{"-env", "X"}))

		assert.Contains(buffer.String(), `invalid value "X" for flag -env: required format <key>=<value>`)
	})

	t.Run("list-conf with env-file", func(t *testing.T) {
		envFileName := filepath.Join(t.TempDir(), "env")

		err := os.WriteFile(envFileName, []byte("# document\nBPMN_MODEL_DOCUMENT_NAME=pizza-order.bpmn\n\nBPMN_MODEL_HTTP_PORT_RETRY=true\n"), 0o644)
		require.NoError(t, err)

		buffer.Reset()
		assert.Equal(0, Run([]string{"-env-file", envFileName, "-list-conf"}))

		assert.Contains(buffer.String(), "BPMN_MODEL_DOCUMENT_NAME=pizza-order.bpmn")
		assert.Contains(buffer.String(), "BPMN_MODEL_HTTP_PORT_RETRY=true")
	})

	t.Run("returns 1 when env-file not exists", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(1, Run([]string{"-env-file", "/tmp/bpmn-model/not-existing"}))

		assert.Contains(buffer.String(), `invalid value "/tmp/bpmn-model/not-existing" for flag -env-file`)
	})

	t.Run("returns 1 when env-file is invalid", func(t *testing.T) {
		envFileName := filepath.Join(t.TempDir(), "env")
		require.NoError(t, os.WriteFile(envFileName, []byte("X\n"), 0o644))

		buffer.Reset()
		assert.Equal(1, Run([]string{"-env-file", envFileName}))

		assert.Contains(buffer.String(), "for flag -env-file: wrong format in line 1: required format <key>=<value>")
	})

	t.Run("returns 1 when conf is invalid", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(1, Run([]string{"-env", "BPMN_MODEL_HTTP_READ_TIMEOUT=x"}))

		assert.Contains(buffer.String(), "BPMN_MODEL_HTTP_READ_TIMEOUT=x: ")
	})

	t.Run("returns 1 when description file not exists", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(1, Run([]string{"-env", "BPMN_MODEL_DESCRIPTION_FILE=not-existing.yaml"}))

		assert.Contains(buffer.String(), "failed to build document process.bpmn: failed to open description file")
	})

	t.Run("version", func(t *testing.T) {
		buffer.Reset()
		assert.Equal(0, Run([]string{"-version"}))

		assert.Contains(buffer.String(), version)
	})
}

func TestNewStore(t *testing.T) {
	assert := assert.New(t)

	t.Run("memory", func(t *testing.T) {
		conf := newConf()
		conf.envFile.env["BPMN_MODEL_DOCUMENT_DIR"] = ""
		conf.envFile.env["BPMN_MODEL_PG_DATABASE_URL"] = ""

		store, shutdown, err := newStore(conf)
		require.NoError(t, err)
		defer shutdown()

		assert.IsType(&sink.Memory{}, store)
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()

		conf := newConf()
		conf.envFile.env["BPMN_MODEL_DOCUMENT_DIR"] = dir
		conf.envFile.env["BPMN_MODEL_PG_DATABASE_URL"] = ""

		store, shutdown, err := newStore(conf)
		require.NoError(t, err)
		defer shutdown()

		require.IsType(t, &sink.File{}, store)
		assert.Equal(dir, store.(*sink.File).Dir())
	})

	t.Run("pg", func(t *testing.T) {
		conf := newConf()
		conf.envFile.env["BPMN_MODEL_PG_DATABASE_URL"] = "invalid-database-url"

		_, _, err := newStore(conf)
		assert.Error(err)
	})
}

func TestBuildDocument(t *testing.T) {
	assert := assert.New(t)

	log.SetOutput(bytes.NewBufferString(""))

	t.Run("pizza order", func(t *testing.T) {
		s := sink.NewMemory()

		err := buildDocument(context.Background(), s, "../model/testdata/pizza-order.yaml", "pizza-order.bpmn")
		require.NoError(t, err)

		content, err := s.Read(context.Background(), "pizza-order.bpmn")
		require.NoError(t, err)

		b, err := os.ReadFile("../model/testdata/pizza-order.bpmn")
		require.NoError(t, err)

		assert.Equal(string(b), content)
	})

	t.Run("invalid description", func(t *testing.T) {
		descriptionFileName := filepath.Join(t.TempDir(), "description.yaml")
		require.NoError(t, os.WriteFile(descriptionFileName, []byte("targetNamespace: http://example.com\n"), 0o644))

		s := sink.NewMemory()

		err := buildDocument(context.Background(), s, descriptionFileName, "process.bpmn")
		assert.True(model.IsErrorType(err, model.ErrorInvalidAttribute))
		assert.Empty(s.Names())
	})
}
