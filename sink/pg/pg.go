package pg

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gclaussn/go-bpmn-model/sink"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed ddl/document.sql
var createTableDocument string

func New(databaseUrl string, customizers ...func(*Options)) (*Sink, error) {
	if databaseUrl == "" {
		return nil, errors.New("database URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	pgPoolConfig, err := pgxpool.ParseConfig(databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %v", err)
	}

	if _, ok := pgPoolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		pgPoolConfig.ConnConfig.RuntimeParams["application_name"] = options.ApplicationName
	}

	pgPoolCtx, pgPoolCancel := context.WithTimeout(context.Background(), options.Timeout)
	defer pgPoolCancel()

	pgPool, err := pgxpool.NewWithConfig(pgPoolCtx, pgPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %v", err)
	}

	pgSink := Sink{pgPool: pgPool, timeout: options.Timeout}

	if err := pgSink.createTable(); err != nil {
		pgSink.Shutdown()
		return nil, fmt.Errorf("failed to prepare database: %v", err)
	}

	return &pgSink, nil
}

func NewOptions() Options {
	return Options{
		ApplicationName: "bpmn-model",
		Timeout:         30 * time.Second,
	}
}

type Options struct {
	ApplicationName string        // Used as runtime parameter "application_name", unless the database URL specifies it.
	Timeout         time.Duration // Time limit for database operations, utilized when no external context deadline is set.
}

func (o Options) Validate() error {
	if o.ApplicationName == "" {
		return errors.New("application name is empty")
	}
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	return nil
}

// Sink is a PostgreSQL based [sink.Sink] and [sink.Store].
type Sink struct {
	pgPool       *pgxpool.Pool
	timeout      time.Duration
	shutdownOnce sync.Once
}

func (s *Sink) Read(ctx context.Context, name string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.pgPool.QueryRow(ctx, "SELECT content FROM document WHERE name = $1", name)

	var content string
	if err := row.Scan(&content); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", sink.ErrNotFound
		}
		return "", fmt.Errorf("failed to select document %s: %v", name, err)
	}

	return content, nil
}

// Write inserts a document or updates the content of an existing document.
func (s *Sink) Write(ctx context.Context, name string, content string) error {
	if err := sink.ValidateName(name); err != nil {
		return sink.WriteError{Name: name, Err: err}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// must be UTC and truncated to millis, since TIMESTAMP(3) is used
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err := s.pgPool.Exec(ctx, `
INSERT INTO document (
	name,

	created_at,
	updated_at,

	content
) VALUES (
	$1,

	$2,
	$2,

	$3
) ON CONFLICT (name) DO UPDATE SET
	updated_at = excluded.updated_at,
	content = excluded.content
`,
		name,

		now,

		content,
	)
	if err != nil {
		return sink.WriteError{Name: name, Err: err}
	}

	return nil
}

// Shutdown closes the underlying connection pool.
func (s *Sink) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.pgPool.Close()
	})
}

func (s *Sink) createTable() error {
	ctx, cancel := s.withTimeout(context.Background())
	defer cancel()

	if _, err := s.pgPool.Exec(ctx, createTableDocument); err != nil {
		return fmt.Errorf("failed to create table document: %v", err)
	}
	return nil
}

// withTimeout applies the configured timeout, if the given context has no deadline.
func (s *Sink) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
