// Package sink provides the destinations, serialized BPMN documents are written to.
/*
A [Sink] receives a named document as a whole. A sink, which also implements [Store], allows to read written documents.

	s := sink.NewFile("/var/lib/bpmn-model")

	bpmnXml, err := model.Marshal(definitions)
	if err != nil {
		log.Fatalf("failed to marshal model: %v", err)
	}

	if err := s.Write(context.Background(), "pizza-order.bpmn", string(bpmnXml)); err != nil {
		log.Fatalf("failed to write document: %v", err)
	}

The pg implementation is located under sink/pg.
*/
package sink

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned by [Store.Read], when no document with the given name exists.
var ErrNotFound = errors.New("document not found")

// RegexpName restricts document names, so that they can be used as file names and URL path segments.
var RegexpName = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Sink writes documents. A failed write is not retried.
type Sink interface {
	// Write writes the content of a document. An existing document with the same name is replaced.
	// If the document cannot be written, a [WriteError] is returned.
	Write(ctx context.Context, name string, content string) error
}

// Store reads previously written documents.
type Store interface {
	// Read returns the content of a document or [ErrNotFound].
	Read(ctx context.Context, name string) (string, error)
}

// WriteError wraps the reason, why a document could not be written.
type WriteError struct {
	Name string // Name of the document.
	Err  error
}

func (e WriteError) Error() string {
	return fmt.Sprintf("failed to write document %s: %v", e.Name, e.Err)
}

func (e WriteError) Unwrap() error {
	return e.Err
}

// ValidateName checks if a name is a valid document name.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name is empty")
	}
	if name == "." || name == ".." || !RegexpName.MatchString(name) {
		return fmt.Errorf("name %q is invalid", name)
	}
	return nil
}
