package sink

import (
	"context"
	"slices"
	"sync"
)

// NewMemory creates an in-memory [Sink] and [Store], which is safe for concurrent use.
func NewMemory() *Memory {
	return &Memory{documents: make(map[string]string)}
}

type Memory struct {
	mutex     sync.RWMutex
	documents map[string]string
}

// Names returns the names of all written documents in ascending order.
func (s *Memory) Names() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	names := make([]string, 0, len(s.documents))
	for name := range s.documents {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}

func (s *Memory) Read(_ context.Context, name string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	content, ok := s.documents[name]
	if !ok {
		return "", ErrNotFound
	}
	return content, nil
}

func (s *Memory) Write(ctx context.Context, name string, content string) error {
	if err := ValidateName(name); err != nil {
		return WriteError{Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return WriteError{Name: name, Err: err}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.documents[name] = content
	return nil
}
