package cli

import (
	"github.com/gclaussn/go-bpmn-model/sink"
)

// documentNameValue is a custom flag value for the name of a document, written to a sink.
type documentNameValue string

func (v *documentNameValue) Set(s string) error {
	if err := sink.ValidateName(s); err != nil {
		return err
	}

	*v = documentNameValue(s)
	return nil
}

func (v documentNameValue) String() string {
	return string(v)
}

func (v documentNameValue) Type() string {
	return "documentName"
}
