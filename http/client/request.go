package client

import (
	"net/url"
	"strings"

	"github.com/gclaussn/go-bpmn-model/http/common"
)

// resolve resolves the path of a document.
func resolve(name string) string {
	return strings.Replace(common.PathDocuments, "{name}", url.PathEscape(name), 1)
}
