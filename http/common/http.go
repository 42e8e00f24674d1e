package common

const (
	ContentTypeHtml        = "text/html"
	ContentTypeJson        = "application/json"
	ContentTypeProblemJson = "application/problem+json"
	ContentTypeXml         = "text/xml"

	HeaderContentType = "Content-Type"
	HeaderLocation    = "Location"

	PathDocuments = "/documents/{name}"
	PathIndex     = "/{$}"
	PathReadiness = "/readiness"

	QueryWarnings = "warnings"
)
