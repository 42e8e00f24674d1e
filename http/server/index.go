package server

import "html/template"

type indexData struct {
	DocumentName string
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>bpmn-model</title>
  </head>
  <body>
    <ul>
      <li><a href="/documents/{{.DocumentName}}">{{.DocumentName}}</a></li>
    </ul>
  </body>
</html>
`))
