// Package server implements the HTTP API, used to build and serve BPMN documents.
/*
server implements handlers for reading and building documents, using the [net/http] package.

Run a Server

A server requires a [sink.Store], documents are read from, and a [sink.Sink], built documents are written to.
Authentication via basic auth is optional.

A server is listening on "127.0.0.1:8080".
The TCP bind address as well as various timeouts can be configured by customizing the configuration.

	s := sink.NewFile("/var/lib/bpmn-model")

	server, err := server.New(s, s, func(o *server.Options) {
		o.PortRetry = true
	})
	if err != nil {
		log.Fatalf("failed to create HTTP server: %v", err)
	}

	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("failed to start HTTP server: %v", err)
	}

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	server.Shutdown()

Operations

	GET /                  index page, linking to the configured document
	GET /documents/{name}  serialized document (text/xml)
	PUT /documents/{name}  builds a document from a JSON encoded model.Description and writes it
	GET /readiness         readiness check
*/
package server
