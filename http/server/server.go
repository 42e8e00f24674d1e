package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gclaussn/go-bpmn-model/http/common"
	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
)

// New creates a server, which serves documents from the store and writes built documents to the sink.
// Usually both are implemented by the same type - e.g. [sink.File].
func New(store sink.Store, s sink.Sink, customizers ...func(*Options)) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if s == nil {
		return nil, errors.New("sink is nil")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	var handler http.Handler = mux
	if options.BasicAuthUsername != "" {
		handler = &basicAuthHandler{
			username: options.BasicAuthUsername,
			password: options.BasicAuthPassword,
			handler:  mux,
		}
	}

	// server-wide context for incoming requests
	httpServerCtx, httpServerCancel := context.WithCancel(context.Background())

	httpServer := http.Server{
		Addr: options.BindAddress,
		BaseContext: func(_ net.Listener) context.Context {
			return httpServerCtx
		},
		Handler:      http.TimeoutHandler(handler, options.HandlerTimeout, "handler timed out"),
		IdleTimeout:  options.IdleTimeout,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
	}

	if options.Configure != nil {
		options.Configure(&httpServer)
	}

	server := Server{
		store:            store,
		sink:             s,
		httpServer:       &httpServer,
		httpServerCtx:    httpServerCtx,
		httpServerCancel: httpServerCancel,
		options:          options,
	}

	// operations:start
	mux.HandleFunc("GET "+common.PathDocuments, server.getDocument)
	mux.HandleFunc("PUT "+common.PathDocuments, server.putDocument)

	mux.HandleFunc("GET "+common.PathIndex, server.getIndex)
	mux.HandleFunc("GET "+common.PathReadiness, server.checkReadiness)
	// operations:end

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return &server, nil
}

func NewOptions() Options {
	return Options{
		BindAddress: "127.0.0.1:8080",

		HandlerTimeout: 30 * time.Second,
		IdleTimeout:    60 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   35 * time.Second,

		ShutdownDelay:       5 * time.Second,
		ShutdownPeriod:      30 * time.Second,
		ShutdownForcePeriod: 5 * time.Second,

		DocumentName: "process.bpmn",
	}
}

type Options struct {
	BindAddress string // TCP address for the server to listen on.
	PortRetry   bool   // Determines if a free port of the same host is used, when the bind address is already in use.

	HandlerTimeout time.Duration // Time limit for HTTP handler - when reached, the handler responds with HTTP 503.
	IdleTimeout    time.Duration // Maximum amount of time to wait for the next request, when keep-alives are enabled - see http.Server#IdleTimeout
	ReadTimeout    time.Duration // Maximum duration for reading the entire request - see http.Server#ReadTimeout
	WriteTimeout   time.Duration // Maximum duration before timing out writing the response - see http.Server#WriteTimeout

	ShutdownDelay       time.Duration // Delay between the shutdown signal and the actual shutdown, used to propagate readiness.
	ShutdownPeriod      time.Duration // Period for a graceful shutdown without interrupting ongoing requests.
	ShutdownForcePeriod time.Duration // Period for a forced shutdown, where ongoing requests are canceled.

	BasicAuthUsername string // Optional - if set, a password is required.
	BasicAuthPassword string

	DocumentName string // Name of the document, the index page links to.

	Configure func(*http.Server) // Optional function, used to configure the underlying HTTP server if needed.
}

func (o Options) Validate() error {
	if o.BindAddress == "" {
		return errors.New("bind address is empty")
	}
	if o.BasicAuthUsername != "" && o.BasicAuthPassword == "" {
		return errors.New("basic auth password must be provided, when a username is set")
	}
	if o.BasicAuthUsername == "" && o.BasicAuthPassword != "" {
		return errors.New("basic auth username must be provided, when a password is set")
	}
	if err := sink.ValidateName(o.DocumentName); err != nil {
		return fmt.Errorf("invalid document name: %v", err)
	}
	return nil
}

type Server struct {
	store sink.Store
	sink  sink.Sink

	httpServer       *http.Server
	httpServerCtx    context.Context    // server-wide base context for incoming requests
	httpServerCancel context.CancelFunc // invoked after server shutdown to cancel to ongoing requests
	isShuttingDown   atomic.Bool
	listener         net.Listener
	options          Options
}

// Addr returns the address, the server is listening on, or the configured bind address, if the server is not listening.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Handler returns the server's HTTP handler, including authentication.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe listens on the configured bind address and serves HTTP requests in a separate goroutine.
func (s *Server) ListenAndServe() error {
	listener, err := s.listen()
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %v", s.httpServer.Addr, err)
	}

	s.listener = listener

	go func() {
		log.Printf("server listening on %s", listener.Addr())
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			log.Fatalf("failed to serve HTTP: %v", err)
		}
	}()

	return nil
}

func (s *Server) Shutdown() {
	s.isShuttingDown.Store(true)
	log.Println("server is shutting down")

	time.Sleep(s.options.ShutdownDelay)
	log.Println("server is shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.options.ShutdownPeriod)
	defer shutdownCancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.httpServerCancel()
	if err != nil {
		log.Printf("failed to shutdown HTTP server: %v", err)
		time.Sleep(s.options.ShutdownForcePeriod)
	}

	log.Println("server shut down")
}

func (s *Server) listen() (net.Listener, error) {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err == nil || !s.options.PortRetry || !errors.Is(err, syscall.EADDRINUSE) {
		return listener, err
	}

	host, _, splitErr := net.SplitHostPort(s.httpServer.Addr)
	if splitErr != nil {
		return nil, err
	}

	log.Printf("address %s is already in use: retrying with a free port", s.httpServer.Addr)
	return net.Listen("tcp", net.JoinHostPort(host, "0"))
}

func (s *Server) checkReadiness(w http.ResponseWriter, r *http.Request) {
	if s.isShuttingDown.Load() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ready"))
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	name, err := parseName(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	content, err := s.store.Read(r.Context(), name)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	encodeXmlResponseBody(w, content, http.StatusOK)
}

func (s *Server) getIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(common.HeaderContentType, common.ContentTypeHtml)

	data := indexData{DocumentName: s.options.DocumentName}
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("%s %s: failed to execute index template: %v", r.Method, r.RequestURI, err)
	}
}

// putDocument builds a model from the description, contained in the request body, and writes the serialized model.
// Unless query parameter "warnings" is false, reachability warnings are logged.
func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	name, err := parseName(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	var description model.Description
	if err := decodeJSONRequestBody(w, r, &description); err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	definitions, err := model.Build(description)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	bpmnXml, err := model.Marshal(definitions)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	if r.URL.Query().Get(common.QueryWarnings) != "false" {
		for _, warning := range model.CheckReachability(definitions) {
			log.Printf("%s %s: %s", r.Method, r.RequestURI, warning)
		}
	}

	if err := s.sink.Write(r.Context(), name, string(bpmnXml)); err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	w.Header().Set(common.HeaderLocation, r.URL.Path)
	encodeXmlResponseBody(w, string(bpmnXml), http.StatusCreated)
}
