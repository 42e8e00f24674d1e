package daemon

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gclaussn/go-bpmn-model/http/server"
	"github.com/gclaussn/go-bpmn-model/model"
	"github.com/gclaussn/go-bpmn-model/sink"
	"github.com/gclaussn/go-bpmn-model/sink/pg"
)

// documentStore is a sink, which also allows to read written documents.
type documentStore interface {
	sink.Sink
	sink.Store
}

// Run runs the daemon, which serves documents via HTTP until an interrupt or termination signal is received.
func Run(args []string) int {
	serverOptions := server.NewOptions()

	conf := newConf()
	conf.setServerOptions(serverOptions)

	flags := flag.NewFlagSet("bpmn-modeld", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	flags.Var(&conf.envFile.env, "env", "set environment variables")
	flags.Var(&conf.envFile, "env-file", "read in a file of environment variables")

	var doListConfOpts bool
	flags.BoolVar(&doListConfOpts, "list-conf-opts", false, "list configuration options")
	var doListConf bool
	flags.BoolVar(&doListConf, "list-conf", false, "list configuration")
	var doVersion bool
	flags.BoolVar(&doVersion, "version", false, "show version")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		} else {
			return 1
		}
	}

	if doListConfOpts {
		return listConfOpts(conf)
	}
	if doListConf {
		return listConf(conf)
	}
	if doVersion {
		return showVersion()
	}

	conf.getServerOptions(&serverOptions)

	if code := listConfErrors(conf); code != 0 {
		return code
	}

	store, shutdownStore, err := newStore(conf)
	if err != nil {
		log.Printf("failed to create store: %v", err)
		return 1
	}

	defer shutdownStore()

	if descriptionFileName := conf.opts[optDescriptionFile].value(); descriptionFileName != "" {
		if err := buildDocument(context.Background(), store, descriptionFileName, serverOptions.DocumentName); err != nil {
			log.Printf("failed to build document %s: %v", serverOptions.DocumentName, err)
			return 1
		}
	}

	s, err := server.New(store, store, func(o *server.Options) {
		*o = serverOptions
	})
	if err != nil {
		log.Printf("failed to create HTTP server: %v", err)
		return 1
	}

	if err := s.ListenAndServe(); err != nil {
		log.Print(err)
		return 1
	}

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	s.Shutdown()

	return 0
}

// newStore creates a pg store, if a database URL is configured, a file store, if a document directory is configured,
// or a memory store.
func newStore(conf *conf) (documentStore, func(), error) {
	if databaseUrl := conf.opts[optPgDatabaseUrl].value(); databaseUrl != "" {
		s, err := pg.New(databaseUrl)
		if err != nil {
			return nil, nil, err
		}

		log.Println("using pg store")
		return s, func() {
			s.Shutdown()
			log.Println("pg store shut down")
		}, nil
	}

	if dir := conf.opts[optDocumentDir].value(); dir != "" {
		log.Printf("using file store %s", dir)
		return sink.NewFile(dir), func() {}, nil
	}

	log.Println("using memory store")
	return sink.NewMemory(), func() {}, nil
}

// buildDocument builds a model from a description file and writes the serialized model.
func buildDocument(ctx context.Context, s sink.Sink, descriptionFileName string, name string) error {
	descriptionFile, err := os.Open(descriptionFileName)
	if err != nil {
		return fmt.Errorf("failed to open description file: %v", err)
	}

	defer descriptionFile.Close()

	description, err := model.ReadDescription(descriptionFile)
	if err != nil {
		return err
	}

	definitions, err := model.Build(description)
	if err != nil {
		return err
	}

	for _, warning := range model.CheckReachability(definitions) {
		log.Printf("document %s: %s", name, warning)
	}

	bpmnXml, err := model.Marshal(definitions)
	if err != nil {
		return err
	}

	return s.Write(ctx, name, string(bpmnXml))
}
