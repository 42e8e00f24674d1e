package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gclaussn/go-bpmn-model/http/server"
	"github.com/gclaussn/go-bpmn-model/sink"
)

const (
	envPrefix = "BPMN_MODEL_"

	optDescriptionFile = "DESCRIPTION_FILE"
	optDocumentDir     = "DOCUMENT_DIR"
	optPgDatabaseUrl   = "PG_DATABASE_URL"

	optDocumentName          = "DOCUMENT_NAME"
	optHttpBasicAuthPassword = "HTTP_BASIC_AUTH_PASSWORD"
	optHttpBasicAuthUsername = "HTTP_BASIC_AUTH_USERNAME"
	optHttpBindAddress       = "HTTP_BIND_ADDRESS"
	optHttpPortRetry         = "HTTP_PORT_RETRY"
	optHttpReadTimeout       = "HTTP_READ_TIMEOUT"
	optHttpWriteTimeout      = "HTTP_WRITE_TIMEOUT"
)

var (
	version = "unknown-version"
)

func newConf() *conf {
	env := env{}
	for _, value := range os.Environ() {
		env.Set(value)
	}

	conf := conf{
		envFile: envFile{env},
		opts:    make(map[string]*confOpt),
	}

	conf.addOption(optDescriptionFile, "YAML or JSON description, built on startup and written as "+envPrefix+optDocumentName)
	conf.addOption(optDocumentDir, "directory to write documents into - if not set, documents are kept in memory")
	conf.addOption(optPgDatabaseUrl, "format: postgres://<username>:<password>@<host>:<port>/<database>?search_path=<schema> - takes precedence over "+envPrefix+optDocumentDir)

	conf.addServerOption(
		optDocumentName,
		"name of the document, built from the description and linked on the index page",
		func(o server.Options) string {
			return o.DocumentName
		},
		func(o *server.Options, co *confOpt) error {
			documentName := co.value()
			if err := sink.ValidateName(documentName); err != nil {
				return err
			}

			o.DocumentName = documentName
			return nil
		},
	)
	httpBasicAuthUsername := conf.addServerOption(
		optHttpBasicAuthUsername,
		"username for basic authentication - if not set, authentication is disabled",
		func(o server.Options) string {
			return ""
		},
		func(o *server.Options, co *confOpt) error {
			o.BasicAuthUsername = co.value()
			return nil
		},
	)
	httpBasicAuthPassword := conf.addServerOption(
		optHttpBasicAuthPassword,
		"password for basic authentication",
		func(o server.Options) string {
			return ""
		},
		func(o *server.Options, co *confOpt) error {
			password := co.value()
			if password == "" && httpBasicAuthUsername.value() != "" {
				return fmt.Errorf("is empty, but %s is set", httpBasicAuthUsername.key)
			}
			if password != "" && httpBasicAuthUsername.value() == "" {
				return fmt.Errorf("is set, but %s is empty", httpBasicAuthUsername.key)
			}

			o.BasicAuthPassword = password
			return nil
		},
	)
	httpBasicAuthPassword.secret = true
	conf.addServerOption(
		optHttpBindAddress,
		"TCP address of the HTTP server to listen on",
		func(o server.Options) string {
			return o.BindAddress
		},
		func(o *server.Options, co *confOpt) error {
			bindAddress := co.value()
			if bindAddress == "" {
				return errors.New("is empty")
			}

			o.BindAddress = bindAddress
			return nil
		},
	)
	conf.addServerOption(
		optHttpPortRetry,
		"listen on a free port, when the bind address is already in use",
		func(o server.Options) string {
			return strconv.FormatBool(o.PortRetry)
		},
		func(o *server.Options, co *confOpt) error {
			portRetry, err := strconv.ParseBool(co.value())
			o.PortRetry = portRetry
			return err
		},
	)
	conf.addServerOption(
		optHttpReadTimeout,
		"maximum duration for reading the entire request - see http.Server#ReadTimeout",
		func(o server.Options) string {
			return o.ReadTimeout.String()
		},
		func(o *server.Options, co *confOpt) error {
			readTimeout, err := time.ParseDuration(co.value())
			o.ReadTimeout = readTimeout
			return err
		},
	)
	conf.addServerOption(
		optHttpWriteTimeout,
		"maximum duration before timing out writing the response - see http.Server#WriteTimeout",
		func(o server.Options) string {
			return o.WriteTimeout.String()
		},
		func(o *server.Options, co *confOpt) error {
			writeTimeout, err := time.ParseDuration(co.value())
			o.WriteTimeout = writeTimeout
			return err
		},
	)

	return &conf
}

func listConf(conf *conf) int {
	opts := conf.sortedOpts()

	log.SetFlags(0)
	for _, opt := range opts {
		value := opt.value()
		if opt.secret && value != "" {
			value = "***"
		}
		log.Printf("%s=%s", opt.key, value)
	}

	return 0
}

func listConfErrors(conf *conf) int {
	var opts []*confOpt

	for _, opt := range conf.sortedOpts() {
		if opt.err != nil {
			opts = append(opts, opt)
		}
	}

	if len(opts) == 0 {
		return 0
	}

	log.SetFlags(0)
	for _, opt := range opts {
		value := opt.value()
		if value == "" || opt.secret {
			log.Printf("%s: %v", opt.key, opt.err)
		} else {
			log.Printf("%s=%s: %v", opt.key, value, opt.err)
		}
	}

	return 1
}

func listConfOpts(conf *conf) int {
	opts := conf.sortedOpts()

	maxKeyLength := 0
	for _, opt := range opts {
		maxKeyLength = max(maxKeyLength, len(opt.key))
	}

	var sb strings.Builder
	for _, opt := range opts {
		sb.WriteString(opt.key)
		sb.WriteString(strings.Repeat(" ", maxKeyLength-len(opt.key)))
		sb.WriteString("   ")
		sb.WriteString(opt.description)

		if opt.defaultValue != "" {
			sb.WriteString(fmt.Sprintf(" - default: %s", opt.defaultValue))
		}

		sb.WriteRune('\n')
	}

	log.SetFlags(0)
	log.Print(sb.String())

	return 0
}

func showVersion() int {
	log.Println(version)
	return 0
}

type conf struct {
	envFile envFile
	opts    map[string]*confOpt
}

func (c *conf) addOption(key string, description string) *confOpt {
	co := confOpt{
		env:         c.envFile.env,
		key:         envPrefix + key,
		description: description,
	}

	c.opts[key] = &co
	return &co
}

func (c *conf) addServerOption(
	key string,
	description string,
	getOption func(server.Options) string,
	setOption func(*server.Options, *confOpt) error,
) *confOpt {
	co := c.addOption(key, description)
	co.getServerOption = getOption
	co.setServerOption = setOption
	return co
}

func (c *conf) getServerOptions(options *server.Options) {
	for _, opt := range c.opts {
		if opt.setServerOption != nil {
			if err := opt.setServerOption(options, opt); err != nil {
				opt.err = err
			}
		}
	}
}

func (c *conf) setServerOptions(options server.Options) {
	for _, opt := range c.opts {
		if opt.getServerOption != nil {
			opt.defaultValue = opt.getServerOption(options)
		}
	}
}

func (c *conf) sortedOpts() []*confOpt {
	opts := make([]*confOpt, 0, len(c.opts))
	for _, opt := range c.opts {
		opts = append(opts, opt)
	}

	slices.SortFunc(opts, func(a *confOpt, b *confOpt) int {
		return strings.Compare(a.key, b.key)
	})

	return opts
}

type confOpt struct {
	env env

	key          string
	description  string
	secret       bool // value is masked, when listed
	defaultValue string

	getServerOption func(server.Options) string
	setServerOption func(*server.Options, *confOpt) error

	err error
}

func (o *confOpt) value() string {
	value := o.env[o.key]
	if value != "" {
		return value
	} else {
		return o.defaultValue
	}
}

type env map[string]string

func (v env) Set(value string) error {
	s := strings.SplitN(value, "=", 2)
	if len(s) != 2 {
		return fmt.Errorf("required format %s", v)
	}
	v[s[0]] = s[1]
	return nil
}

func (v env) String() string {
	return "<key>=<value>"
}

type envFile struct {
	env env
}

func (v envFile) Set(value string) error {
	file, err := os.Open(value)
	if err != nil {
		return err
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)

	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := v.env.Set(line); err != nil {
			return fmt.Errorf("wrong format in line %d: required format %s", i, v.env)
		}
	}

	return scanner.Err()
}

func (v envFile) String() string {
	return "<file>"
}
