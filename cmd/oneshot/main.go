package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/indigo-web/oneshot"
	"github.com/indigo-web/oneshot/config"
	"github.com/rs/zerolog"
)

func main() {
	var (
		configFile = flag.String("config", "", "JSON config file, overlaid on top of defaults")
		port       = flag.Uint("port", 8080, "port to listen on, all IPv4 addresses")
		backlog    = flag.Int("backlog", 10, "pending connections queue length")
		bufferSize = flag.Int("buffer", 4096, "maximal request size, read at once")
		root       = flag.String("root", ".", "directory to serve files from")
		index      = flag.String("index", "index.html", "document served for /")
		unconfined = flag.Bool("unconfined", false, "allow paths escaping the root directory")
		errorResps = flag.Bool("error-responses", false, "respond with 403/404/500 instead of closing")
		tolerate   = flag.Bool("tolerate-accept-errors", false, "don't stop the server on a failed accept")
		readTO     = flag.Duration("read-timeout", 0, "request read deadline, 0 to disable")
		writeTO    = flag.Duration("write-timeout", 0, "response write deadline, 0 to disable")
		logFormat  = flag.String("log-format", "console", "either console or json")
		logLevel   = flag.String("log-level", "info", "minimal log level")
	)

	flag.Parse()

	log := newLogger(*logFormat, *logLevel)

	if *port > 65535 {
		log.Error().Uint("port", *port).Msg("port out of range")
		os.Exit(1)
	}

	cfg := config.Default()
	if len(*configFile) > 0 {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Error().Err(err).Msg("cannot load config")
			os.Exit(1)
		}
	}

	// explicitly passed flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.NET.Port = uint16(*port)
		case "backlog":
			cfg.NET.Backlog = *backlog
		case "buffer":
			cfg.NET.ReadBufferSize = *bufferSize
		case "root":
			cfg.Files.Root = *root
		case "index":
			cfg.Files.Index = *index
		case "unconfined":
			cfg.Files.Confine = !*unconfined
		case "error-responses":
			cfg.HTTP.ErrorResponses = *errorResps
		case "tolerate-accept-errors":
			cfg.NET.TolerateAcceptErrors = *tolerate
		case "read-timeout":
			cfg.NET.ReadTimeout = *readTO
		case "write-timeout":
			cfg.NET.WriteTimeout = *writeTO
		}
	})

	app := oneshot.New(cfg).Logger(log)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	app.NotifyOnStart(func() {
		go func() {
			sig := <-signals
			log.Info().Stringer("signal", sig).Msg("shutting down")
			app.Stop()
		}()
	})

	if err := app.Serve(); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func newLogger(format, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if format == "json" {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return log.Level(lvl).With().Timestamp().Logger()
}
