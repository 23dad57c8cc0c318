package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"agristats/internal/config"
	"agristats/internal/database"
	"agristats/internal/engine"
	"agristats/internal/output"
	"agristats/internal/server"
)

const usage = `usage: agristats <command> [flags]

commands:
  query   run one dashboard query and print the result
  serve   serve the dashboard queries over HTTP

Run "agristats <command> -h" for the flags of a command.
`

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		exitCode = 2
		return
	}

	switch os.Args[1] {
	case "query":
		exitCode = runQuery(os.Args[2:], os.Stdout)
	case "serve":
		exitCode = runServe(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		exitCode = 2
	}
}

const defaultConfigPath = "config.yaml"

// common holds the flags shared by every command.
type common struct {
	configPath string
	driver     string
	dsn        string
	logLevel   string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", defaultConfigPath, "path to a YAML config file")
	fs.StringVar(&c.driver, "source", "", "source driver (postgres, mysql, mongo or memory); overrides the config")
	fs.StringVar(&c.dsn, "dsn", "", "connection string or fixture path for the source; overrides the config")
	fs.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// load reads the config, applies flag overrides and sets up logging.
func (c *common) load() (*config.Config, error) {
	path := c.configPath
	// Without a config.yaml in the working directory the defaults apply.
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.driver != "" {
		cfg.Source.Driver = c.driver
	}
	if c.dsn != "" {
		switch cfg.Source.Driver {
		case "postgres":
			cfg.Databases.Postgres = c.dsn
		case "mysql":
			cfg.Databases.MySQL = c.dsn
		case "mongo":
			cfg.Databases.Mongo = c.dsn
		case "memory":
			cfg.Databases.Memory = c.dsn
		}
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	return cfg, nil
}

// openSource connects to the source the config selects.
func openSource(ctx context.Context, cfg *config.Config) (database.Source, error) {
	sources := map[string]database.Source{
		"postgres": &database.PostgresSource{},
		"mysql":    &database.MySQLSource{},
		"mongo":    &database.MongoSource{Database: cfg.Databases.MongoDatabase},
		"memory":   &database.MemorySource{},
	}

	src, ok := sources[cfg.Source.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported source driver: %s", cfg.Source.Driver)
	}
	if err := src.Connect(ctx, cfg.DSN()); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Source.Driver, err)
	}
	return src, nil
}

func runQuery(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	var c common
	c.register(fs)
	var qf queryFlags
	qf.register(fs)
	format := fs.String("format", "json", "output format (json, table or xlsx)")
	out := fs.String("out", "", "write to this file instead of stdout")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: agristats query -op <name> [flags]\n\nqueries: %s\n\nflags:\n", strings.Join(opNames(), ", "))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "n" {
			qf.nSet = true
		}
	})

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	op, ok := queryOps[qf.op]
	if !ok {
		log.Error().Str("op", qf.op).Strs("known", opNames()).Msg("unknown query")
		return 2
	}
	f, err := output.ParseFormat(*format)
	if err != nil {
		log.Error().Err(err).Send()
		return 2
	}
	if f == output.XLSX && *out == "" {
		log.Error().Msg("xlsx output needs -out")
		return 2
	}

	cfg, err := c.load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	ctx := context.Background()
	src, err := openSource(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to open source")
		return 1
	}
	defer src.Close()

	eng := engine.New(src, engine.WithLogger(log.Logger))
	result, err := op(ctx, eng, qf)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			log.Error().Str("op", qf.op).Msg(verr.Message)
			return 2
		}
		log.Error().Err(err).Str("op", qf.op).Msg("query failed")
		return 1
	}

	w := stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			log.Error().Err(err).Msg("failed to create output file")
			return 1
		}
		defer file.Close()
		w = file
	}
	if err := output.Write(w, f, qf.op, result); err != nil {
		log.Error().Err(err).Msg("failed to write result")
		return 1
	}
	return 0
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var c common
	c.register(fs)
	addr := fs.String("addr", "", "listen address; overrides the config")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := c.load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to open source")
		return 1
	}
	defer src.Close()

	eng := engine.New(src, engine.WithLogger(log.Logger))
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(eng, server.WithLogger(log.Logger)).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("source", cfg.Source.Driver).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		log.Error().Err(err).Msg("server stopped")
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		return 1
	}
	log.Info().Msg("server stopped")
	return 0
}
