package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"agristats/internal/config"
	"agristats/internal/database"
	"agristats/internal/engine"
	"agristats/internal/runner"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	dbType := flag.String("db", "", "source type (postgres, mysql, mongo or memory); defaults to the config")
	workloadName := flag.String("workload", "dashboard", fmt.Sprintf("workload to run %v", runner.Names()))
	concurrency := flag.Int("concurrency", 0, "number of concurrent workers; defaults to the config")
	duration := flag.Duration("duration", 0, "duration of the run; defaults to the config")

	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		exitCode = 1
		return
	}
	if *dbType != "" {
		cfg.Source.Driver = *dbType
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		exitCode = 1
		return
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if *concurrency == 0 {
		*concurrency = cfg.BenchmarkSettings.DefaultConcurrency
	}
	if *duration == 0 {
		// Validate has already parsed it.
		*duration, _ = time.ParseDuration(cfg.BenchmarkSettings.DefaultDuration)
	}

	dbs := map[string]database.Source{
		"postgres": &database.PostgresSource{},
		"mysql":    &database.MySQLSource{},
		"mongo":    &database.MongoSource{Database: cfg.Databases.MongoDatabase},
		"memory":   &database.MemorySource{},
	}

	src, ok := dbs[cfg.Source.Driver]
	if !ok {
		log.Error().Str("db", cfg.Source.Driver).Msg("unsupported source type")
		exitCode = 1
		return
	}

	ctx := context.Background()
	if err := src.Connect(ctx, cfg.DSN()); err != nil {
		log.Error().Err(err).Str("db", cfg.Source.Driver).Msg("failed to connect")
		exitCode = 1
		return
	}
	defer src.Close()

	eng := engine.New(src, engine.WithLogger(log.Logger))

	sample, err := runner.SampleFrom(ctx, eng)
	if err != nil {
		log.Error().Err(err).Msg("failed to pick query parameters")
		exitCode = 1
		return
	}
	workload, err := runner.Lookup(*workloadName, sample)
	if err != nil {
		log.Error().Err(err).Send()
		exitCode = 1
		return
	}

	log.Info().
		Str("workload", workload.Name).
		Str("db", cfg.Source.Driver).
		Str("product", sample.Product).
		Str("country", sample.Country).
		Int("year", sample.Year).
		Msg("running benchmark")

	result, err := runner.Run(ctx, eng, workload, *concurrency, *duration, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("benchmark failed")
		exitCode = 1
		return
	}

	jsonOutput, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal result")
		exitCode = 1
		return
	}
	fmt.Println(string(jsonOutput))
}
