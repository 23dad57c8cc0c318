package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Source            Source            `yaml:"source"`
	Databases         Databases         `yaml:"databases"`
	Server            Server            `yaml:"server"`
	BenchmarkSettings BenchmarkSettings `yaml:"benchmark_settings"`
	Log               Log               `yaml:"log"`
}

type Source struct {
	// Driver is one of postgres, mysql, mongo or memory.
	Driver string `yaml:"driver"`
}

type Databases struct {
	Postgres      string `yaml:"postgres"`
	MySQL         string `yaml:"mysql"`
	Mongo         string `yaml:"mongo"`
	MongoDatabase string `yaml:"mongo_database"`
	// Memory is the path of a JSON fixture.
	Memory string `yaml:"memory"`
}

type Server struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type BenchmarkSettings struct {
	DefaultDuration    string `yaml:"default_duration"`
	DefaultConcurrency int    `yaml:"default_concurrency"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source:    Source{Driver: "memory"},
		Databases: Databases{MongoDatabase: "agristats"},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		BenchmarkSettings: BenchmarkSettings{
			DefaultDuration:    "30s",
			DefaultConcurrency: 10,
		},
		Log: Log{Level: "info"},
	}
}

// LoadConfig reads a YAML file on top of Default. A .env file in the working
// directory is loaded first when present, then AGRISTATS_* variables override
// the file. Callers run Validate once command-line overrides are applied.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		err = yaml.Unmarshal(file, config)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	config.applyEnv()
	return config, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"AGRISTATS_SOURCE":         &c.Source.Driver,
		"AGRISTATS_POSTGRES_DSN":   &c.Databases.Postgres,
		"AGRISTATS_MYSQL_DSN":      &c.Databases.MySQL,
		"AGRISTATS_MONGO_URI":      &c.Databases.Mongo,
		"AGRISTATS_MONGO_DATABASE": &c.Databases.MongoDatabase,
		"AGRISTATS_FIXTURE":        &c.Databases.Memory,
		"AGRISTATS_ADDR":           &c.Server.Addr,
		"AGRISTATS_LOG_LEVEL":      &c.Log.Level,
	}
	for name, dst := range overrides {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}

// DSN returns the connection string of the configured source driver.
func (c *Config) DSN() string {
	switch c.Source.Driver {
	case "postgres":
		return c.Databases.Postgres
	case "mysql":
		return c.Databases.MySQL
	case "mongo":
		return c.Databases.Mongo
	case "memory":
		return c.Databases.Memory
	}
	return ""
}

func (c *Config) Validate() error {
	switch c.Source.Driver {
	case "postgres", "mysql", "mongo", "memory":
	default:
		return fmt.Errorf("unsupported source driver %q", c.Source.Driver)
	}
	if c.DSN() == "" {
		return fmt.Errorf("no connection string configured for %s", c.Source.Driver)
	}
	if _, err := time.ParseDuration(c.BenchmarkSettings.DefaultDuration); err != nil {
		return fmt.Errorf("benchmark_settings.default_duration: %w", err)
	}
	return nil
}
