package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/terminus-adherence/internal/terminus/delay"
)

// DefaultLateThresholdMinutes is the default for late_threshold_minutes: a delay strictly
// above it counts as late.
const DefaultLateThresholdMinutes = delay.DefaultLateThresholdMinutes

// AllCategories disables category filtering
const AllCategories = "All"

// Source kinds
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Source   SourceConfig   `yaml:"source"`
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AnalysisConfig holds the user-facing tunables of a run
type AnalysisConfig struct {
	// LateThresholdMinutes: a half-turnaround whose delay exceeds this is late.
	LateThresholdMinutes float64 `yaml:"late_threshold_minutes"`
	Category             string  `yaml:"category"`
	// From and To bound service_date inclusively, YYYY-MM-DD. Empty means the
	// full range of the departure dataset.
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type SourceConfig struct {
	Kind           string `yaml:"kind"`
	ArrivalsPath   string `yaml:"arrivals_path"`
	DeparturesPath string `yaml:"departures_path"`
	DownloadDir    string `yaml:"download_dir"`
	Timezone       string `yaml:"timezone"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Schema   string `yaml:"schema"`
}

type OutputConfig struct {
	ChartPath  string `yaml:"chart_path"`
	DiscordURL string `yaml:"discord_url"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			LateThresholdMinutes: DefaultLateThresholdMinutes,
			Category:             AllCategories,
		},
		Source: SourceConfig{
			Kind:           SourceCSV,
			ArrivalsPath:   "data/soustraitance_terminusend.csv",
			DeparturesPath: "data/soustraitance_terminusstart.csv",
			DownloadDir:    filepath.Join(os.TempDir(), "terminus-data"),
			Timezone:       "UTC",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DBName:  "terminus",
			SSLMode: "disable",
			Schema:  "terminus",
		},
		Output: OutputConfig{
			ChartPath: "terminus_lateness.png",
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: "terminusdelay.log",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (skipped when
// path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TERMINUS_CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LATE_THRESHOLD_MINUTES"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LATE_THRESHOLD_MINUTES: %w", err)
		}
		c.Analysis.LateThresholdMinutes = f
	}
	c.Analysis.Category = getEnv("TERMINUS_CATEGORY", c.Analysis.Category)
	c.Analysis.From = getEnv("TERMINUS_FROM", c.Analysis.From)
	c.Analysis.To = getEnv("TERMINUS_TO", c.Analysis.To)

	c.Source.Kind = strings.ToLower(getEnv("TERMINUS_SOURCE", c.Source.Kind))
	c.Source.ArrivalsPath = getEnv("TERMINUS_ARRIVALS_FILE", c.Source.ArrivalsPath)
	c.Source.DeparturesPath = getEnv("TERMINUS_DEPARTURES_FILE", c.Source.DeparturesPath)
	c.Source.DownloadDir = getEnv("TERMINUS_DOWNLOAD_DIR", c.Source.DownloadDir)
	c.Source.Timezone = getEnv("TERMINUS_TIMEZONE", c.Source.Timezone)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.Schema = getEnv("DB_SCHEMA", c.Database.Schema)

	c.Output.ChartPath = getEnv("CHART_OUTPUT", c.Output.ChartPath)
	c.Output.DiscordURL = getEnv("DISCORD_WEBHOOK_URL", c.Output.DiscordURL)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.FilePath = getEnv("LOG_FILE", c.Logging.FilePath)
	return nil
}

// Validate checks the values a run depends on
func (c *Config) Validate() error {
	t := c.Analysis.LateThresholdMinutes
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return fmt.Errorf("late_threshold_minutes must be a finite non-negative number, got %v", t)
	}

	for name, v := range map[string]string{"from": c.Analysis.From, "to": c.Analysis.To} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return fmt.Errorf("analysis.%s must be YYYY-MM-DD: %w", name, err)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Source.Kind {
	case SourceCSV:
		if c.Source.ArrivalsPath == "" || c.Source.DeparturesPath == "" {
			return fmt.Errorf("csv source needs both arrivals_path and departures_path")
		}
	case SourcePostgres:
		return c.Database.Validate()
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	return nil
}

// Location resolves the timezone used for naive timestamps
func (c *Config) Location() (*time.Location, error) {
	if c.Source.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Source.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Source.Timezone, err)
	}
	return loc, nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Host == "" || c.DBName == "" || c.User == "" {
		return fmt.Errorf("database host, user and name are required")
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
