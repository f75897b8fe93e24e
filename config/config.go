package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ai-startup-map/models"
)

// Config keys. Each key is also read from the environment variable of the
// same name upper-cased, e.g. CLUSTERS or POSTGRES_HOST.
const (
	KeySources          = "sources"
	KeyProcessedPath    = "processed_path"
	KeyClusteredPath    = "clustered_path"
	KeyClusters         = "clusters"
	KeyClusterMethod    = "cluster_method"
	KeyClusterSeed      = "cluster_seed"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeySQLitePath       = "sqlite_path"
	KeyPostgresEnabled  = "postgres_enabled"
	KeyPostgresHost     = "postgres_host"
	KeyPostgresPort     = "postgres_port"
	KeyPostgresUser     = "postgres_user"
	KeyPostgresPassword = "postgres_password"
	KeyPostgresDB       = "postgres_db"
	KeyPostgresSSLMode  = "postgres_sslmode"
	KeyMetricsTextfile  = "metrics_textfile"
	KeyMaxRetries       = "max_retries"
)

// DefaultSources lists the scraper outputs in merge priority order.
const DefaultSources = "Crunchbase=data/ai_startups_data.csv," +
	"ProductHunt=data/ai_producthunt_data.csv," +
	"LinkedIn=data/ai_linkedin_data.csv"

// Config holds all application configuration.
type Config struct {
	Sources       []models.SourceSpec
	ProcessedPath string
	ClusteredPath string

	Clusters      int
	ClusterMethod string
	ClusterSeed   int64

	LogLevel  string
	LogFormat string

	SQLitePath       string
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MetricsTextfile string
	MaxRetries      int
}

// NewViper returns a viper instance with every default set and automatic
// environment lookup enabled. Callers may bind command-line flags to it
// before passing it to FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(KeySources, DefaultSources)
	v.SetDefault(KeyProcessedPath, "data/ai_startups.csv")
	v.SetDefault(KeyClusteredPath, "data/clustered_ai_startups.csv")
	v.SetDefault(KeyClusters, 5)
	v.SetDefault(KeyClusterMethod, "kmeans")
	v.SetDefault(KeyClusterSeed, 42)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeySQLitePath, "")
	v.SetDefault(KeyPostgresEnabled, false)
	v.SetDefault(KeyPostgresHost, "localhost")
	v.SetDefault(KeyPostgresPort, "5432")
	v.SetDefault(KeyPostgresUser, "positioning")
	v.SetDefault(KeyPostgresPassword, "positioning")
	v.SetDefault(KeyPostgresDB, "startups_db")
	v.SetDefault(KeyPostgresSSLMode, "disable")
	v.SetDefault(KeyMetricsTextfile, "")
	v.SetDefault(KeyMaxRetries, 3)
	return v
}

// LoadDotEnv loads .env into the process environment when the file exists.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	sources, err := ParseSources(v.GetString(KeySources))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Sources:       sources,
		ProcessedPath: v.GetString(KeyProcessedPath),
		ClusteredPath: v.GetString(KeyClusteredPath),

		Clusters:      v.GetInt(KeyClusters),
		ClusterMethod: strings.ToLower(strings.TrimSpace(v.GetString(KeyClusterMethod))),
		ClusterSeed:   v.GetInt64(KeyClusterSeed),

		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),

		SQLitePath:       v.GetString(KeySQLitePath),
		PostgresEnabled:  v.GetBool(KeyPostgresEnabled),
		PostgresHost:     v.GetString(KeyPostgresHost),
		PostgresPort:     v.GetString(KeyPostgresPort),
		PostgresUser:     v.GetString(KeyPostgresUser),
		PostgresPassword: v.GetString(KeyPostgresPassword),
		PostgresDB:       v.GetString(KeyPostgresDB),
		PostgresSSLMode:  v.GetString(KeyPostgresSSLMode),

		MetricsTextfile: v.GetString(KeyMetricsTextfile),
		MaxRetries:      v.GetInt(KeyMaxRetries),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseSources parses "Name=path,Name=path". Order is merge priority.
func ParseSources(raw string) ([]models.SourceSpec, error) {
	var specs []models.SourceSpec
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, path, ok := strings.Cut(part, "=")
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, models.Errorf(models.KindInvalidConfig, "config",
				"source %q is not of the form Name=path", part)
		}
		if seen[name] {
			return nil, models.Errorf(models.KindInvalidConfig, "config", "source %q listed twice", name)
		}
		seen[name] = true
		specs = append(specs, models.SourceSpec{Name: name, Path: path})
	}
	return specs, nil
}

// Validate rejects out-of-range values with InvalidConfig. The clustering
// method name is checked against the algorithm registry when clustering runs.
func (c *Config) Validate() error {
	switch {
	case len(c.Sources) == 0:
		return models.NewError(models.KindInvalidConfig, "config", "no sources configured")
	case c.Clusters < 1:
		return models.Errorf(models.KindInvalidConfig, "config", "clusters must be at least 1, got %d", c.Clusters)
	case c.ClusterMethod == "":
		return models.NewError(models.KindInvalidConfig, "config", "cluster method is empty")
	case c.ProcessedPath == "" || c.ClusteredPath == "":
		return models.NewError(models.KindInvalidConfig, "config", "checkpoint paths must be set")
	case c.LogFormat != "console" && c.LogFormat != "json":
		return models.Errorf(models.KindInvalidConfig, "config", "log format %q is not console or json", c.LogFormat)
	case c.MaxRetries < 0:
		return models.Errorf(models.KindInvalidConfig, "config", "max retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
