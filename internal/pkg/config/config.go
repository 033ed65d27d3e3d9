package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Parcels   ParcelsConfig   `mapstructure:"parcels"`
	Overlay   OverlayConfig   `mapstructure:"overlay"`
	Map       MapConfig       `mapstructure:"map"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// NATSConfig: an empty URL disables NATS; events are then only logged.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig: an empty Addr disables the parcel cache.
type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Parcel providers.
const (
	ProviderRegrid  = "regrid"
	ProviderPostGIS = "postgis"
	ProviderFile    = "file"
)

type ParcelsConfig struct {
	Provider      string        `mapstructure:"provider"`
	BaseURL       string        `mapstructure:"base_url"`
	Token         string        `mapstructure:"token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	SearchRadiusM float64       `mapstructure:"search_radius_m"`
	File          string        `mapstructure:"file"`
}

// Bounds storage backends.
const (
	StorageValkey   = "valkey"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type OverlayConfig struct {
	ID            string    `mapstructure:"id"`
	ImageURL      string    `mapstructure:"image_url"`
	DefaultBounds []float64 `mapstructure:"default_bounds"`
	Tolerance     float64   `mapstructure:"tolerance"`
	Storage       string    `mapstructure:"storage"`
	StorageKey    string    `mapstructure:"storage_key"`
}

// Bounds returns DefaultBounds ([swLat, swLon, neLat, neLon]) as bounds.
func (o OverlayConfig) Bounds() (domain.OverlayBounds, error) {
	if len(o.DefaultBounds) != 4 {
		return domain.OverlayBounds{}, fmt.Errorf("overlay.default_bounds needs 4 numbers, got %d", len(o.DefaultBounds))
	}
	b := o.DefaultBounds
	return domain.NewOverlayBounds(domain.GeoPoint{Lat: b[0], Lon: b[1]}, domain.GeoPoint{Lat: b[2], Lon: b[3]})
}

type MapConfig struct {
	CenterLat    float64 `mapstructure:"center_lat"`
	CenterLon    float64 `mapstructure:"center_lon"`
	Zoom         float64 `mapstructure:"zoom"`
	Width        float64 `mapstructure:"width"`
	Height       float64 `mapstructure:"height"`
	ReferenceLat float64 `mapstructure:"reference_lat"`
	ReferenceLon float64 `mapstructure:"reference_lon"`
}

// Reference is the point parcels are first fetched around.
func (m MapConfig) Reference() domain.GeoPoint {
	return domain.GeoPoint{Lat: m.ReferenceLat, Lon: m.ReferenceLon}
}

// UsesDatabase reports whether any component needs PostgreSQL.
func (c *Config) UsesDatabase() bool {
	return c.Parcels.Provider == ProviderPostGIS || c.Overlay.Storage == StoragePostgres
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "plotfit")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "plotfit")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("parcels.provider", ProviderRegrid)
	v.SetDefault("parcels.base_url", "https://app.regrid.com")
	v.SetDefault("parcels.token", "")
	v.SetDefault("parcels.timeout", 15*time.Second)
	v.SetDefault("parcels.cache_ttl", 10*time.Minute)
	v.SetDefault("parcels.search_radius_m", 250.0)
	v.SetDefault("parcels.file", "parcels.geojson")
	v.SetDefault("overlay.id", "default")
	v.SetDefault("overlay.image_url", "https://storage.googleapis.com/plotfit-assets/site-plan.png")
	v.SetDefault("overlay.default_bounds", []float64{37.774, -122.42, 37.776, -122.418})
	v.SetDefault("overlay.tolerance", domain.DefaultTolerance)
	v.SetDefault("overlay.storage", StorageValkey)
	v.SetDefault("overlay.storage_key", "overlay:bounds")
	v.SetDefault("map.center_lat", 37.775)
	v.SetDefault("map.center_lon", -122.419)
	v.SetDefault("map.zoom", 18)
	v.SetDefault("map.width", 1280)
	v.SetDefault("map.height", 800)
	v.SetDefault("map.reference_lat", 32.7766642)
	v.SetDefault("map.reference_lon", -96.7969879)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PLOTFIT_PARCELS_TOKEN → parcels.token
	v.SetEnvPrefix("PLOTFIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	if c.UsesDatabase() {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}

	switch c.Parcels.Provider {
	case ProviderRegrid:
		if c.Parcels.BaseURL == "" {
			errs = append(errs, "parcels.base_url is required for the regrid provider")
		}
	case ProviderFile:
		if c.Parcels.File == "" {
			errs = append(errs, "parcels.file is required for the file provider")
		}
	case ProviderPostGIS:
	default:
		errs = append(errs, fmt.Sprintf("parcels.provider must be regrid, postgis or file, got %q", c.Parcels.Provider))
	}
	if c.Parcels.Timeout <= 0 {
		errs = append(errs, "parcels.timeout must be positive")
	}
	if c.Parcels.CacheTTL < 0 {
		errs = append(errs, "parcels.cache_ttl must not be negative")
	}
	if c.Parcels.SearchRadiusM <= 0 {
		errs = append(errs, "parcels.search_radius_m must be positive")
	}

	if c.Overlay.ID == "" {
		errs = append(errs, "overlay.id is required")
	}
	if _, err := c.Overlay.Bounds(); err != nil {
		errs = append(errs, "overlay.default_bounds: "+err.Error())
	}
	if c.Overlay.Tolerance <= 0 {
		errs = append(errs, "overlay.tolerance must be positive")
	}
	switch c.Overlay.Storage {
	case StorageValkey:
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required for valkey overlay storage")
		}
	case StoragePostgres, StorageMemory:
	default:
		errs = append(errs, fmt.Sprintf("overlay.storage must be valkey, postgres or memory, got %q", c.Overlay.Storage))
	}

	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		errs = append(errs, "map.width and map.height must be positive")
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 24 {
		errs = append(errs, fmt.Sprintf("map.zoom must be 0-24, got %g", c.Map.Zoom))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
