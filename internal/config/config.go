package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "brusilov_map.cfg.json"

// StorageConfig selects and configures the preferences backend
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"db" mapstructure:"db"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN returns the libpq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds InfluxDB usage metrics settings
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// URL returns the InfluxDB server URL.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// TilesConfig describes the tile endpoint published to map clients
type TilesConfig struct {
	URLTemplate  string
	Subdomains   string
	Attribution  string
	CheckOnStart bool
}

// MapConfig holds the initial map view and external links
type MapConfig struct {
	Center              [2]float64
	Zoom                int
	HistoricalMapURL    string
	HistoricalMapInline bool
	GalleryPlaceholder  string
	OverlayCloseDelay   time.Duration
}

// SessionConfig bounds how many map views the server keeps.
type SessionConfig struct {
	IdleTimeout time.Duration
	Max         int
}

// ContactsConfig is shown in the contacts overlay
type ContactsConfig struct {
	Email   string
	Website string
	Author  string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers default values and environment overrides
// (BRUSILOV_LISTEN, BRUSILOV_STORAGE_TYPE, ...).
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logRemoteLevel", "")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("listen", ":8080")
	viper.SetDefault("dataDir", "")

	viper.SetDefault("tiles.urlTemplate", "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png")
	viper.SetDefault("tiles.subdomains", "abcd")
	viper.SetDefault("tiles.attribution", "© OpenStreetMap contributors © CARTO")
	viper.SetDefault("tiles.checkOnStart", false)

	viper.SetDefault("map.center", []float64{49.8, 25.3})
	viper.SetDefault("map.zoom", 7)

	viper.SetDefault("historicalMap.url", "")
	viper.SetDefault("historicalMap.inline", true)
	viper.SetDefault("gallery.placeholder", "/assets/placeholder.svg")
	viper.SetDefault("overlay.closeDelay", "300ms")
	viper.SetDefault("session.idleTimeout", "30m")
	viper.SetDefault("session.max", 10000)

	viper.SetDefault("contacts.email", "")
	viper.SetDefault("contacts.website", "")
	viper.SetDefault("contacts.author", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "./brusilov_map.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "brusilov_map")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "brusilov-map")
	viper.SetDefault("influx.bucket", "map_usage")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "brusilov-map")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetEnvPrefix("BRUSILOV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetTilesConfig returns the tile endpoint settings.
func GetTilesConfig() TilesConfig {
	return TilesConfig{
		URLTemplate:  viper.GetString("tiles.urlTemplate"),
		Subdomains:   viper.GetString("tiles.subdomains"),
		Attribution:  viper.GetString("tiles.attribution"),
		CheckOnStart: viper.GetBool("tiles.checkOnStart"),
	}
}

// GetMapConfig returns the initial view, external links and overlay timing.
func GetMapConfig() MapConfig {
	cfg := MapConfig{
		Zoom:                viper.GetInt("map.zoom"),
		HistoricalMapURL:    viper.GetString("historicalMap.url"),
		HistoricalMapInline: viper.GetBool("historicalMap.inline"),
		GalleryPlaceholder:  viper.GetString("gallery.placeholder"),
		OverlayCloseDelay:   viper.GetDuration("overlay.closeDelay"),
	}
	if center, ok := floatPair(viper.Get("map.center")); ok {
		cfg.Center = center
	}
	return cfg
}

// GetSessionConfig returns the session expiry settings.
func GetSessionConfig() SessionConfig {
	return SessionConfig{
		IdleTimeout: viper.GetDuration("session.idleTimeout"),
		Max:         viper.GetInt("session.max"),
	}
}

// floatPair accepts the defaults' []float64 and the []any a JSON file decodes to.
func floatPair(v any) ([2]float64, bool) {
	var out [2]float64
	switch vals := v.(type) {
	case []float64:
		if len(vals) != 2 {
			return out, false
		}
		copy(out[:], vals)
		return out, true
	case []any:
		if len(vals) != 2 {
			return out, false
		}
		for i, x := range vals {
			f, ok := x.(float64)
			if !ok {
				return out, false
			}
			out[i] = f
		}
		return out, true
	}
	return out, false
}

// GetContactsConfig returns the contact details.
func GetContactsConfig() ContactsConfig {
	return ContactsConfig{
		Email:   viper.GetString("contacts.email"),
		Website: viper.GetString("contacts.website"),
		Author:  viper.GetString("contacts.author"),
	}
}
