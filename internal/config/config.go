package config

import (
	"fmt"
	"time"

	"github.com/snar-ar/overlay/internal/database"
	"github.com/snar-ar/overlay/internal/style"
	"github.com/snar-ar/overlay/internal/tracking/sim"
	"github.com/snar-ar/overlay/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up by Load.
const FileName = "overlay.cfg.json"

// ProjectionConfig holds camera intrinsics for simulated and one-shot frames.
type ProjectionConfig struct {
	FieldOfView float64 `json:"fieldOfView" mapstructure:"fieldOfView"`
	Near        float64 `json:"near" mapstructure:"near"`
	Far         float64 `json:"far" mapstructure:"far"`
}

// FrameConfig holds host loop settings
type FrameConfig struct {
	Interval       time.Duration `json:"interval" mapstructure:"interval"`
	StatusInterval time.Duration `json:"statusInterval" mapstructure:"statusInterval"`
}

// POIConfig selects where points of interest are loaded from
type POIConfig struct {
	Source string `json:"source" mapstructure:"source"` // json | geojson | sqlite | postgres
	Path   string `json:"path" mapstructure:"path"`
	Index  bool   `json:"index" mapstructure:"index"`
}

// SinkConfig selects where annotations are rendered
type SinkConfig struct {
	Type   string `json:"type" mapstructure:"type"` // log | memory | websocket
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds frame telemetry settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL returns the InfluxDB server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds GELF shipping settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
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

// SetDefaults registers every default. Load calls it; callers that run
// without a config file call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./overlaylogs")

	viper.SetDefault("style.maxTextScale", style.DefaultMaxTextScale)
	viper.SetDefault("style.minTextScale", style.DefaultMinTextScale)
	viper.SetDefault("style.maxVisibleDistance", style.DefaultMaxVisibleDistance)

	viper.SetDefault("projection.fieldOfView", 60.0)
	viper.SetDefault("projection.near", 0.1)
	viper.SetDefault("projection.far", 100.0)

	viper.SetDefault("frame.interval", "100ms")
	viper.SetDefault("frame.statusInterval", "1s")

	viper.SetDefault("poi.source", "json")
	viper.SetDefault("poi.path", "./building_info.json")
	viper.SetDefault("poi.index", true)

	viper.SetDefault("sink.type", "log")
	viper.SetDefault("sink.url", "")
	viper.SetDefault("sink.secret", "")

	viper.SetDefault("sim.latitude", 0.0)
	viper.SetDefault("sim.longitude", 0.0)
	viper.SetDefault("sim.altitude", 0.0)
	viper.SetDefault("sim.heading", 0.0)
	viper.SetDefault("sim.width", 1000.0)
	viper.SetDefault("sim.height", 1000.0)

	viper.SetDefault("db.driver", "sqlite")
	viper.SetDefault("db.path", "./overlay.db")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "overlay")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "overlay-metrics")
	viper.SetDefault("influx.bucket", "frames")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "snar-overlay")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetStyleConfig returns the distance-to-style constants.
func GetStyleConfig() style.Config {
	return style.Config{
		MaxTextScale:       viper.GetFloat64("style.maxTextScale"),
		MinTextScale:       viper.GetFloat64("style.minTextScale"),
		MaxVisibleDistance: viper.GetFloat64("style.maxVisibleDistance"),
	}
}

// GetProjectionConfig returns the camera intrinsics.
func GetProjectionConfig() ProjectionConfig {
	return ProjectionConfig{
		FieldOfView: viper.GetFloat64("projection.fieldOfView"),
		Near:        viper.GetFloat64("projection.near"),
		Far:         viper.GetFloat64("projection.far"),
	}
}

func GetFrameConfig() FrameConfig {
	return FrameConfig{
		Interval:       viper.GetDuration("frame.interval"),
		StatusInterval: viper.GetDuration("frame.statusInterval"),
	}
}

func GetPOIConfig() POIConfig {
	return POIConfig{
		Source: viper.GetString("poi.source"),
		Path:   viper.GetString("poi.path"),
		Index:  viper.GetBool("poi.index"),
	}
}

func GetSinkConfig() SinkConfig {
	return SinkConfig{
		Type:   viper.GetString("sink.type"),
		URL:    viper.GetString("sink.url"),
		Secret: viper.GetString("sink.secret"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

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

func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetDBConfig returns the point of interest store connection settings.
func GetDBConfig() database.Config {
	return database.Config{
		Driver:   viper.GetString("db.driver"),
		Path:     viper.GetString("db.path"),
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetSimConfig returns the simulated tracking session. The local origin is
// anchored at the starting camera position.
func GetSimConfig() sim.Config {
	camera := core.GeodeticCoordinate{
		Latitude:  viper.GetFloat64("sim.latitude"),
		Longitude: viper.GetFloat64("sim.longitude"),
		Altitude:  viper.GetFloat64("sim.altitude"),
	}
	p := GetProjectionConfig()
	return sim.Config{
		Origin:      camera,
		Camera:      camera,
		Heading:     viper.GetFloat64("sim.heading"),
		FieldOfView: p.FieldOfView,
		Near:        p.Near,
		Far:         p.Far,
		Viewport: core.Viewport{
			Width:  viper.GetFloat64("sim.width"),
			Height: viper.GetFloat64("sim.height"),
		},
	}
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
