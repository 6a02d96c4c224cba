package config

import (
	"fmt"
	"time"

	"github.com/OCAP2/royale/internal/match"
	"github.com/OCAP2/royale/internal/zone"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "royale_server.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds the in-memory sqlite backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpDir      string        `json:"dumpDir" mapstructure:"dumpDir"`
}

// StorageConfig selects and configures the match history backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds the Postgres connection settings
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type InfluxConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Protocol string `mapstructure:"protocol"`
	Token    string `mapstructure:"token"`
	Org      string `mapstructure:"org"`
	Bucket   string `mapstructure:"bucket"`
}

type OTelConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ServiceName  string        `mapstructure:"serviceName"`
	BatchTimeout time.Duration `mapstructure:"batchTimeout"`
	Endpoint     string        `mapstructure:"endpoint"`
	Insecure     bool          `mapstructure:"insecure"`
}

// GatewayConfig points at the messaging gateway. The server dials out to
// it; inputs arrive and events leave over that one socket.
type GatewayConfig struct {
	URL          string        `mapstructure:"url"`
	Secret       string        `mapstructure:"secret"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	PingInterval time.Duration `mapstructure:"pingInterval"`
}

// APIConfig points at the rewards service.
type APIConfig struct {
	ServerURL string `mapstructure:"serverUrl"`
	APIKey    string `mapstructure:"apiKey"`
}

type MonitorConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	StatusFile string        `mapstructure:"statusFile"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./royalelogs")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "royale")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "royale-metrics")
	viper.SetDefault("influx.bucket", "royale")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./matches")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpDir", "./matches")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "royale-server")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("gateway.url", "ws://localhost:8080/ws/royale")
	viper.SetDefault("gateway.secret", "")
	viper.SetDefault("gateway.writeTimeout", "10s")
	viper.SetDefault("gateway.pingInterval", "30s")

	viper.SetDefault("monitor.interval", "15s")
	viper.SetDefault("monitor.statusFile", "status.json")

	def := match.DefaultConfig()
	viper.SetDefault("match.tickRate", def.TickRate)
	viper.SetDefault("match.maxPlayers", def.MaxPlayers)
	viper.SetDefault("match.teamSize", def.TeamSize)
	viper.SetDefault("match.maxDuration", def.MaxDuration.String())
	viper.SetDefault("match.killFeedSize", def.KillFeedSize)
	viper.SetDefault("match.seed", def.Seed)
	viper.SetDefault("match.mapSize", def.World.MapSize)
	viper.SetDefault("match.buildings", def.World.Buildings)
	viper.SetDefault("match.vehicles", def.World.Vehicles)
	viper.SetDefault("match.looseLoot", def.World.LooseLoot)
	viper.SetDefault("match.lootDespawn", def.Loot.Despawn.String())
	viper.SetDefault("match.lootRespawn", def.Loot.RespawnCooldown.String())
	viper.SetDefault("match.finalCirclePhase", def.FinalCirclePhase)
	viper.SetDefault("match.friendlyFire", def.Combat.FriendlyFire)
}

// decodeHook turns "90s" style strings into durations.
var decodeHook = viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())

// GetMatchConfig builds the match rule set from the "match" section on top
// of the built-in defaults.
func GetMatchConfig() (match.Config, error) {
	cfg := match.DefaultConfig()
	cfg.TickRate = viper.GetInt("match.tickRate")
	cfg.MaxPlayers = viper.GetInt("match.maxPlayers")
	cfg.TeamSize = viper.GetInt("match.teamSize")
	cfg.MaxDuration = viper.GetDuration("match.maxDuration")
	cfg.KillFeedSize = viper.GetInt("match.killFeedSize")
	cfg.Seed = viper.GetInt64("match.seed")
	cfg.World.MapSize = viper.GetFloat64("match.mapSize")
	cfg.World.Buildings = viper.GetInt("match.buildings")
	cfg.World.Vehicles = viper.GetInt("match.vehicles")
	cfg.World.LooseLoot = viper.GetInt("match.looseLoot")
	cfg.Loot.Despawn = viper.GetDuration("match.lootDespawn")
	cfg.Loot.RespawnCooldown = viper.GetDuration("match.lootRespawn")
	cfg.FinalCirclePhase = viper.GetInt("match.finalCirclePhase")
	cfg.Combat.FriendlyFire = viper.GetBool("match.friendlyFire")

	if viper.IsSet("match.zone") {
		var phases zone.Schedule
		if err := viper.UnmarshalKey("match.zone", &phases, decodeHook); err != nil {
			return cfg, fmt.Errorf("error decoding zone schedule: %w", err)
		}
		cfg.Zone = phases
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid match config: %w", err)
	}
	return cfg, nil
}

func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpDir:      viper.GetString("storage.sqlite.dumpDir"),
		},
	}
}

func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
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

func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

func GetGatewayConfig() GatewayConfig {
	return GatewayConfig{
		URL:          viper.GetString("gateway.url"),
		Secret:       viper.GetString("gateway.secret"),
		WriteTimeout: viper.GetDuration("gateway.writeTimeout"),
		PingInterval: viper.GetDuration("gateway.pingInterval"),
	}
}

func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
	}
}

func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
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
