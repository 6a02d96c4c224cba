package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/royale/internal/zone"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
	assert.Equal(t, "postgres", viper.GetString("db.username"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./royalelogs", viper.GetString("logsDir"))
	assert.Equal(t, "http://localhost:5000", viper.GetString("api.serverUrl"))
	assert.Equal(t, "", viper.GetString("api.apiKey"))
	assert.Equal(t, "royale", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "ws://localhost:8080/ws/royale", viper.GetString("gateway.url"))
	assert.Equal(t, 20, viper.GetInt("match.tickRate"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetMatchConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg, err := GetMatchConfig()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.TickRate)
	assert.Equal(t, 60, cfg.MaxPlayers)
	assert.Equal(t, 1, cfg.TeamSize)
	assert.Equal(t, 30*time.Minute, cfg.MaxDuration)
	assert.Equal(t, 5*time.Minute, cfg.Loot.Despawn)
	assert.Equal(t, 90*time.Second, cfg.Loot.RespawnCooldown)
	assert.Equal(t, zone.DefaultSchedule(), cfg.Zone)
	assert.False(t, cfg.Combat.FriendlyFire)
}

func TestGetMatchConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"match": {
			"tickRate": 30,
			"teamSize": 4,
			"maxDuration": "20m",
			"mapSize": 8000,
			"friendlyFire": true,
			"finalCirclePhase": 1,
			"zone": [
				{ "wait": "60s", "shrink": "30s", "damagePerSecond": 2, "finalRadius": 3000 },
				{ "wait": "30s", "shrink": "20s", "damagePerSecond": 5, "finalRadius": 500 }
			]
		}
	}`)))

	cfg, err := GetMatchConfig()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TickRate)
	assert.Equal(t, 4, cfg.TeamSize)
	assert.Equal(t, 20*time.Minute, cfg.MaxDuration)
	assert.Equal(t, 8000.0, cfg.World.MapSize)
	assert.True(t, cfg.Combat.FriendlyFire)
	assert.Equal(t, 1, cfg.FinalCirclePhase)
	assert.Equal(t, zone.Schedule{
		{Wait: time.Minute, Shrink: 30 * time.Second, DamagePerSecond: 2, FinalRadius: 3000},
		{Wait: 30 * time.Second, Shrink: 20 * time.Second, DamagePerSecond: 5, FinalRadius: 500},
	}, cfg.Zone)
}

func TestGetMatchConfig_Invalid(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{ "match": { "teamSize": 0 } }`)))

	_, err := GetMatchConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "team size")
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./matches", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "dumpInterval": "10m" }
		}
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
	assert.Equal(t, "./matches", sc.SQLite.DumpDir)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "royale-server", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetGatewayConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"gateway": { "url": "wss://gw.example.com/royale", "secret": "s3cret", "pingInterval": "5s" }
	}`)))

	gc := GetGatewayConfig()
	assert.Equal(t, "wss://gw.example.com/royale", gc.URL)
	assert.Equal(t, "s3cret", gc.Secret)
	assert.Equal(t, 5*time.Second, gc.PingInterval)
	assert.Equal(t, 10*time.Second, gc.WriteTimeout)
}

func TestGetInfluxAndMonitorConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{ "influx": { "enabled": true, "bucket": "games" } }`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "games", ic.Bucket)
	assert.Equal(t, "royale-metrics", ic.Org)

	mc := GetMonitorConfig()
	assert.Equal(t, 15*time.Second, mc.Interval)
	assert.Equal(t, "status.json", mc.StatusFile)
}
