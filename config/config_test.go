package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	conf := Default()
	assert.Equal(t, "!", conf.Prefix)
	assert.Equal(t, "sqlite", conf.Database.Driver)
	assert.Equal(t, 30*time.Minute, conf.Trade.Timeout)
	assert.Equal(t, 1500*time.Millisecond, conf.Battle.TurnDelay)
	assert.Equal(t, 1025, conf.Spawn.SpeciesCount)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	t.Setenv("DISCORD_BOT_KEY", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("GAME_MASTER", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
discord_bot_key: from-file
game_master: "42"
database:
  driver: postgres
  host: db.local
battle:
  turn_delay: 250ms
`), 0o600))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", conf.DiscordBotKey)
	assert.Equal(t, "42", conf.GameMaster)
	assert.Equal(t, "postgres", conf.Database.Driver)
	assert.Equal(t, "db.local", conf.Database.Host)
	assert.Equal(t, 250*time.Millisecond, conf.Battle.TurnDelay)
	// untouched sections keep defaults
	assert.Equal(t, "!", conf.Prefix)

	t.Setenv("DISCORD_BOT_KEY", "from-env")
	t.Setenv("BATTLE_TURN_DELAY", "2s")
	conf, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.DiscordBotKey)
	assert.Equal(t, 2*time.Second, conf.Battle.TurnDelay)
}

func TestLoad_MissingFile(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", conf.Database.Driver)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("LOG_PRETTY", "sometimes")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	conf := Default()
	assert.ErrorIs(t, conf.Validate(), errMissingBotKey)

	conf.DiscordBotKey = "key"
	assert.NoError(t, conf.Validate())

	conf.Spawn.SpeciesCount = 0
	assert.ErrorIs(t, conf.Validate(), errSpeciesCount)
	conf.Spawn.SpeciesCount = 1
	assert.NoError(t, conf.Validate())

	conf.Database.Driver = "mysql"
	assert.ErrorIs(t, conf.Validate(), errBadDriver)
}
