package db

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vincent-heng/discord-pokebot/config"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(config.Database{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "pokemon.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func catch(t *testing.T, d *DB, owner string, species int, name string, level int) Creature {
	t.Helper()
	c, err := d.CatchCreature(owner, species, name, level)
	require.NoError(t, err)
	return c
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(config.Database{Driver: "oracle"})
	assert.Error(t, err)
}

func TestGuildSettings(t *testing.T) {
	d := newTestDB(t)

	g, err := d.FetchGuildSettings("g1")
	require.NoError(t, err)
	assert.False(t, g.Configured())

	require.NoError(t, d.SaveGuildSettings(GuildSettings{
		GuildID:        "g1",
		SpawnChannelID: "c1",
		SpawnRate:      0.05,
		SpawnCooldown:  15 * time.Minute,
	}))
	require.NoError(t, d.SaveGuildSettings(GuildSettings{
		GuildID:        "g1",
		SpawnChannelID: "c2",
		SpawnRate:      0.1,
		SpawnCooldown:  time.Minute,
	}))

	g, err = d.FetchGuildSettings("g1")
	require.NoError(t, err)
	assert.True(t, g.Configured())
	assert.Equal(t, "c2", g.SpawnChannelID)
	assert.InDelta(t, 0.1, g.SpawnRate, 1e-9)
	assert.Equal(t, time.Minute, g.SpawnCooldown)
}

func TestToggleEvolveNotify(t *testing.T) {
	d := newTestDB(t)

	notify, err := d.EvolveNotify("u1")
	require.NoError(t, err)
	assert.True(t, notify)

	notify, err = d.ToggleEvolveNotify("u1")
	require.NoError(t, err)
	assert.False(t, notify)

	notify, err = d.EvolveNotify("u1")
	require.NoError(t, err)
	assert.False(t, notify)

	notify, err = d.ToggleEvolveNotify("u1")
	require.NoError(t, err)
	assert.True(t, notify)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })
	return &buf
}

func TestLogger_SkipsRecordNotFound(t *testing.T) {
	d := newTestDB(t)
	logs := captureLogs(t)

	_, err := d.FetchParty("u1")
	assert.ErrorIs(t, err, ErrPartyNotFound)
	_, err = d.FetchGuildSettings("g1")
	require.NoError(t, err)
	assert.Empty(t, logs.String())

	assert.Error(t, d.Exec("SELECT * FROM missing_table").Error)
	assert.Contains(t, logs.String(), `"message":"query failed"`)
	assert.Contains(t, logs.String(), "missing_table")
}
