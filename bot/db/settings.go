package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GuildSettings holds where and how often wild pokémon appear
type GuildSettings struct {
	GuildID        string `gorm:"primaryKey"`
	SpawnChannelID string
	SpawnRate      float64       // probability per message, 0..1
	SpawnCooldown  time.Duration // minimum delay between two spawns
	UpdatedAt      time.Time
}

func (g GuildSettings) Configured() bool {
	return g.SpawnChannelID != ""
}

// TrainerSettings holds per user preferences
type TrainerSettings struct {
	OwnerID     string `gorm:"primaryKey"`
	EvolveMuted bool
}

// FetchGuildSettings returns zero settings for a guild never configured
func (db *DB) FetchGuildSettings(guildID string) (g GuildSettings, e error) {
	e = db.Where("guild_id = ?", guildID).First(&g).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		return GuildSettings{GuildID: guildID}, nil
	}
	return
}

func (db *DB) SaveGuildSettings(g GuildSettings) error {
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&g).Error
}

func (db *DB) EvolveNotify(ownerID string) (bool, error) {
	var t TrainerSettings
	err := db.Where("owner_id = ?", ownerID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	return !t.EvolveMuted, err
}

// ToggleEvolveNotify flips the evolution notification preference and
// returns the new state.
func (db *DB) ToggleEvolveNotify(ownerID string) (notify bool, e error) {
	e = db.transaction(func(tx *DB) error {
		current, err := tx.EvolveNotify(ownerID)
		if err != nil {
			return err
		}
		notify = !current
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&TrainerSettings{OwnerID: ownerID, EvolveMuted: !notify}).Error
	})
	return
}
