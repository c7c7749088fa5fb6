package db

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	MaxLevel = 100
	MinLevel = 1
	tagBytes = 3
)

// Creature is one caught pokémon, owned by a discord user
type Creature struct {
	ID         uint   `gorm:"primaryKey"`
	OwnerID    string `gorm:"not null;uniqueIndex:idx_owner_tag;index"`
	Tag        string `gorm:"size:6;not null;uniqueIndex:idx_owner_tag"`
	SpeciesID  int    `gorm:"not null"`
	Name       string `gorm:"not null"`
	Level      int    `gorm:"not null"`
	Experience int    `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LevelUp reports a creature that gained at least one level
type LevelUp struct {
	Creature Creature
	Gained   int
}

// RequiredExperience is the number of messages needed to leave level
func RequiredExperience(level int) int {
	l := float64(level)
	return int(math.Round(0.02*l*l + 0.2*l + 1))
}

// ClampLevel keeps level within [MinLevel, MaxLevel]
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// AddExperience adds points one by one, resetting experience on every level
// gained. It returns the number of levels gained.
func (c *Creature) AddExperience(points int) int {
	c.Level = ClampLevel(c.Level)
	gained := 0
	for ; points > 0 && c.Level < MaxLevel; points-- {
		c.Experience++
		if c.Experience >= RequiredExperience(c.Level) {
			c.Level++
			c.Experience = 0
			gained++
		}
	}
	if c.Level >= MaxLevel {
		c.Experience = 0
	}
	return gained
}

// ExperiencePercent is the progress toward the next level
func (c Creature) ExperiencePercent() int {
	if c.Level >= MaxLevel {
		return 100
	}
	return c.Experience * 100 / RequiredExperience(c.Level)
}

func NewTag() (string, error) {
	var b [tagBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func (db *DB) tagTaken(ownerID, tag string) (bool, error) {
	var n int64
	err := db.Model(&Creature{}).Where("owner_id = ? AND tag = ?", ownerID, tag).Count(&n).Error
	return n > 0, err
}

func (db *DB) uniqueTag(ownerID string) (string, error) {
	for i := 0; i < 8; i++ {
		tag, err := NewTag()
		if err != nil {
			return "", err
		}
		taken, err := db.tagTaken(ownerID, tag)
		if err != nil {
			return "", err
		}
		if !taken {
			return tag, nil
		}
	}
	return "", errTagExhausted
}

// CatchCreature stores a new creature with a fresh tag
func (db *DB) CatchCreature(ownerID string, speciesID int, name string, level int) (c Creature, e error) {
	e = db.transaction(func(tx *DB) error {
		tag, err := tx.uniqueTag(ownerID)
		if err != nil {
			return err
		}
		c = Creature{
			OwnerID:   ownerID,
			Tag:       tag,
			SpeciesID: speciesID,
			Name:      name,
			Level:     ClampLevel(level),
		}
		return tx.Create(&c).Error
	})
	return
}

func (db *DB) FetchCreature(ownerID, tag string) (c Creature, e error) {
	e = db.Where("owner_id = ? AND tag = ?", ownerID, normalizeTag(tag)).First(&c).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		e = fmt.Errorf("%s: %w", normalizeTag(tag), ErrCreatureNotFound)
	}
	return
}

func (db *DB) FetchCreatures(ownerID string) (cs []Creature, e error) {
	e = db.Where("owner_id = ?", ownerID).Order("species_id, id").Find(&cs).Error
	return
}

func (db *DB) CountCreatures(ownerID string) (n int64, e error) {
	e = db.Model(&Creature{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return
}

// FreeCreature deletes a creature unless it sits in the party
func (db *DB) FreeCreature(ownerID, tag string) (c Creature, e error) {
	e = db.transaction(func(tx *DB) error {
		var err error
		c, err = tx.FetchCreature(ownerID, tag)
		if err != nil {
			return err
		}

		party, err := tx.FetchParty(ownerID)
		if err != nil && !errors.Is(err, ErrPartyNotFound) {
			return err
		}
		if party.Contains(c.Tag) {
			return ErrCreatureInParty
		}

		return tx.Delete(&c).Error
	})
	return
}

// EvolveCreature replaces the species of a creature, keeping tag and level
func (db *DB) EvolveCreature(ownerID, tag string, speciesID int, name string) (Creature, error) {
	c, err := db.FetchCreature(ownerID, tag)
	if err != nil {
		return c, err
	}
	c.SpeciesID = speciesID
	c.Name = name
	return c, db.Save(&c).Error
}

// GainExperience gives one point to every party member and to one random
// creature outside the party.
func (db *DB) GainExperience(ownerID string) ([]LevelUp, error) {
	tx := db.Begin()
	defer tx.Rollback()

	members, err := tx.PartyCreatures(ownerID)
	if err != nil && !errors.Is(err, ErrPartyNotFound) {
		return nil, err
	}

	inParty := make([]string, 0, len(members))
	for _, m := range members {
		inParty = append(inParty, m.Tag)
	}

	q := tx.Where("owner_id = ?", ownerID)
	if len(inParty) > 0 {
		q = q.Where("tag NOT IN ?", inParty)
	}
	var extra []Creature
	if err := q.Order("RANDOM()").Limit(1).Find(&extra).Error; err != nil {
		return nil, err
	}

	var ups []LevelUp
	for _, c := range append(members, extra...) {
		c := c
		if gained := c.AddExperience(1); gained > 0 {
			ups = append(ups, LevelUp{Creature: c, Gained: gained})
		}
		if err := tx.Model(&c).Updates(map[string]interface{}{
			"level":      c.Level,
			"experience": c.Experience,
		}).Error; err != nil {
			return nil, err
		}
	}

	return ups, tx.Commit().Error
}
