package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	MaxPartySize = 6
	EmptySlot    = "-"
)

// Party is the ordered set of creatures a trainer battles with
type Party struct {
	OwnerID   string `gorm:"primaryKey"`
	Position1 *string
	Position2 *string
	Position3 *string
	Position4 *string
	Position5 *string
	Position6 *string
	UpdatedAt time.Time
}

func (p *Party) positions() [MaxPartySize]**string {
	return [MaxPartySize]**string{
		&p.Position1, &p.Position2, &p.Position3,
		&p.Position4, &p.Position5, &p.Position6,
	}
}

// Slots returns every position, "" for an empty one
func (p Party) Slots() [MaxPartySize]string {
	var out [MaxPartySize]string
	for i, pos := range p.positions() {
		if *pos != nil {
			out[i] = **pos
		}
	}
	return out
}

// Tags returns the filled positions in order
func (p Party) Tags() []string {
	var out []string
	for _, tag := range p.Slots() {
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func (p Party) Contains(tag string) bool {
	tag = normalizeTag(tag)
	for _, t := range p.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

func (p *Party) setSlots(tags []string) {
	for i, pos := range p.positions() {
		*pos = nil
		if i < len(tags) && tags[i] != "" && tags[i] != EmptySlot {
			tag := tags[i]
			*pos = &tag
		}
	}
}

func (db *DB) FetchParty(ownerID string) (p Party, e error) {
	e = db.Where("owner_id = ?", ownerID).First(&p).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		p = Party{OwnerID: ownerID}
		e = ErrPartyNotFound
	}
	return
}

// SetParty replaces the party of ownerID. Empty positions are given as "-".
// It reports whether the party did not exist before.
func (db *DB) SetParty(ownerID string, tags []string) (created bool, e error) {
	if len(tags) == 0 || len(tags) > MaxPartySize {
		return false, ErrPartySize
	}

	normalized := make([]string, len(tags))
	seen := make(map[string]bool, len(tags))
	filled := 0
	for i, tag := range tags {
		tag = normalizeTag(tag)
		normalized[i] = tag
		if tag == EmptySlot {
			continue
		}
		if seen[tag] {
			return false, fmt.Errorf("%s: %w", tag, ErrDuplicateTag)
		}
		seen[tag] = true
		filled++
	}
	if filled == 0 {
		return false, ErrPartySize
	}

	e = db.transaction(func(tx *DB) error {
		for tag := range seen {
			if _, err := tx.FetchCreature(ownerID, tag); err != nil {
				return err
			}
		}

		party, err := tx.FetchParty(ownerID)
		switch {
		case errors.Is(err, ErrPartyNotFound):
			created = true
		case err != nil:
			return err
		}

		party.setSlots(normalized)
		if created {
			return tx.Create(&party).Error
		}
		return tx.Save(&party).Error
	})
	return
}

// PartyCreatures resolves the party slots into creatures, in slot order.
// Slots pointing to a creature the owner no longer has are skipped.
func (db *DB) PartyCreatures(ownerID string) ([]Creature, error) {
	party, err := db.FetchParty(ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]Creature, 0, MaxPartySize)
	for _, tag := range party.Tags() {
		c, err := db.FetchCreature(ownerID, tag)
		if errors.Is(err, ErrCreatureNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
