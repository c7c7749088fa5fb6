package db

import (
	"errors"
)

// SwapCreatures exchanges the owners of two creatures in one transaction.
// A creature arriving in a collection where its tag is already used gets a
// new tag. The returned records reflect the new owners.
func (db *DB) SwapCreatures(ownerA, tagA, ownerB, tagB string) (gotByA, gotByB Creature, e error) {
	if ownerA == ownerB {
		return gotByA, gotByB, ErrSameOwner
	}

	e = db.transaction(func(tx *DB) error {
		a, err := tx.FetchCreature(ownerA, tagA)
		if err != nil {
			return err
		}
		b, err := tx.FetchCreature(ownerB, tagB)
		if err != nil {
			return err
		}

		for _, c := range []Creature{a, b} {
			party, err := tx.FetchParty(c.OwnerID)
			if err != nil && !errors.Is(err, ErrPartyNotFound) {
				return err
			}
			if party.Contains(c.Tag) {
				return ErrCreatureInParty
			}
		}

		if err := tx.moveTo(&a, ownerB); err != nil {
			return err
		}
		if err := tx.moveTo(&b, ownerA); err != nil {
			return err
		}

		gotByA, gotByB = b, a
		return nil
	})
	return
}

func (db *DB) moveTo(c *Creature, ownerID string) error {
	taken, err := db.tagTaken(ownerID, c.Tag)
	if err != nil {
		return err
	}
	if taken {
		tag, err := db.uniqueTag(ownerID)
		if err != nil {
			return err
		}
		c.Tag = tag
	}
	c.OwnerID = ownerID
	return db.Model(c).Updates(map[string]interface{}{
		"owner_id": c.OwnerID,
		"tag":      c.Tag,
	}).Error
}
