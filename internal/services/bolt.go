package services

import (
	"encoding/json"
	"fmt"
	"slices"

	bolt "go.etcd.io/bbolt"
)

// BoltDB persists user preferences in a BoltDB file. Conversation transcripts are deliberately
// not stored here; only the tunable request knobs survive a restart.
type BoltDB struct {
	db *bolt.DB
}

const prefsBucket = "preferences"

const prefsKey = "current"

// Preferences are the user-tunable knobs applied to chat and search requests.
type Preferences struct {
	TopK        int      `json:"top_k"`
	Temperature float64  `json:"temperature"`
	Collections []string `json:"collections"`
}

// DefaultPreferences returns the knob values used until the user changes them.
func DefaultPreferences() Preferences {
	return Preferences{
		TopK:        5,
		Temperature: 0.3,
		Collections: slices.Clone(DefaultCollections),
	}
}

// NewBoltDB creates a new BoltDB instance with the specified file path. It initializes the
// database with the required bucket and returns an error if the database cannot be opened or
// initialized. The database file is created with 0600 permissions if it doesn't exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(prefsBucket))
		return err
	})

	return BoltDB{db: db}, err
}

// Preferences retrieves the stored preferences, falling back to the defaults when nothing has
// been saved yet.
func (b BoltDB) Preferences() (Preferences, error) {
	prefs := DefaultPreferences()
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(prefsBucket))
		if bk == nil {
			return nil
		}

		v := bk.Get([]byte(prefsKey))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &prefs); err != nil {
			return fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
		return nil
	})
	if err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}

// SavePreferences stores the given preferences, replacing any previous values.
func (b BoltDB) SavePreferences(prefs Preferences) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(prefsBucket))
		if bk == nil {
			return nil
		}

		v, err := json.Marshal(prefs)
		if err != nil {
			return fmt.Errorf("failed to marshal preferences: %w", err)
		}

		return bk.Put([]byte(prefsKey), v)
	})
}

// Close releases the underlying database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}
