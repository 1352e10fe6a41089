// Package registrydb persists resolved key server descriptors to a local
// SQL database so a process restart does not need to re-resolve every
// server object from the ledger and re-verify every proof-of-possession.
// It follows the teacher's gorm upsert idiom from internal/db/document.go
// (clause.OnConflict with UpdateAll on the primary key).
package registrydb

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyServerRow is the persisted row for one key server descriptor.
type KeyServerRow struct {
	ObjectID string `gorm:"column:object_id;primaryKey"`
	Name     string `gorm:"column:name"`
	URL      string `gorm:"column:url"`
	KeyType  byte   `gorm:"column:key_type"`
	PK       []byte `gorm:"column:pk"`
	PoP      []byte `gorm:"column:pop"`
}

// TableName pins the row to a stable table name regardless of Go type name.
func (KeyServerRow) TableName() string { return "key_servers" }

// Store wraps a *gorm.DB bound to the key_servers table.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-connected database handle and ensures the
// backing table exists.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&KeyServerRow{}); err != nil {
		return nil, errors.Wrap(err, "registrydb: migrating key_servers table")
	}
	return &Store{db: db}, nil
}

// Upsert writes or overwrites one key server's cached descriptor.
func (s *Store) Upsert(row *KeyServerRow) error {
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "object_id"}},
		UpdateAll: true,
	}).Create(row)
	if result.Error != nil {
		return errors.Wrap(result.Error, "registrydb: upserting key server row")
	}
	return nil
}

// Get looks up a cached descriptor by its ledger object ID (hex-encoded).
func (s *Store) Get(objectIDHex string) (*KeyServerRow, error) {
	var row KeyServerRow
	result := s.db.First(&row, "object_id = ?", objectIDHex)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "registrydb: querying key server row")
	}
	return &row, nil
}

// List returns every cached key server descriptor.
func (s *Store) List() ([]KeyServerRow, error) {
	var rows []KeyServerRow
	if result := s.db.Find(&rows); result.Error != nil {
		return nil, errors.Wrap(result.Error, "registrydb: listing key server rows")
	}
	return rows, nil
}
