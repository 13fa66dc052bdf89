package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Compile-time interface check.
var _ outbound.KeyValueStore = (*KVStore)(nil)

// KVStore implements the key-value store on a GORM table
type KVStore struct {
	db *gorm.DB
}

// NewKVStore creates a new GORM key-value store. The table must already exist.
func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

// Get returns the value stored under key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var model KVEntryModel
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrKeyNotFound
		}
		return nil, err
	}
	return model.Value, nil
}

// Set inserts or replaces the value under key
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	model := KVEntryModel{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model).Error
}

// Delete removes key
func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&KVEntryModel{}).Error
}
