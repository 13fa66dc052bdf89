// Package gorm provides GORM model definitions and the GORM-backed key-value store
package gorm

import "time"

// KVEntryModel is one row of the local key-value table
type KVEntryModel struct {
	Key       string `gorm:"column:entry_key;type:varchar(255);primaryKey"`
	Value     []byte `gorm:"type:blob;not null"`
	UpdatedAt time.Time
}

// TableName pins the table name
func (KVEntryModel) TableName() string {
	return "client_kv"
}
