package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ArchivedSeed is one row per seed written to durable storage.
type ArchivedSeed struct {
	ID             int       `gorm:"primaryKey;column:id"`
	SeedID         string    `gorm:"column:seed_id;index;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;default:now()"`
	Origin         string    `gorm:"column:origin"`
	InputBytes     int       `gorm:"column:input_bytes"`
	CoveragePoints int       `gorm:"column:coverage_points"`
	Attrs          Attrs     `gorm:"column:attrs;type:jsonb"`
}

// Attrs is the jsonb attribute bag on a ledger row.
type Attrs map[string]any

// Value implements the driver.Valuer interface for the Attrs type
func (a Attrs) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for the Attrs type
func (a *Attrs) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, &a)
}
