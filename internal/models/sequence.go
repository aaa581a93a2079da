package models

import "time"

// SequenceCounter holds the next unallocated value for one (site, kind).
// The row outlives the records that consumed its values, so numbers are never reused.
type SequenceCounter struct {
	SiteID    uint      `gorm:"primaryKey;autoIncrement:false" json:"site_id"`
	Kind      string    `gorm:"primaryKey;type:varchar(32)" json:"kind"`
	NextValue int64     `gorm:"not null" json:"next_value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SequenceCounter) TableName() string { return "sequence_counters" }
