package models

import (
	"fmt"
	"time"
)

// Label is a printable cable label. RefNumber comes from the site's label sequence.
type Label struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SiteID    uint   `gorm:"not null;uniqueIndex:ux_labels_site_ref,priority:1;index" json:"site_id"`
	RefNumber int64  `gorm:"not null;uniqueIndex:ux_labels_site_ref,priority:2" json:"ref_number"`
	Reference string `gorm:"type:varchar(64);not null" json:"reference"`

	SourceLocationID      *uint `gorm:"index" json:"source_location_id,omitempty"`
	DestinationLocationID *uint `gorm:"index" json:"destination_location_id,omitempty"`
	CableTypeID           *uint `gorm:"index" json:"cable_type_id,omitempty"`

	Description string `gorm:"type:varchar(255)" json:"description,omitempty"`
	// BatchID groups labels created by one bulk request.
	BatchID   string `gorm:"type:char(36);index" json:"batch_id,omitempty"`
	CreatedBy string `gorm:"type:varchar(128)" json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Label) TableName() string { return "labels" }

// FormatReference builds the display string, e.g. "DC1-000101".
func FormatReference(siteCode string, n int64) string {
	if siteCode == "" {
		return fmt.Sprintf("%06d", n)
	}
	return fmt.Sprintf("%s-%06d", siteCode, n)
}
