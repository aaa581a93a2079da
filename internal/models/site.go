package models

import "gorm.io/gorm"

// Site is the tenant boundary. Everything else carries a site_id.
// Name and Code are unique among live sites only (see db.MigrateSiteUniqueIndex),
// so a soft-deleted site frees its code.
type Site struct {
	gorm.Model
	Name string `gorm:"type:varchar(128);not null" json:"name"`
	// Code prefixes label references, e.g. "DC1" -> "DC1-000101".
	Code string `gorm:"type:varchar(16);not null" json:"code"`
}

func (Site) TableName() string { return "sites" }
