package models

import "time"

// Catalog rows: per-site typed references used by labels and devices.

type CableType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SiteID    uint      `gorm:"not null;index" json:"site_id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CableType) TableName() string { return "cable_types" }

type DeviceModel struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SiteID       uint      `gorm:"not null;index" json:"site_id"`
	Name         string    `gorm:"type:varchar(128);not null" json:"name"`
	Manufacturer string    `gorm:"type:varchar(128)" json:"manufacturer,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (DeviceModel) TableName() string { return "device_models" }

type CPUModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SiteID    uint      `gorm:"not null;index" json:"site_id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CPUModel) TableName() string { return "cpu_models" }

type SIDType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SiteID    uint      `gorm:"not null;index" json:"site_id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SIDType) TableName() string { return "sid_types" }

// VLAN is identified by its number within a site.
type VLAN struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SiteID    uint      `gorm:"not null;uniqueIndex:ux_vlans_site_number,priority:1" json:"site_id"`
	Number    int       `gorm:"not null;uniqueIndex:ux_vlans_site_number,priority:2" json:"number"`
	Name      string    `gorm:"type:varchar(128)" json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VLAN) TableName() string { return "vlans" }

// CatalogTables lists the name-keyed catalog tables (VLAN is keyed by number).
var CatalogTables = []string{"cable_types", "device_models", "cpu_models", "sid_types"}
