package models

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// Device is a SID: a tracked physical asset with a site-unique number.
type Device struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	SiteID    uint  `gorm:"not null;uniqueIndex:ux_devices_site_sid,priority:1;index" json:"site_id"`
	SIDNumber int64 `gorm:"column:sid_number;not null;uniqueIndex:ux_devices_site_sid,priority:2" json:"sid_number"`

	Hostname string `gorm:"type:varchar(255)" json:"hostname"`
	Serial   string `gorm:"type:varchar(128)" json:"serial,omitempty"`

	// все ссылки опциональны
	LocationID    *uint `gorm:"index" json:"location_id,omitempty"`
	SIDTypeID     *uint `gorm:"column:sid_type_id;index" json:"sid_type_id,omitempty"`
	DeviceModelID *uint `gorm:"index" json:"device_model_id,omitempty"`
	CPUModelID    *uint `gorm:"column:cpu_model_id;index" json:"cpu_model_id,omitempty"`

	Attributes datatypes.JSON `gorm:"type:json" json:"attributes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Device) TableName() string { return "devices" }

// DisplayID is the identifier printed on asset tags.
func (d Device) DisplayID() string { return "SID" + strconv.FormatInt(d.SIDNumber, 10) }

// NIC is a network interface of a device.
type NIC struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	SiteID   uint   `gorm:"not null;index" json:"site_id"`
	DeviceID uint   `gorm:"not null;index" json:"device_id"`
	Name     string `gorm:"type:varchar(64);not null" json:"name"`
	MAC      string `gorm:"column:mac;type:varchar(17)" json:"mac,omitempty"`
	VLANID   *uint  `gorm:"column:vlan_id;index" json:"vlan_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (NIC) TableName() string { return "nics" }

// Note is a free-text entry attached to a device.
type Note struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	SiteID   uint   `gorm:"not null;index" json:"site_id"`
	DeviceID uint   `gorm:"not null;index" json:"device_id"`
	Body     string `gorm:"type:text;not null" json:"body"`
	Author   string `gorm:"type:varchar(128)" json:"author,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Note) TableName() string { return "device_notes" }
