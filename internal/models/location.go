package models

import (
	"strings"
	"time"
)

type LocationTemplate string

const (
	// стойка: floor/suite/row/rack
	TemplateRack LocationTemplate = "rack"
	// свободная зона: floor/area
	TemplateArea LocationTemplate = "area"
)

// Location is a physical position inside a site. Which positional fields are
// meaningful depends on Template; the rest are stored empty so the unique
// index covers the whole tuple.
type Location struct {
	ID       uint             `gorm:"primaryKey" json:"id"`
	SiteID   uint             `gorm:"not null;index;uniqueIndex:ux_locations_position,priority:1" json:"site_id"`
	Template LocationTemplate `gorm:"type:varchar(16);not null;uniqueIndex:ux_locations_position,priority:2" json:"template"`
	Floor    string           `gorm:"type:varchar(32);not null;default:'';uniqueIndex:ux_locations_position,priority:3" json:"floor"`
	Suite    string           `gorm:"type:varchar(32);not null;default:'';uniqueIndex:ux_locations_position,priority:4" json:"suite,omitempty"`
	Row      string           `gorm:"column:rack_row;type:varchar(32);not null;default:'';uniqueIndex:ux_locations_position,priority:5" json:"row,omitempty"` // колонка rack_row: ROW зарезервировано в MySQL 8
	Rack     string           `gorm:"type:varchar(32);not null;default:'';uniqueIndex:ux_locations_position,priority:6" json:"rack,omitempty"`
	Area     string           `gorm:"type:varchar(64);not null;default:'';uniqueIndex:ux_locations_position,priority:7" json:"area,omitempty"`
	Label    string           `gorm:"type:varchar(128)" json:"label,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Location) TableName() string { return "locations" }

// Position renders the coordinates in the order printed on labels.
func (l Location) Position() string {
	var parts []string
	switch l.Template {
	case TemplateRack:
		parts = []string{l.Floor, l.Suite, l.Row, l.Rack}
	case TemplateArea:
		parts = []string{l.Floor, l.Area}
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
