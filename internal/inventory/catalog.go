package inventory

import (
	"context"
	"fmt"
	"strings"

	"labeldesk/internal/integrity"
	"labeldesk/internal/logs"
	"labeldesk/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CatalogEntry is the common shape of the name-keyed catalogs.
type CatalogEntry struct {
	ID           uint                 `json:"id"`
	SiteID       uint                 `json:"site_id"`
	Kind         integrity.TargetKind `json:"kind"`
	Name         string               `json:"name"`
	Manufacturer string               `json:"manufacturer,omitempty"`
}

type CatalogInput struct {
	Name string `json:"name" validate:"required,max=128"`
	// device models only
	Manufacturer string `json:"manufacturer" validate:"max=128"`
}

// catalogModels maps a catalog kind to a fresh row of its table.
var catalogModels = map[integrity.TargetKind]func() any{
	integrity.TargetCableType:   func() any { return &models.CableType{} },
	integrity.TargetDeviceModel: func() any { return &models.DeviceModel{} },
	integrity.TargetCPUModel:    func() any { return &models.CPUModel{} },
	integrity.TargetSIDType:     func() any { return &models.SIDType{} },
}

func catalogModel(kind integrity.TargetKind) (any, error) {
	mk, ok := catalogModels[kind]
	if !ok {
		return nil, models.Invalid("kind", fmt.Sprintf("%q is not a catalog", kind))
	}
	return mk(), nil
}

func (m *Manager) CreateCatalogEntry(ctx context.Context, siteID uint, kind integrity.TargetKind, in CatalogInput) (*CatalogEntry, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := m.check(in); err != nil {
		return nil, err
	}
	if _, err := catalogModel(kind); err != nil {
		return nil, err
	}

	out := &CatalogEntry{SiteID: siteID, Kind: kind, Name: in.Name}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSite(tx, siteID); err != nil {
			return err
		}
		var err error
		switch kind {
		case integrity.TargetCableType:
			row := models.CableType{SiteID: siteID, Name: in.Name}
			err = tx.Create(&row).Error
			out.ID = row.ID
		case integrity.TargetDeviceModel:
			row := models.DeviceModel{SiteID: siteID, Name: in.Name, Manufacturer: in.Manufacturer}
			err = tx.Create(&row).Error
			out.ID, out.Manufacturer = row.ID, row.Manufacturer
		case integrity.TargetCPUModel:
			row := models.CPUModel{SiteID: siteID, Name: in.Name}
			err = tx.Create(&row).Error
			out.ID = row.ID
		case integrity.TargetSIDType:
			row := models.SIDType{SiteID: siteID, Name: in.Name}
			err = tx.Create(&row).Error
			out.ID = row.ID
		}
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	logs.Site(siteID).WithFields(logrus.Fields{"kind": kind, "id": out.ID, "name": out.Name}).Info("catalog entry created")
	return out, nil
}

// RenameCatalogEntry changes the name only; references keep pointing at the id.
func (m *Manager) RenameCatalogEntry(ctx context.Context, siteID uint, kind integrity.TargetKind, id uint, in CatalogInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := m.check(in); err != nil {
		return err
	}
	model, err := catalogModel(kind)
	if err != nil {
		return err
	}
	res := m.db.WithContext(ctx).Model(model).
		Where("id = ? AND site_id = ?", id, siteID).
		Update("name", in.Name)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, models.ErrNotFound)
	}
	return nil
}

type VLANInput struct {
	Number int    `json:"number" validate:"required,min=1,max=4094"`
	Name   string `json:"name" validate:"max=128"`
}

func (m *Manager) CreateVLAN(ctx context.Context, siteID uint, in VLANInput) (*models.VLAN, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := m.check(in); err != nil {
		return nil, err
	}
	v := models.VLAN{SiteID: siteID, Number: in.Number, Name: in.Name}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSite(tx, siteID); err != nil {
			return err
		}
		return tx.Create(&v).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}
