package inventory

import (
	"context"
	"fmt"
	"strings"

	"labeldesk/internal/db"
	"labeldesk/internal/logs"
	"labeldesk/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SiteInput struct {
	Name string `json:"name" validate:"required,max=128"`
	Code string `json:"code" validate:"required,alphanum,max=16"`
}

func (m *Manager) CreateSite(ctx context.Context, in SiteInput) (*models.Site, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if err := m.check(in); err != nil {
		return nil, err
	}
	s := models.Site{Name: in.Name, Code: in.Code}
	if err := m.db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, translate(err)
	}
	logs.Logger.WithFields(logrus.Fields{"site": s.ID, "code": s.Code}).Info("site created")
	return &s, nil
}

// siteRows lists site-scoped tables in deletion order: children before the
// rows they hang off, referencing rows before the rows they reference.
// sequence_counters is left alone so a number is never issued twice.
var siteRows = []struct {
	role  models.Role
	model func() any
}{
	{"nics", func() any { return &models.NIC{} }},
	{"notes", func() any { return &models.Note{} }},
	{"labels", func() any { return &models.Label{} }},
	{"devices", func() any { return &models.Device{} }},
	{"locations", func() any { return &models.Location{} }},
	{"cable_types", func() any { return &models.CableType{} }},
	{"device_models", func() any { return &models.DeviceModel{} }},
	{"cpu_models", func() any { return &models.CPUModel{} }},
	{"sid_types", func() any { return &models.SIDType{} }},
	{"vlans", func() any { return &models.VLAN{} }},
}

// DeleteSite soft-deletes a site. A site that still owns records is refused
// with *InUseError unless cascade is set, in which case every site-scoped row
// is removed first. The returned usage is what was (or would be) removed.
func (m *Manager) DeleteSite(ctx context.Context, siteID uint, cascade bool) (models.Usage, error) {
	usage := models.Usage{}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s models.Site
		if err := db.ForUpdate(tx).Where("id = ?", siteID).Take(&s).Error; err != nil {
			if db.IsNotFound(err) {
				return fmt.Errorf("site %d: %w", siteID, models.ErrSiteNotFound)
			}
			return err
		}

		blocking := models.Usage{}
		for _, r := range siteRows {
			var n int64
			if err := tx.Model(r.model()).Where("site_id = ?", siteID).Count(&n).Error; err != nil {
				return fmt.Errorf("count %s: %w", r.role, err)
			}
			blocking[r.role] = n
		}
		if blocking.Total() > 0 && !cascade {
			usage = blocking
			return &models.InUseError{Target: "site", ID: siteID, Usage: blocking}
		}

		for _, r := range siteRows {
			d := tx.Where("site_id = ?", siteID).Delete(r.model())
			if d.Error != nil {
				return fmt.Errorf("delete %s: %w", r.role, d.Error)
			}
			usage.Add(r.role, d.RowsAffected)
		}
		return tx.Delete(&s).Error
	})
	if err != nil {
		return usage, err
	}
	logs.Site(siteID).WithFields(logrus.Fields{"cascade": cascade, "deleted": usage}).Info("site deleted")
	return usage, nil
}
