package inventory

import (
	"context"
	"fmt"
	"strings"

	"labeldesk/internal/inventory/locschema"
	"labeldesk/internal/logs"
	"labeldesk/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LocationInput struct {
	locschema.Input
	Label string `json:"label" validate:"max=128"`
}

// CreateLocation validates the coordinates against the template schema. A
// second location with the same coordinates fails with ErrDuplicateKey.
func (m *Manager) CreateLocation(ctx context.Context, siteID uint, in LocationInput) (*models.Location, error) {
	in.Label = strings.TrimSpace(in.Label)
	if err := m.check(in); err != nil {
		return nil, err
	}
	loc, err := locschema.Apply(in.Input)
	if err != nil {
		return nil, err
	}
	loc.SiteID = siteID
	loc.Label = in.Label

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSite(tx, siteID); err != nil {
			return err
		}
		return tx.Create(&loc).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	logs.Site(siteID).WithFields(logrus.Fields{"id": loc.ID, "position": loc.Position()}).Info("location created")
	return &loc, nil
}

func (m *Manager) UpdateLocationLabel(ctx context.Context, siteID, id uint, label string) error {
	label = strings.TrimSpace(label)
	if len(label) > 128 {
		return models.Invalid("label", "failed max=128")
	}
	res := m.db.WithContext(ctx).Model(&models.Location{}).
		Where("id = ? AND site_id = ?", id, siteID).
		Update("label", label)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("location %d: %w", id, models.ErrNotFound)
	}
	return nil
}
