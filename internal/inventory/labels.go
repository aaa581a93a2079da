package inventory

import (
	"context"
	"fmt"
	"strings"

	"labeldesk/internal/db"
	"labeldesk/internal/logs"
	"labeldesk/internal/models"
	"labeldesk/internal/sequence"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LabelInput struct {
	SourceLocationID      *uint  `json:"source_location_id" validate:"omitempty,min=1"`
	DestinationLocationID *uint  `json:"destination_location_id" validate:"omitempty,min=1"`
	CableTypeID           *uint  `json:"cable_type_id" validate:"omitempty,min=1"`
	Description           string `json:"description" validate:"max=255"`
	CreatedBy             string `json:"created_by" validate:"max=128"`
}

func (in LabelInput) refs() []refCheck {
	return []refCheck{
		{"source_location_id", &models.Location{}, in.SourceLocationID},
		{"destination_location_id", &models.Location{}, in.DestinationLocationID},
		{"cable_type_id", &models.CableType{}, in.CableTypeID},
	}
}

// CreateLabel issues the next label number of the site and stores the label.
func (m *Manager) CreateLabel(ctx context.Context, siteID uint, in LabelInput) (*models.Label, error) {
	out, err := m.CreateLabels(ctx, siteID, in, 1)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// CreateLabels creates quantity identical labels with consecutive numbers in
// one transaction. They share a BatchID when quantity > 1.
func (m *Manager) CreateLabels(ctx context.Context, siteID uint, in LabelInput, quantity int) ([]models.Label, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := m.check(in); err != nil {
		return nil, err
	}
	if quantity < 1 || quantity > MaxBulk {
		return nil, models.Invalid("quantity", fmt.Sprintf("must be between 1 and %d", MaxBulk))
	}
	batchID := ""
	if quantity > 1 {
		batchID = uuid.NewString()
	}

	var out []models.Label
	err := m.createWithRetry(ctx, siteID, sequence.KindLabel, func(tx *gorm.DB) error {
		site, err := lockSite(tx, siteID)
		if err != nil {
			return err
		}
		if err := checkRefs(tx, siteID, in.refs()...); err != nil {
			return err
		}
		first, err := m.alloc.NextN(tx, siteID, sequence.KindLabel, quantity)
		if err != nil {
			return err
		}
		out = make([]models.Label, quantity)
		for i := range out {
			n := first + int64(i)
			out[i] = models.Label{
				SiteID:                siteID,
				RefNumber:             n,
				Reference:             models.FormatReference(site.Code, n),
				SourceLocationID:      in.SourceLocationID,
				DestinationLocationID: in.DestinationLocationID,
				CableTypeID:           in.CableTypeID,
				Description:           in.Description,
				BatchID:               batchID,
				CreatedBy:             in.CreatedBy,
			}
		}
		return tx.CreateInBatches(&out, batch).Error
	})
	if err != nil {
		return nil, err
	}
	logs.Site(siteID).WithFields(logrus.Fields{
		"first": out[0].Reference, "n": quantity, "batch": batchID,
	}).Info("labels created")
	return out, nil
}

type LabelPatch struct {
	Description *string `json:"description" validate:"omitempty,max=255"`
	CreatedBy   *string `json:"created_by" validate:"omitempty,max=128"`
}

// UpdateLabel changes descriptive fields. Number, reference and links are
// fixed once issued.
func (m *Manager) UpdateLabel(ctx context.Context, siteID, id uint, p LabelPatch) (*models.Label, error) {
	if err := m.check(p); err != nil {
		return nil, err
	}
	upd := map[string]any{}
	if p.Description != nil {
		upd["description"] = strings.TrimSpace(*p.Description)
	}
	if p.CreatedBy != nil {
		upd["created_by"] = strings.TrimSpace(*p.CreatedBy)
	}

	var l models.Label
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND site_id = ?", id, siteID).Take(&l).Error; err != nil {
			return err
		}
		if len(upd) == 0 {
			return nil
		}
		if err := tx.Model(&l).Updates(upd).Error; err != nil {
			return err
		}
		return tx.Take(&l, l.ID).Error
	})
	if err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("label %d: %w", id, models.ErrNotFound)
		}
		return nil, err
	}
	return &l, nil
}

// DeleteLabels removes the given labels of the site. Any id outside the site
// fails the whole request without deleting anything.
func (m *Manager) DeleteLabels(ctx context.Context, siteID uint, ids []uint) (int64, error) {
	var deleted int64
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uniq, err := lockIDs(tx, siteID, &models.Label{}, ids)
		if err != nil {
			return err
		}
		return inBatches(uniq, func(part []uint) error {
			d := tx.Where("site_id = ? AND id IN ?", siteID, part).Delete(&models.Label{})
			deleted += d.RowsAffected
			return d.Error
		})
	})
	if err != nil {
		return 0, err
	}
	logs.Site(siteID).WithField("n", deleted).Info("labels deleted")
	return deleted, nil
}
