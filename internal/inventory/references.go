package inventory

import (
	"context"

	"labeldesk/internal/integrity"
	"labeldesk/internal/models"
	"labeldesk/internal/sequence"

	"gorm.io/gorm"
)

// CountUsage reports how the target is referenced within the site.
func (m *Manager) CountUsage(ctx context.Context, siteID uint, t integrity.Target) (models.Usage, error) {
	var u models.Usage
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSite(tx, siteID); err != nil {
			return err
		}
		var err error
		u, err = integrity.CountUsage(tx, siteID, t)
		return err
	})
	return u, err
}

// DeleteReferencedRow runs the deletion engine in its own transaction. Nothing
// is changed unless the whole deletion succeeds.
func (m *Manager) DeleteReferencedRow(ctx context.Context, req integrity.Request) (*integrity.Result, error) {
	var res *integrity.Result
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSite(tx, req.SiteID); err != nil {
			return err
		}
		var err error
		res, err = integrity.Delete(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AllocateSequence hands out a number without creating a record (pre-printed
// labels, reserved SIDs).
func (m *Manager) AllocateSequence(ctx context.Context, siteID uint, kind sequence.Kind) (int64, error) {
	return m.alloc.Allocate(ctx, siteID, kind)
}
