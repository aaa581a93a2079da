package integrity

import (
	"fmt"

	"labeldesk/internal/models"

	"gorm.io/gorm"
)

// CountUsage reports how many rows of the site reference target, per role.
// It reads through tx, so a caller that goes on to mutate in the same
// transaction acts on exactly these numbers.
func CountUsage(tx *gorm.DB, siteID uint, t Target) (models.Usage, error) {
	sp, err := lookup(t.Kind)
	if err != nil {
		return nil, err
	}
	var n int64
	if err := tx.Model(sp.model()).Where("id = ? AND site_id = ?", t.ID, siteID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", t, models.ErrNotFound)
	}
	return count(tx, siteID, sp, t.ID)
}

func count(tx *gorm.DB, siteID uint, sp spec, id uint) (models.Usage, error) {
	u := make(models.Usage, len(sp.refs))
	for _, r := range sp.refs {
		var n int64
		if err := tx.Model(r.model()).
			Where(map[string]any{"site_id": siteID, r.column: id}).
			Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", r.role, err)
		}
		u[r.role] = n
	}
	return u, nil
}
