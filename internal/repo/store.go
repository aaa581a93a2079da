package repo

import (
	"context"
	"fmt"
	"slices"

	"labeldesk/internal/db"
	"labeldesk/internal/models"

	"gorm.io/gorm"
)

// Store serves the site-scoped reads. It never locks; writes go through inventory.Manager.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	off := p.Offset
	if off < 0 {
		off = 0
	}
	return q.Limit(limit).Offset(off)
}

func notFound(err error, what string, id uint) error {
	if db.IsNotFound(err) {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return err
}

// siteExists keeps list reads consistent with single-row reads: an unknown or
// soft-deleted site is ErrSiteNotFound, not an empty list.
func (s *Store) siteExists(ctx context.Context, siteID uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Site{}).Where("id = ?", siteID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("site %d: %w", siteID, models.ErrSiteNotFound)
	}
	return nil
}

func (s *Store) GetSite(ctx context.Context, id uint) (*models.Site, error) {
	var m models.Site
	if err := s.db.WithContext(ctx).Take(&m, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("site %d: %w", id, models.ErrSiteNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListSites(ctx context.Context) ([]models.Site, error) {
	var out []models.Site
	err := s.db.WithContext(ctx).Order("code").Find(&out).Error
	return out, err
}

// LabelFilter narrows ListLabels. LocationID matches either end of the cable.
type LabelFilter struct {
	LocationID  *uint
	CableTypeID *uint
	BatchID     string
	Page
}

func (s *Store) GetLabel(ctx context.Context, siteID, id uint) (*models.Label, error) {
	var m models.Label
	err := s.db.WithContext(ctx).Where("id = ? AND site_id = ?", id, siteID).Take(&m).Error
	if err != nil {
		return nil, notFound(err, "label", id)
	}
	return &m, nil
}

func (s *Store) ListLabels(ctx context.Context, siteID uint, f LabelFilter) ([]models.Label, error) {
	if err := s.siteExists(ctx, siteID); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("site_id = ?", siteID)
	if f.LocationID != nil {
		q = q.Where("source_location_id = ? OR destination_location_id = ?", *f.LocationID, *f.LocationID)
	}
	if f.CableTypeID != nil {
		q = q.Where("cable_type_id = ?", *f.CableTypeID)
	}
	if f.BatchID != "" {
		q = q.Where("batch_id = ?", f.BatchID)
	}
	var out []models.Label
	err := f.Page.apply(q.Order("ref_number")).Find(&out).Error
	return out, err
}

// DeviceDetail is a device with its child rows.
type DeviceDetail struct {
	models.Device
	NICs  []models.NIC  `json:"nics"`
	Notes []models.Note `json:"notes"`
}

func (s *Store) GetDevice(ctx context.Context, siteID, id uint) (*DeviceDetail, error) {
	q := s.db.WithContext(ctx)
	var out DeviceDetail
	if err := q.Where("id = ? AND site_id = ?", id, siteID).Take(&out.Device).Error; err != nil {
		return nil, notFound(err, "device", id)
	}
	if err := q.Where("device_id = ?", id).Order("name").Find(&out.NICs).Error; err != nil {
		return nil, err
	}
	if err := q.Where("device_id = ?", id).Order("created_at, id").Find(&out.Notes).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListDevices(ctx context.Context, siteID uint, p Page) ([]models.Device, error) {
	if err := s.siteExists(ctx, siteID); err != nil {
		return nil, err
	}
	var out []models.Device
	err := p.apply(s.db.WithContext(ctx).Where("site_id = ?", siteID).Order("sid_number")).Find(&out).Error
	return out, err
}

func (s *Store) ListLocations(ctx context.Context, siteID uint) ([]models.Location, error) {
	if err := s.siteExists(ctx, siteID); err != nil {
		return nil, err
	}
	var out []models.Location
	err := s.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("template, floor, suite, rack_row, rack, area").
		Find(&out).Error
	return out, err
}

// CatalogRow is any name-keyed catalog row; Manufacturer is set for device models only.
type CatalogRow struct {
	ID           uint   `json:"id"`
	SiteID       uint   `json:"site_id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// ListCatalog lists one of models.CatalogTables.
func (s *Store) ListCatalog(ctx context.Context, siteID uint, table string) ([]CatalogRow, error) {
	if !slices.Contains(models.CatalogTables, table) {
		return nil, models.Invalid("kind", fmt.Sprintf("unknown catalog %q", table))
	}
	if err := s.siteExists(ctx, siteID); err != nil {
		return nil, err
	}
	var out []CatalogRow
	err := s.db.WithContext(ctx).Table(table).Where("site_id = ?", siteID).Order("name").Find(&out).Error
	return out, err
}

func (s *Store) ListVLANs(ctx context.Context, siteID uint) ([]models.VLAN, error) {
	if err := s.siteExists(ctx, siteID); err != nil {
		return nil, err
	}
	var out []models.VLAN
	err := s.db.WithContext(ctx).Where("site_id = ?", siteID).Order("number").Find(&out).Error
	return out, err
}
