package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labeldesk/internal/db"
	"labeldesk/internal/logs"
	"labeldesk/internal/metrics"
	"labeldesk/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Kind string

const (
	KindLabel  Kind = "label"
	KindDevice Kind = "device"
)

// source is where already-issued values of a kind live; used to seed a new counter.
type source struct {
	table  string
	column string
}

var sources = map[Kind]source{
	KindLabel:  {table: "labels", column: "ref_number"},
	KindDevice: {table: "devices", column: "sid_number"},
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sources[k]; !ok {
		return "", models.Invalid("kind", fmt.Sprintf("unknown sequence kind %q", s))
	}
	return k, nil
}

// Allocator issues per-(site, kind) numbers from the sequence_counters table.
// It keeps no state of its own: the counter row is the only source of truth,
// so any number of processes may share the database.
type Allocator struct{ db *gorm.DB }

func NewAllocator(gdb *gorm.DB) *Allocator { return &Allocator{db: gdb} }

// Next allocates one value inside tx. The counter row stays locked until tx
// commits or rolls back; a rollback returns the value to the pool.
func (a *Allocator) Next(tx *gorm.DB, siteID uint, kind Kind) (int64, error) {
	return a.NextN(tx, siteID, kind, 1)
}

// NextN reserves n consecutive values and returns the first one.
func (a *Allocator) NextN(tx *gorm.DB, siteID uint, kind Kind, n int) (int64, error) {
	if n < 1 {
		return 0, models.Invalid("quantity", "must be at least 1")
	}
	src, ok := sources[kind]
	if !ok {
		return 0, models.Invalid("kind", fmt.Sprintf("unknown sequence kind %q", kind))
	}
	if err := siteExists(tx, siteID); err != nil {
		return 0, err
	}
	if err := ensureCounter(tx, siteID, kind, src); err != nil {
		return 0, err
	}

	c, err := lockCounter(tx, siteID, kind)
	if err != nil {
		return 0, err
	}
	first := c.NextValue
	if err := tx.Model(&models.SequenceCounter{}).
		Where("site_id = ? AND kind = ?", siteID, string(kind)).
		Update("next_value", first+int64(n)).Error; err != nil {
		return 0, fmt.Errorf("advance %s counter: %w", kind, err)
	}

	metrics.Allocations.WithLabelValues(string(kind)).Add(float64(n))
	logs.Site(siteID).WithFields(logrus.Fields{"kind": kind, "first": first, "n": n}).Debug("sequence allocated")
	return first, nil
}

// Resync moves the counter past any value already present in the seed table.
// Rows inserted without going through the allocator (imports, manual fixes)
// would otherwise collide with the next allocation.
func (a *Allocator) Resync(tx *gorm.DB, siteID uint, kind Kind) error {
	src, ok := sources[kind]
	if !ok {
		return models.Invalid("kind", fmt.Sprintf("unknown sequence kind %q", kind))
	}
	if err := ensureCounter(tx, siteID, kind, src); err != nil {
		return err
	}
	c, err := lockCounter(tx, siteID, kind)
	if err != nil {
		return err
	}
	top, err := maxIssued(tx, siteID, src)
	if err != nil {
		return err
	}
	if c.NextValue > top {
		return nil
	}
	logs.Site(siteID).WithFields(logrus.Fields{"kind": kind, "from": c.NextValue, "to": top + 1}).Warn("sequence counter behind data, resynced")
	return tx.Model(&models.SequenceCounter{}).
		Where("site_id = ? AND kind = ?", siteID, string(kind)).
		Update("next_value", top+1).Error
}

// Allocate runs Next in its own transaction.
func (a *Allocator) Allocate(ctx context.Context, siteID uint, kind Kind) (int64, error) {
	var v int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		v, err = a.Next(tx, siteID, kind)
		return err
	})
	return v, err
}

// Peek returns the value the next allocation would issue, without locking.
func (a *Allocator) Peek(ctx context.Context, siteID uint, kind Kind) (int64, error) {
	src, ok := sources[kind]
	if !ok {
		return 0, models.Invalid("kind", fmt.Sprintf("unknown sequence kind %q", kind))
	}
	q := a.db.WithContext(ctx)
	if err := siteExists(q, siteID); err != nil {
		return 0, err
	}
	var c models.SequenceCounter
	err := q.Where("site_id = ? AND kind = ?", siteID, string(kind)).Take(&c).Error
	if err == nil {
		return c.NextValue, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	top, err := maxIssued(q, siteID, src)
	if err != nil {
		return 0, err
	}
	return top + 1, nil
}

func siteExists(tx *gorm.DB, siteID uint) error {
	var n int64
	if err := tx.Model(&models.Site{}).Where("id = ?", siteID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("site %d: %w", siteID, models.ErrSiteNotFound)
	}
	return nil
}

// ensureCounter creates the counter row on first use. Two callers racing here
// both compute a seed; the loser's insert is a no-op and both then queue on
// the row lock.
func ensureCounter(tx *gorm.DB, siteID uint, kind Kind, src source) error {
	var n int64
	if err := tx.Model(&models.SequenceCounter{}).
		Where("site_id = ? AND kind = ?", siteID, string(kind)).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	top, err := maxIssued(tx, siteID, src)
	if err != nil {
		return err
	}
	row := models.SequenceCounter{SiteID: siteID, Kind: string(kind), NextValue: top + 1}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("seed %s counter: %w", kind, err)
	}
	return nil
}

func lockCounter(tx *gorm.DB, siteID uint, kind Kind) (models.SequenceCounter, error) {
	var c models.SequenceCounter
	err := db.ForUpdate(tx).
		Where("site_id = ? AND kind = ?", siteID, string(kind)).
		Take(&c).Error
	if err != nil {
		return c, fmt.Errorf("lock %s counter: %w", kind, err)
	}
	return c, nil
}

// maxIssued includes every row of the site, so values are never handed out twice.
func maxIssued(tx *gorm.DB, siteID uint, src source) (int64, error) {
	var top int64
	err := tx.Table(src.table).
		Select(fmt.Sprintf("COALESCE(MAX(%s), 0)", src.column)).
		Where("site_id = ?", siteID).
		Row().Scan(&top)
	if err != nil {
		return 0, fmt.Errorf("max %s.%s: %w", src.table, src.column, err)
	}
	return top, nil
}
