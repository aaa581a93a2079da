// Package inventory owns every write to site-scoped records: it validates
// input, checks references, takes sequence numbers and routes deletions of
// referenced rows through the integrity engine.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"labeldesk/internal/db"
	"labeldesk/internal/logs"
	"labeldesk/internal/metrics"
	"labeldesk/internal/models"
	"labeldesk/internal/sequence"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// batch bounds IN (...) lists in bulk operations.
const batch = 500

// MaxBulk caps quantity and id lists of bulk requests.
const MaxBulk = 1000

type Manager struct {
	db       *gorm.DB
	alloc    *sequence.Allocator
	validate *validator.Validate
}

func NewManager(gdb *gorm.DB) *Manager {
	v := validator.New(validator.WithRequiredStructEnabled())
	// ошибки отдаём по json-именам полей
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Manager{db: gdb, alloc: sequence.NewAllocator(gdb), validate: v}
}

// Allocator exposes the sequence allocator for read-only callers (Peek).
func (m *Manager) Allocator() *sequence.Allocator { return m.alloc }

func (m *Manager) check(in any) error {
	err := m.validate.Struct(in)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		field := strings.TrimPrefix(fe.Namespace(), reflect.Indirect(reflect.ValueOf(in)).Type().Name()+".")
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return models.Invalid(field, reason)
	}
	return models.Invalid("", err.Error())
}

// lockSite loads the site and keeps it from being deleted until tx ends.
func lockSite(tx *gorm.DB, siteID uint) (models.Site, error) {
	var s models.Site
	err := db.ForShare(tx).Where("id = ?", siteID).Take(&s).Error
	if db.IsNotFound(err) {
		return s, fmt.Errorf("site %d: %w", siteID, models.ErrSiteNotFound)
	}
	return s, err
}

// refCheck is one optional foreign id of an input.
type refCheck struct {
	field string
	model any
	id    *uint
}

type rowRef struct {
	ID     uint
	SiteID uint
}

// checkRefs locks every referenced row FOR SHARE and verifies it belongs to
// the site. Locked rows cannot be deleted before tx commits.
func checkRefs(tx *gorm.DB, siteID uint, refs ...refCheck) error {
	for _, r := range refs {
		if r.id == nil {
			continue
		}
		var row rowRef
		err := db.ForShare(tx).Model(r.model).Select("id", "site_id").Where("id = ?", *r.id).Take(&row).Error
		if err != nil && !db.IsNotFound(err) {
			return fmt.Errorf("check %s: %w", r.field, err)
		}
		if err != nil || row.SiteID != siteID {
			return &models.ReferenceError{Field: r.field, ID: *r.id}
		}
	}
	return nil
}

// createWithRetry runs fn in a transaction. A unique violation is retried
// once in a fresh transaction after resyncing the kind's counter; a second
// violation is reported as ErrDuplicateKey.
func (m *Manager) createWithRetry(ctx context.Context, siteID uint, kind sequence.Kind, fn func(tx *gorm.DB) error) error {
	err := m.db.WithContext(ctx).Transaction(fn)
	if !db.IsDuplicate(err) {
		return err
	}
	metrics.DuplicateRetries.WithLabelValues(string(kind)).Inc()
	logs.Site(siteID).WithFields(logrus.Fields{"kind": kind, "err": err}).Warn("unique violation on create, retrying")

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.alloc.Resync(tx, siteID, kind); err != nil {
			return err
		}
		return fn(tx)
	})
	if db.IsDuplicate(err) {
		return fmt.Errorf("%s: %w", kind, models.ErrDuplicateKey)
	}
	return err
}

// lockIDs locks the site's rows with the given ids. Every id must exist in
// the site, otherwise nothing is touched and ErrNotFound is returned.
func lockIDs(tx *gorm.DB, siteID uint, model any, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, models.Invalid("ids", "must not be empty")
	}
	if len(ids) > MaxBulk {
		return nil, models.Invalid("ids", fmt.Sprintf("at most %d ids per request", MaxBulk))
	}
	seen := make(map[uint]struct{}, len(ids))
	uniq := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	found := make(map[uint]struct{}, len(uniq))
	err := inBatches(uniq, func(part []uint) error {
		var got []uint
		if err := db.ForUpdate(tx).Model(model).
			Where("site_id = ? AND id IN ?", siteID, part).
			Pluck("id", &got).Error; err != nil {
			return err
		}
		for _, id := range got {
			found[id] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range uniq {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("id %d: %w", id, models.ErrNotFound)
		}
	}
	return uniq, nil
}

func inBatches(ids []uint, fn func([]uint) error) error {
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}
		if err := fn(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func translate(err error) error {
	if db.IsDuplicate(err) {
		return fmt.Errorf("%w: %v", models.ErrDuplicateKey, err)
	}
	return err
}
