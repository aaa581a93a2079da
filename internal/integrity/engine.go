package integrity

import (
	"fmt"
	"sort"

	"labeldesk/internal/db"
	"labeldesk/internal/logs"
	"labeldesk/internal/metrics"
	"labeldesk/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// batch bounds IN (...) lists; SQLite caps bound parameters per statement.
const batch = 500

type Request struct {
	SiteID        uint
	Target        Target
	Strategy      Strategy
	ReplacementID uint // reassign only
}

// Result describes what a successful Delete did. Usage is the count taken
// before any mutation.
type Result struct {
	Target       Target       `json:"target"`
	StrategyUsed Strategy     `json:"strategy_used"`
	Usage        models.Usage `json:"usage"`
	Reassigned   models.Usage `json:"reassigned"`
	Deleted      models.Usage `json:"deleted"`
}

// Delete removes req.Target from the site according to req.Strategy. It must
// run inside the caller's transaction: the target (and replacement) rows are
// locked, usage is counted, dependents are reassigned or deleted and the
// target row is removed, all through tx. Any error leaves the caller to roll back.
//
// A target with zero usage is deleted under every strategy and reported as auto.
func Delete(tx *gorm.DB, req Request) (*Result, error) {
	sp, err := lookup(req.Target.Kind)
	if err != nil {
		return nil, err
	}
	if !req.Strategy.valid() {
		return nil, models.Invalid("strategy", fmt.Sprintf("unknown strategy %q", req.Strategy))
	}
	if err := lockRows(tx, sp, req); err != nil {
		return nil, err
	}

	usage, err := count(tx, req.SiteID, sp, req.Target.ID)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Target:     req.Target,
		Usage:      usage,
		Reassigned: models.Usage{},
		Deleted:    models.Usage{},
	}

	strategy := req.Strategy
	if usage.Total() == 0 {
		strategy = StrategyAuto
	}

	switch strategy {
	case StrategyAuto, StrategyBlock:
		if usage.Total() > 0 {
			metrics.Blocked.WithLabelValues(string(req.Target.Kind)).Inc()
			return nil, &models.InUseError{Target: string(req.Target.Kind), ID: req.Target.ID, Usage: usage}
		}
	case StrategyReassign:
		if req.ReplacementID == 0 {
			return nil, &models.ReplacementError{Reason: "replacement id is required for reassign"}
		}
		if err := reassign(tx, sp, req, res); err != nil {
			return nil, err
		}
	case StrategyCascade:
		if err := cascade(tx, sp, req, res); err != nil {
			return nil, err
		}
	}

	d := tx.Where("site_id = ?", req.SiteID).Delete(sp.model(), req.Target.ID)
	if d.Error != nil {
		return nil, fmt.Errorf("delete %s: %w", req.Target, d.Error)
	}
	if d.RowsAffected == 0 {
		return nil, fmt.Errorf("%s: %w", req.Target, models.ErrNotFound)
	}

	res.StrategyUsed = strategy
	metrics.Deletions.WithLabelValues(string(req.Target.Kind), string(strategy)).Inc()
	logs.Site(req.SiteID).WithFields(logrus.Fields{
		"target":      req.Target.Kind,
		"id":          req.Target.ID,
		"requested":   req.Strategy,
		"strategy":    strategy,
		"usage":       usage,
		"reassigned":  res.Reassigned,
		"deleted":     res.Deleted,
		"replacement": req.ReplacementID,
	}).Info("referenced row deleted")
	return res, nil
}

type rowRef struct {
	ID     uint
	SiteID uint
}

// lockRows takes FOR UPDATE locks on the target and the replacement, lowest id
// first, so two reassigns in opposite directions cannot deadlock on each other.
func lockRows(tx *gorm.DB, sp spec, req Request) error {
	ids := []uint{req.Target.ID}
	if req.ReplacementID != 0 {
		if req.ReplacementID == req.Target.ID {
			return &models.ReplacementError{ID: req.ReplacementID, Reason: "replacement is the row being deleted"}
		}
		ids = append(ids, req.ReplacementID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		var row rowRef
		err := db.ForUpdate(tx).Table(sp.table).Select("id", "site_id").Where("id = ?", id).Take(&row).Error
		found := err == nil && row.SiteID == req.SiteID
		if err != nil && !db.IsNotFound(err) {
			return fmt.Errorf("lock %s %d: %w", sp.table, id, err)
		}
		if found {
			continue
		}
		if id == req.Target.ID {
			return fmt.Errorf("%s: %w", req.Target, models.ErrNotFound)
		}
		reason := "does not exist"
		if err == nil {
			reason = "belongs to another site"
		}
		return &models.ReplacementError{ID: id, Reason: reason}
	}
	return nil
}

// reassign points every role column at the replacement. Roles are handled one
// by one, so a label whose source and destination are both the target moves
// both ends.
func reassign(tx *gorm.DB, sp spec, req Request, res *Result) error {
	for _, r := range sp.refs {
		if res.Usage[r.role] == 0 {
			continue
		}
		u := tx.Model(r.model()).
			Where(map[string]any{"site_id": req.SiteID, r.column: req.Target.ID}).
			Update(r.column, req.ReplacementID)
		if u.Error != nil {
			return fmt.Errorf("reassign %s: %w", r.role, u.Error)
		}
		res.Reassigned.Add(r.role, u.RowsAffected)
	}
	return nil
}

// cascade deletes the referencing rows, children first. A row reached through
// two roles is deleted once and counted under the first.
func cascade(tx *gorm.DB, sp spec, req Request, res *Result) error {
	for _, r := range sp.refs {
		if res.Usage[r.role] == 0 {
			continue
		}
		var ids []uint
		if err := tx.Model(r.model()).
			Where(map[string]any{"site_id": req.SiteID, r.column: req.Target.ID}).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("collect %s: %w", r.role, err)
		}
		err := inBatches(ids, func(part []uint) error {
			for _, c := range r.children {
				d := tx.Where(c.column+" IN ?", part).Delete(c.model())
				if d.Error != nil {
					return fmt.Errorf("delete %s: %w", c.role, d.Error)
				}
				res.Deleted.Add(c.role, d.RowsAffected)
			}
			d := tx.Where("id IN ?", part).Delete(r.model())
			if d.Error != nil {
				return fmt.Errorf("delete %s: %w", r.role, d.Error)
			}
			res.Deleted.Add(r.role, d.RowsAffected)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
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
