package integrity

import (
	"fmt"
	"strings"

	"labeldesk/internal/models"
)

type Strategy string

const (
	// StrategyAuto deletes only an unreferenced row.
	StrategyAuto Strategy = "auto"
	// StrategyBlock behaves like auto; kept so callers can be explicit.
	StrategyBlock    Strategy = "block"
	StrategyReassign Strategy = "reassign"
	StrategyCascade  Strategy = "cascade"
)

func (s Strategy) valid() bool {
	switch s {
	case StrategyAuto, StrategyBlock, StrategyReassign, StrategyCascade:
		return true
	}
	return false
}

// ParseStrategy normalizes request input into a Strategy. legacyCascade is the
// old boolean "cascade" flag: it selects cascade when no strategy is named and
// conflicts with any other named strategy.
func ParseStrategy(name string, legacyCascade bool) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if s == "" {
		if legacyCascade {
			return StrategyCascade, nil
		}
		return StrategyAuto, nil
	}
	if !s.valid() {
		return "", models.Invalid("strategy", fmt.Sprintf("unknown strategy %q", name))
	}
	if legacyCascade && s != StrategyCascade {
		return "", models.Invalid("strategy", fmt.Sprintf("cascade=true conflicts with strategy %q", s))
	}
	return s, nil
}
