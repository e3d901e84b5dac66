package services

import (
	"fmt"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// ValidateSchedule checks that spec is empty, a supported shortcut or a
// cron expression.
func ValidateSchedule(spec string) error {
	switch spec {
	case "", "@hourly", "@daily":
		return nil
	}
	if _, err := cronexpr.Parse(spec); err != nil {
		return fmt.Errorf("%w: schedule_cron %q: %v", domain.ErrInvalidParameter, spec, err)
	}
	return nil
}

// IsDue reports whether a schedule should fire at now given the last run.
// A source that never ran is due immediately. Invalid expressions are
// never due.
func IsDue(spec string, last *time.Time, now time.Time) bool {
	if spec == "" {
		return false
	}
	if last == nil {
		return true
	}
	switch spec {
	case "@hourly":
		return now.Sub(*last) >= time.Hour
	case "@daily":
		return now.Sub(*last) >= 24*time.Hour
	}
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return false
	}
	next := expr.Next(*last)
	return !next.IsZero() && !next.After(now)
}
