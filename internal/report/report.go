// Package report evaluates report definitions against the clock, renders
// the status summary and delivers it over the notification webhook.
package report

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Notifier delivers rendered reports.
type Notifier interface {
	Enabled() bool
	SendMessage(ctx context.Context, text string) bool
}

// Scheduler runs the per-minute should-fire pass over all enabled reports.
//
// Fireability is always re-derived from lastSent and the current instant.
// The stored nextSend is display metadata only and never consulted here.
type Scheduler struct {
	logger    *zap.Logger
	reports   domain.ReportRepository
	generator *Generator
	notifier  Notifier
	now       func() time.Time
}

func NewScheduler(reports domain.ReportRepository, generator *Generator, notifier Notifier, log *zap.Logger) *Scheduler {
	return &Scheduler{
		logger:    log,
		reports:   reports,
		generator: generator,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Evaluate runs one pass. One report's failure never blocks the rest.
func (s *Scheduler) Evaluate(ctx context.Context) error {
	if s.notifier == nil || !s.notifier.Enabled() {
		return nil
	}

	reports, err := s.reports.ListEnabled(ctx)
	if err != nil {
		return errors.Wrap(err, "report: list enabled")
	}

	now := s.now().UTC()
	for _, r := range reports {
		if !ShouldSend(r, now) {
			continue
		}
		if err := s.send(ctx, r, now); err != nil {
			s.logger.Error("report send failed",
				zap.Int64(logger.FieldReportID, r.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Scheduler) send(ctx context.Context, r *domain.ReportDefinition, now time.Time) error {
	history := &domain.ReportHistory{
		ReportID: r.ID,
		SentAt:   now,
		Status:   domain.StatusSuccess,
	}

	text, err := s.generator.Generate(ctx, r)
	if err != nil {
		history.Status = domain.StatusError
		history.ErrorMessage = err.Error()
	} else if !s.notifier.SendMessage(ctx, text) {
		history.Status = domain.StatusError
		history.ErrorMessage = "failed to deliver report to webhook"
	}

	if err := s.reports.MarkSent(ctx, r.ID, history, NextSend(r, now)); err != nil {
		return errors.Wrap(err, "mark sent")
	}
	s.logger.Info("report sent",
		zap.Int64(logger.FieldReportID, r.ID),
		zap.String(logger.FieldStatus, history.Status))
	return nil
}

// weekday maps Go's Sunday-based weekday onto the stored convention,
// 0 for Monday through 6 for Sunday.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ShouldSend reports whether the definition is due at the given instant.
func ShouldSend(r *domain.ReportDefinition, now time.Time) bool {
	switch r.Cadence {
	case domain.CadenceDaily:
		if now.Hour() != r.CadenceHour || now.Minute() != r.CadenceMinute {
			return false
		}
		if r.LastSent == nil {
			return true
		}
		return dayStart(r.LastSent.UTC()).Before(dayStart(now))

	case domain.CadenceWeekly:
		if weekday(now) != r.CadenceDayOfWeek || now.Hour() != r.CadenceHour || now.Minute() != r.CadenceMinute {
			return false
		}
		if r.LastSent == nil {
			return true
		}
		// Compared at date granularity so a fire stamped late in the
		// minute cannot push the next week's matching tick under the
		// threshold.
		return dayStart(now).Sub(dayStart(r.LastSent.UTC())) >= 7*24*time.Hour

	case domain.CadenceHourly:
		if now.Minute() != r.CadenceMinute {
			return false
		}
		if r.LastSent == nil {
			return true
		}
		return now.Sub(r.LastSent.UTC()) >= time.Hour

	case domain.CadenceCustomHours:
		if r.CadenceHoursInterval <= 0 || now.Minute() != r.CadenceMinute {
			return false
		}
		if r.LastSent == nil {
			return true
		}
		return now.Sub(r.LastSent.UTC()) >= time.Duration(r.CadenceHoursInterval)*time.Hour
	}
	return false
}

// NextSend computes the next expected fire time for display. It is never
// the trigger source of truth.
func NextSend(r *domain.ReportDefinition, now time.Time) *time.Time {
	switch r.Cadence {
	case domain.CadenceDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), r.CadenceHour, r.CadenceMinute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return &next

	case domain.CadenceWeekly:
		daysAhead := r.CadenceDayOfWeek - weekday(now)
		if daysAhead <= 0 {
			daysAhead += 7
		}
		day := now.AddDate(0, 0, daysAhead)
		next := time.Date(day.Year(), day.Month(), day.Day(), r.CadenceHour, r.CadenceMinute, 0, 0, now.Location())
		return &next

	case domain.CadenceHourly:
		next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), r.CadenceMinute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(time.Hour)
		}
		return &next

	case domain.CadenceCustomHours:
		if r.CadenceHoursInterval <= 0 {
			return nil
		}
		base := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), r.CadenceMinute, 0, 0, now.Location())
		next := base.Add(time.Duration(r.CadenceHoursInterval) * time.Hour)
		return &next
	}
	return nil
}
