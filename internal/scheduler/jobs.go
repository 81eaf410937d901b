package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/kgrigsby59/courtly/internal/db"
	"github.com/kgrigsby59/courtly/internal/notify"
)

const jobTimeout = 2 * time.Minute

// RegisterBookingReminderJob sweeps once a day and notifies every resident
// with an approved booking scheduled for tomorrow.
func RegisterBookingReminderJob(database *db.DB, notifier *notify.Service) error {
	if database == nil || notifier == nil {
		return fmt.Errorf("booking reminder job requires database and notifier")
	}

	jobName := "booking_reminders"
	cronExpr := "0 9 * * *"
	jobLogger := log.With().
		Str("component", "booking_reminders_job").
		Str("job_name", jobName).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
		reminders, err := database.Queries.ListApprovedBookingsForDate(ctx, tomorrow)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load bookings for reminder job")
			return
		}

		for _, row := range reminders {
			notifier.BookingReminder(ctx, row)
		}
		if len(reminders) > 0 {
			jobLogger.Info().Int("count", len(reminders)).Msg("Booking reminders dispatched")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add booking reminder job: %w", err)
	}
	return nil
}

// RegisterEscalationJob runs hourly and pings every admin about critical
// maintenance reports that still have no assignee.
func RegisterEscalationJob(database *db.DB, notifier *notify.Service) error {
	if database == nil || notifier == nil {
		return fmt.Errorf("escalation job requires database and notifier")
	}

	jobName := "maintenance_escalation"
	cronExpr := "0 * * * *"
	jobLogger := log.With().
		Str("component", "maintenance_escalation_job").
		Str("job_name", jobName).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		reports, err := database.Queries.ListUnassignedCriticalReports(ctx)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load critical reports for escalation job")
			return
		}

		for _, report := range reports {
			userIDs, err := database.Queries.ListStaffUserIDsForFacility(ctx, report.FacilityID)
			if err != nil {
				jobLogger.Error().Err(err).Int64("report_id", report.ID).
					Msg("Failed to resolve staff for escalation")
				continue
			}
			for _, userID := range userIDs {
				notifier.MaintenanceEscalation(ctx, userID, report)
			}
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add maintenance escalation job: %w", err)
	}
	return nil
}

// RegisterSessionCleanupJob prunes expired session rows every 15 minutes.
func RegisterSessionCleanupJob(database *db.DB) error {
	if database == nil {
		return fmt.Errorf("session cleanup job requires database")
	}

	jobLogger := log.With().Str("component", "session_cleanup_job").Logger()

	_, err := AddJob("session_cleanup", "*/15 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		pruned, err := database.Queries.DeleteExpiredSessions(ctx, time.Now().UTC())
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to prune expired sessions")
			return
		}
		if pruned > 0 {
			jobLogger.Info().Int64("count", pruned).Msg("Expired sessions pruned")
		}
	})
	if err != nil {
		return fmt.Errorf("add session cleanup job: %w", err)
	}
	return nil
}
