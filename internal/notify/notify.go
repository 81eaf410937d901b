// Package notify fans booking and maintenance events out to in-app
// notifications and email.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	appdb "github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
	"github.com/kgrigsby59/courtly/internal/email"
)

const (
	KindBookingDecision       = "booking_decision"
	KindBookingReminder       = "booking_reminder"
	KindMaintenanceEscalation = "maintenance_escalation"

	emailSendTimeout = 5 * time.Second
)

// Service records in-app notifications and, when an email client is
// configured, mirrors them to the recipient's inbox. Delivery failures are
// logged and never propagate to the caller.
type Service struct {
	db     *appdb.DB
	sender email.EmailSender
}

func NewService(database *appdb.DB, sender email.EmailSender) *Service {
	return &Service{db: database, sender: sender}
}

// BookingDecided notifies the booking owner that staff approved or rejected
// their request.
func (s *Service) BookingDecided(ctx context.Context, booking dbq.Booking, facilityName string) {
	logger := log.Ctx(ctx)

	contact, err := s.db.Queries.GetResidentContact(ctx, booking.ResidentID)
	if err != nil {
		logger.Error().Err(err).Int64("resident_id", booking.ResidentID).
			Msg("Failed to resolve booking owner for notification")
		return
	}

	msg := email.BuildDecisionEmail(email.DecisionDetails{
		FacilityName: facilityName,
		Date:         booking.Date,
		TimeRange:    fmt.Sprintf("%s - %s", booking.StartTime, booking.EndTime),
		Approved:     booking.Status == "approved",
	})

	s.record(ctx, contact.UserID, KindBookingDecision, msg.Subject, msg.Body)
	s.sendEmail(ctx, contact.Email, msg)
}

// BookingReminder notifies a resident about an approved booking happening the
// next day.
func (s *Service) BookingReminder(ctx context.Context, row dbq.BookingReminderRow) {
	msg := email.BuildReminderEmail(email.ReminderDetails{
		FacilityName: row.FacilityName,
		Date:         row.Date,
		TimeRange:    fmt.Sprintf("%s - %s", row.StartTime, row.EndTime),
		Purpose:      row.Purpose,
	})

	s.record(ctx, row.UserID, KindBookingReminder, msg.Subject, msg.Body)
	s.sendEmail(ctx, row.Email, msg)
}

// MaintenanceEscalation notifies a staff user about a critical report that has
// sat unassigned.
func (s *Service) MaintenanceEscalation(ctx context.Context, userID int64, report dbq.MaintenanceReport) {
	title := fmt.Sprintf("Unassigned critical report: %s", report.Title)
	body := fmt.Sprintf("Maintenance report #%d (%s) is critical and has no assignee.",
		report.ID, report.Title)
	s.record(ctx, userID, KindMaintenanceEscalation, title, body)
}

func (s *Service) record(ctx context.Context, userID int64, kind, title, body string) {
	if _, err := s.db.Queries.CreateNotification(ctx, dbq.CreateNotificationParams{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	}); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Str("kind", kind).
			Msg("Failed to record notification")
	}
}

// sendEmail delivers asynchronously so slow SES calls never stall the request
// that triggered them.
func (s *Service) sendEmail(ctx context.Context, recipient string, msg email.Message) {
	if s.sender == nil {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return
	}

	logger := log.Ctx(ctx).With().Str("subject", msg.Subject).Logger()
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()
		if err := s.sender.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil {
			logger.Error().Err(err).Msg("Failed to send notification email")
			return
		}
		logger.Info().Msg("Notification email sent")
	}()
}
