package email

import (
	"fmt"
	"strings"
)

type Message struct {
	Subject string
	Body    string
}

type DecisionDetails struct {
	FacilityName string
	Date         string
	TimeRange    string
	Approved     bool
}

type ReminderDetails struct {
	FacilityName string
	Date         string
	TimeRange    string
	Purpose      string
}

// BuildDecisionEmail renders the approval or rejection notice sent to the
// booking owner.
func BuildDecisionEmail(details DecisionDetails) Message {
	facilityName := strings.TrimSpace(details.FacilityName)
	if facilityName == "" {
		facilityName = "your facility"
	}
	date := strings.TrimSpace(details.Date)
	if date == "" {
		date = "TBD"
	}
	timeRange := strings.TrimSpace(details.TimeRange)
	if timeRange == "" {
		timeRange = "TBD"
	}

	verb := "rejected"
	subject := fmt.Sprintf("Booking Rejected - %s", facilityName)
	if details.Approved {
		verb = "approved"
		subject = fmt.Sprintf("Booking Approved - %s", facilityName)
	}
	lines := []string{
		fmt.Sprintf("Your booking has been %s.", verb),
		"",
		fmt.Sprintf("Facility: %s", facilityName),
		fmt.Sprintf("Date: %s", date),
		fmt.Sprintf("Time: %s", timeRange),
	}

	return Message{
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}

// BuildReminderEmail renders the day-before reminder for an approved booking.
func BuildReminderEmail(details ReminderDetails) Message {
	facilityName := strings.TrimSpace(details.FacilityName)
	if facilityName == "" {
		facilityName = "your facility"
	}
	date := strings.TrimSpace(details.Date)
	if date == "" {
		date = "TBD"
	}
	timeRange := strings.TrimSpace(details.TimeRange)
	if timeRange == "" {
		timeRange = "TBD"
	}

	subject := fmt.Sprintf("Upcoming Booking Reminder - %s", facilityName)
	lines := []string{
		"Reminder: your booking is coming up tomorrow.",
		"",
		fmt.Sprintf("Facility: %s", facilityName),
		fmt.Sprintf("Date: %s", date),
		fmt.Sprintf("Time: %s", timeRange),
	}
	if purpose := strings.TrimSpace(details.Purpose); purpose != "" {
		lines = append(lines, fmt.Sprintf("Purpose: %s", purpose))
	}

	return Message{
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}
