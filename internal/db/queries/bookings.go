package queries

import (
	"context"
	"database/sql"
	"strings"
)

const bookingColumns = `id, facility_id, resident_id, date, start_time, end_time,
	attendees, purpose, status, approved_by, approval_date, created_at`

func scanBooking(row *sql.Row) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.FacilityID, &b.ResidentID, &b.Date, &b.StartTime, &b.EndTime,
		&b.Attendees, &b.Purpose, &b.Status, &b.ApprovedBy, &b.ApprovalDate, &b.CreatedAt)
	return b, err
}

func scanBookings(rows *sql.Rows) ([]Booking, error) {
	defer rows.Close()
	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.FacilityID, &b.ResidentID, &b.Date, &b.StartTime, &b.EndTime,
			&b.Attendees, &b.Purpose, &b.Status, &b.ApprovedBy, &b.ApprovalDate, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type CreateBookingParams struct {
	FacilityID int64
	ResidentID int64
	Date       string
	StartTime  string
	EndTime    string
	Attendees  int64
	Purpose    string
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO bookings (facility_id, resident_id, date, start_time, end_time, attendees, purpose)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.FacilityID, arg.ResidentID, arg.Date, arg.StartTime, arg.EndTime, arg.Attendees, arg.Purpose,
	)
	if err != nil {
		return Booking{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Booking{}, err
	}
	return q.GetBooking(ctx, id)
}

func (q *Queries) GetBooking(ctx context.Context, id int64) (Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

type CountOverlappingBookingsParams struct {
	FacilityID int64
	Date       string
	StartTime  string
	EndTime    string
}

// CountOverlappingBookings applies the half-open interval test: rows that
// merely abut the candidate do not count. Cancelled and rejected bookings
// never conflict.
func (q *Queries) CountOverlappingBookings(ctx context.Context, arg CountOverlappingBookingsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE facility_id = ? AND date = ?
		   AND status IN ('pending', 'approved')
		   AND start_time < ? AND end_time > ?`,
		arg.FacilityID, arg.Date, arg.EndTime, arg.StartTime,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

func (q *Queries) ListBookingsForResident(ctx context.Context, residentID int64) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE resident_id = ? ORDER BY date DESC, start_time DESC`, residentID)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (q *Queries) ListBookingsFromDate(ctx context.Context, fromDate string) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE date >= ? ORDER BY date, start_time`, fromDate)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

type ListBookingsForFacilitiesParams struct {
	FacilityIDs []int64
	FromDate    string
}

func (q *Queries) ListBookingsForFacilities(ctx context.Context, arg ListBookingsForFacilitiesParams) ([]Booking, error) {
	if len(arg.FacilityIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(arg.FacilityIDs)), ", ")
	args := make([]interface{}, 0, len(arg.FacilityIDs)+1)
	for _, id := range arg.FacilityIDs {
		args = append(args, id)
	}
	args = append(args, arg.FromDate)

	rows, err := q.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE facility_id IN (`+placeholders+`) AND date >= ?
		 ORDER BY date, start_time`, args...)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

type UpdateBookingStatusParams struct {
	ID           int64
	Status       string
	ApprovedBy   sql.NullInt64
	ApprovalDate sql.NullTime
}

func (q *Queries) UpdateBookingStatus(ctx context.Context, arg UpdateBookingStatusParams) (Booking, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, approved_by = ?, approval_date = ? WHERE id = ?`,
		arg.Status, arg.ApprovedBy, arg.ApprovalDate, arg.ID,
	)
	if err != nil {
		return Booking{}, err
	}
	return q.GetBooking(ctx, arg.ID)
}

// BookingReminderRow carries what the reminder job needs to notify a resident
// about an upcoming approved booking.
type BookingReminderRow struct {
	BookingID    int64
	FacilityName string
	Date         string
	StartTime    string
	EndTime      string
	Purpose      string
	UserID       int64
	Email        string
}

func (q *Queries) ListApprovedBookingsForDate(ctx context.Context, date string) ([]BookingReminderRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT b.id, f.name, b.date, b.start_time, b.end_time, b.purpose, u.id, u.email
		 FROM bookings b
		 JOIN facilities f ON f.id = b.facility_id
		 JOIN residents r ON r.id = b.resident_id
		 JOIN users u ON u.id = r.user_id
		 WHERE b.date = ? AND b.status = 'approved'
		 ORDER BY b.start_time`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []BookingReminderRow
	for rows.Next() {
		var r BookingReminderRow
		if err := rows.Scan(&r.BookingID, &r.FacilityName, &r.Date, &r.StartTime, &r.EndTime,
			&r.Purpose, &r.UserID, &r.Email); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}
