package queries

import "context"

type CreateEventParams struct {
	FacilityID  int64
	Title       string
	Description string
	Date        string
	StartTime   string
	EndTime     string
	Capacity    int64
	CreatedBy   int64
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO events (facility_id, title, description, date, start_time, end_time, capacity, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.FacilityID, arg.Title, arg.Description, arg.Date, arg.StartTime, arg.EndTime,
		arg.Capacity, arg.CreatedBy,
	)
	if err != nil {
		return Event{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Event{}, err
	}
	return q.GetEvent(ctx, id)
}

func (q *Queries) GetEvent(ctx context.Context, id int64) (Event, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, facility_id, title, description, date, start_time, end_time, capacity, created_by, created_at
		 FROM events WHERE id = ?`, id)
	var e Event
	err := row.Scan(&e.ID, &e.FacilityID, &e.Title, &e.Description, &e.Date, &e.StartTime,
		&e.EndTime, &e.Capacity, &e.CreatedBy, &e.CreatedAt)
	return e, err
}

// EventSummaryRow is an event with its current registration count.
type EventSummaryRow struct {
	Event
	RegisteredCount int64
}

func (q *Queries) ListEventsFromDate(ctx context.Context, fromDate string) ([]EventSummaryRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT e.id, e.facility_id, e.title, e.description, e.date, e.start_time, e.end_time,
		        e.capacity, e.created_by, e.created_at,
		        (SELECT COUNT(*) FROM event_registrations er WHERE er.event_id = e.id)
		 FROM events e
		 WHERE e.date >= ?
		 ORDER BY e.date, e.start_time`, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventSummaryRow
	for rows.Next() {
		var e EventSummaryRow
		if err := rows.Scan(&e.ID, &e.FacilityID, &e.Title, &e.Description, &e.Date, &e.StartTime,
			&e.EndTime, &e.Capacity, &e.CreatedBy, &e.CreatedAt, &e.RegisteredCount); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (q *Queries) CountEventRegistrations(ctx context.Context, eventID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = ?`, eventID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type EventRegistrationParams struct {
	EventID    int64
	ResidentID int64
}

func (q *Queries) CreateEventRegistration(ctx context.Context, arg EventRegistrationParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO event_registrations (event_id, resident_id) VALUES (?, ?)`,
		arg.EventID, arg.ResidentID,
	)
	return err
}

func (q *Queries) DeleteEventRegistration(ctx context.Context, arg EventRegistrationParams) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`DELETE FROM event_registrations WHERE event_id = ? AND resident_id = ?`,
		arg.EventID, arg.ResidentID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) EventRegistrationExists(ctx context.Context, arg EventRegistrationParams) (int64, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = ? AND resident_id = ?`,
		arg.EventID, arg.ResidentID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
