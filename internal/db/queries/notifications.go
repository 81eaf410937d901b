package queries

import "context"

type CreateNotificationParams struct {
	UserID int64
	Kind   string
	Title  string
	Body   string
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, title, body) VALUES (?, ?, ?, ?)`,
		arg.UserID, arg.Kind, arg.Title, arg.Body,
	)
	if err != nil {
		return Notification{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Notification{}, err
	}

	row := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, kind, title, body, is_read, created_at FROM notifications WHERE id = ?`, id)
	var n Notification
	err = row.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt)
	return n, err
}

type ListNotificationsForUserParams struct {
	UserID int64
	Limit  int64
}

func (q *Queries) ListNotificationsForUser(ctx context.Context, arg ListNotificationsForUserParams) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, kind, title, body, is_read, created_at
		 FROM notifications WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

type MarkNotificationReadParams struct {
	ID     int64
	UserID int64
}

// MarkNotificationRead is scoped to the owning user so one user cannot ack
// another user's notifications.
func (q *Queries) MarkNotificationRead(ctx context.Context, arg MarkNotificationReadParams) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`,
		arg.ID, arg.UserID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
