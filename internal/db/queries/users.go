package queries

import (
	"context"
	"database/sql"
)

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, role) VALUES (?, ?, ?)`,
		arg.Email, arg.PasswordHash, arg.Role,
	)
	if err != nil {
		return User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users WHERE id = ?`, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users WHERE email = ?`, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

type CreateResidentParams struct {
	UserID    int64
	FirstName string
	LastName  string
	Phone     sql.NullString
	Unit      sql.NullString
}

func (q *Queries) CreateResident(ctx context.Context, arg CreateResidentParams) (Resident, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO residents (user_id, first_name, last_name, phone, unit) VALUES (?, ?, ?, ?, ?)`,
		arg.UserID, arg.FirstName, arg.LastName, arg.Phone, arg.Unit,
	)
	if err != nil {
		return Resident{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Resident{}, err
	}
	return q.GetResidentByID(ctx, id)
}

func (q *Queries) GetResidentByID(ctx context.Context, id int64) (Resident, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, first_name, last_name, phone, unit, created_at
		 FROM residents WHERE id = ?`, id)
	var r Resident
	err := row.Scan(&r.ID, &r.UserID, &r.FirstName, &r.LastName, &r.Phone, &r.Unit, &r.CreatedAt)
	return r, err
}

func (q *Queries) GetResidentByUserID(ctx context.Context, userID int64) (Resident, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, first_name, last_name, phone, unit, created_at
		 FROM residents WHERE user_id = ?`, userID)
	var r Resident
	err := row.Scan(&r.ID, &r.UserID, &r.FirstName, &r.LastName, &r.Phone, &r.Unit, &r.CreatedAt)
	return r, err
}

// ResidentContactRow joins a resident to its login account for notification
// delivery.
type ResidentContactRow struct {
	ResidentID int64
	UserID     int64
	Email      string
}

func (q *Queries) GetResidentContact(ctx context.Context, residentID int64) (ResidentContactRow, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT r.id, u.id, u.email
		 FROM residents r JOIN users u ON u.id = r.user_id
		 WHERE r.id = ?`, residentID)
	var c ResidentContactRow
	err := row.Scan(&c.ResidentID, &c.UserID, &c.Email)
	return c, err
}

type CreateStaffParams struct {
	UserID   int64
	Position string
	IsAdmin  bool
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO staff (user_id, position, is_admin) VALUES (?, ?, ?)`,
		arg.UserID, arg.Position, arg.IsAdmin,
	)
	if err != nil {
		return Staff{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Staff{}, err
	}
	return q.GetStaffByID(ctx, id)
}

func (q *Queries) GetStaffByID(ctx context.Context, id int64) (Staff, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, position, is_admin, created_at FROM staff WHERE id = ?`, id)
	var s Staff
	err := row.Scan(&s.ID, &s.UserID, &s.Position, &s.IsAdmin, &s.CreatedAt)
	return s, err
}

func (q *Queries) GetStaffByUserID(ctx context.Context, userID int64) (Staff, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, position, is_admin, created_at FROM staff WHERE user_id = ?`, userID)
	var s Staff
	err := row.Scan(&s.ID, &s.UserID, &s.Position, &s.IsAdmin, &s.CreatedAt)
	return s, err
}

func (q *Queries) StaffExists(ctx context.Context, id int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff WHERE id = ?`, id)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// ListStaffUserIDsForFacility returns the login user IDs of every staff member
// assigned to the facility, admins included.
func (q *Queries) ListStaffUserIDsForFacility(ctx context.Context, facilityID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT DISTINCT s.user_id
		 FROM staff s
		 LEFT JOIN staff_facility_assignments a ON a.staff_id = s.id
		 WHERE s.is_admin = 1 OR a.facility_id = ?`, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
