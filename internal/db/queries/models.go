package queries

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Resident PII columns (FirstName, LastName, Phone) hold ciphertext.
type Resident struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Phone     sql.NullString `json:"phone"`
	Unit      sql.NullString `json:"unit"`
	CreatedAt time.Time      `json:"created_at"`
}

type Staff struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Position  string    `json:"position"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type Facility struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Capacity    int64     `json:"capacity"`
	Status      string    `json:"status"`
	OpenTime    string    `json:"open_time"`
	CloseTime   string    `json:"close_time"`
	CreatedAt   time.Time `json:"created_at"`
}

type FacilityRating struct {
	ID         int64     `json:"id"`
	FacilityID int64     `json:"facility_id"`
	ResidentID int64     `json:"resident_id"`
	Rating     int64     `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type StaffFacilityAssignment struct {
	ID         int64     `json:"id"`
	StaffID    int64     `json:"staff_id"`
	FacilityID int64     `json:"facility_id"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
}

type Booking struct {
	ID           int64         `json:"id"`
	FacilityID   int64         `json:"facility_id"`
	ResidentID   int64         `json:"resident_id"`
	Date         string        `json:"date"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Attendees    int64         `json:"attendees"`
	Purpose      string        `json:"purpose"`
	Status       string        `json:"status"`
	ApprovedBy   sql.NullInt64 `json:"approved_by"`
	ApprovalDate sql.NullTime  `json:"approval_date"`
	CreatedAt    time.Time     `json:"created_at"`
}

type MaintenanceReport struct {
	ID                 int64          `json:"id"`
	FacilityID         int64          `json:"facility_id"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Status             string         `json:"status"`
	Priority           string         `json:"priority"`
	ReportedByResident sql.NullInt64  `json:"reported_by_resident"`
	ReportedByStaff    sql.NullInt64  `json:"reported_by_staff"`
	AssignedTo         sql.NullInt64  `json:"assigned_to"`
	ScheduledDate      sql.NullString `json:"scheduled_date"`
	CompletionDate     sql.NullTime   `json:"completion_date"`
	Feedback           sql.NullString `json:"feedback"`
	CreatedAt          time.Time      `json:"created_at"`
}

type Event struct {
	ID          int64     `json:"id"`
	FacilityID  int64     `json:"facility_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Capacity    int64     `json:"capacity"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
