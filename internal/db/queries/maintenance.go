package queries

import (
	"context"
	"database/sql"
	"strings"
)

const maintenanceColumns = `id, facility_id, title, description, status, priority,
	reported_by_resident, reported_by_staff, assigned_to, scheduled_date,
	completion_date, feedback, created_at`

func scanMaintenanceReport(row *sql.Row) (MaintenanceReport, error) {
	var m MaintenanceReport
	err := row.Scan(&m.ID, &m.FacilityID, &m.Title, &m.Description, &m.Status, &m.Priority,
		&m.ReportedByResident, &m.ReportedByStaff, &m.AssignedTo, &m.ScheduledDate,
		&m.CompletionDate, &m.Feedback, &m.CreatedAt)
	return m, err
}

func scanMaintenanceReports(rows *sql.Rows) ([]MaintenanceReport, error) {
	defer rows.Close()
	var reports []MaintenanceReport
	for rows.Next() {
		var m MaintenanceReport
		if err := rows.Scan(&m.ID, &m.FacilityID, &m.Title, &m.Description, &m.Status, &m.Priority,
			&m.ReportedByResident, &m.ReportedByStaff, &m.AssignedTo, &m.ScheduledDate,
			&m.CompletionDate, &m.Feedback, &m.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, m)
	}
	return reports, rows.Err()
}

type CreateMaintenanceReportParams struct {
	FacilityID         int64
	Title              string
	Description        string
	Priority           string
	ReportedByResident sql.NullInt64
	ReportedByStaff    sql.NullInt64
}

func (q *Queries) CreateMaintenanceReport(ctx context.Context, arg CreateMaintenanceReportParams) (MaintenanceReport, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO maintenance_reports
		 (facility_id, title, description, priority, reported_by_resident, reported_by_staff)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.FacilityID, arg.Title, arg.Description, arg.Priority,
		arg.ReportedByResident, arg.ReportedByStaff,
	)
	if err != nil {
		return MaintenanceReport{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return MaintenanceReport{}, err
	}
	return q.GetMaintenanceReport(ctx, id)
}

func (q *Queries) GetMaintenanceReport(ctx context.Context, id int64) (MaintenanceReport, error) {
	return scanMaintenanceReport(q.db.QueryRowContext(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_reports WHERE id = ?`, id))
}

func (q *Queries) ListMaintenanceReports(ctx context.Context) ([]MaintenanceReport, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanMaintenanceReports(rows)
}

func (q *Queries) ListMaintenanceReportsForFacilities(ctx context.Context, facilityIDs []int64) ([]MaintenanceReport, error) {
	if len(facilityIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(facilityIDs)), ", ")
	args := make([]interface{}, 0, len(facilityIDs))
	for _, id := range facilityIDs {
		args = append(args, id)
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_reports
		 WHERE facility_id IN (`+placeholders+`)
		 ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	return scanMaintenanceReports(rows)
}

func (q *Queries) ListMaintenanceReportsForResident(ctx context.Context, residentID int64) ([]MaintenanceReport, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_reports
		 WHERE reported_by_resident = ? ORDER BY created_at DESC`, residentID)
	if err != nil {
		return nil, err
	}
	return scanMaintenanceReports(rows)
}

type UpdateMaintenanceReportParams struct {
	ID             int64
	Status         string
	AssignedTo     sql.NullInt64
	ScheduledDate  sql.NullString
	CompletionDate sql.NullTime
	Feedback       sql.NullString
}

func (q *Queries) UpdateMaintenanceReport(ctx context.Context, arg UpdateMaintenanceReportParams) (MaintenanceReport, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE maintenance_reports
		 SET status = ?, assigned_to = ?, scheduled_date = ?, completion_date = ?, feedback = ?
		 WHERE id = ?`,
		arg.Status, arg.AssignedTo, arg.ScheduledDate, arg.CompletionDate, arg.Feedback, arg.ID,
	)
	if err != nil {
		return MaintenanceReport{}, err
	}
	return q.GetMaintenanceReport(ctx, arg.ID)
}

// ListUnassignedCriticalReports feeds the hourly escalation sweep.
func (q *Queries) ListUnassignedCriticalReports(ctx context.Context) ([]MaintenanceReport, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_reports
		 WHERE priority = 'critical' AND assigned_to IS NULL AND status != 'completed'
		 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return scanMaintenanceReports(rows)
}
