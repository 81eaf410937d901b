package queries

import "context"

type UpsertStaffFacilityAssignmentParams struct {
	StaffID    int64
	FacilityID int64
	IsPrimary  bool
}

func (q *Queries) UpsertStaffFacilityAssignment(ctx context.Context, arg UpsertStaffFacilityAssignmentParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO staff_facility_assignments (staff_id, facility_id, is_primary)
		 VALUES (?, ?, ?)
		 ON CONFLICT (staff_id, facility_id) DO UPDATE SET is_primary = excluded.is_primary`,
		arg.StaffID, arg.FacilityID, arg.IsPrimary,
	)
	return err
}

type RemoveStaffFacilityAssignmentParams struct {
	StaffID    int64
	FacilityID int64
}

func (q *Queries) RemoveStaffFacilityAssignment(ctx context.Context, arg RemoveStaffFacilityAssignmentParams) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM staff_facility_assignments WHERE staff_id = ? AND facility_id = ?`,
		arg.StaffID, arg.FacilityID,
	)
	return err
}

func (q *Queries) ListAssignedFacilityIDs(ctx context.Context, staffID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT DISTINCT facility_id FROM staff_facility_assignments WHERE staff_id = ?`, staffID)
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
