package queries

import (
	"context"
	"database/sql"
)

type CreateFacilityParams struct {
	Name        string
	Description string
	Capacity    int64
	Status      string
	OpenTime    string
	CloseTime   string
}

func (q *Queries) CreateFacility(ctx context.Context, arg CreateFacilityParams) (Facility, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO facilities (name, description, capacity, status, open_time, close_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Description, arg.Capacity, arg.Status, arg.OpenTime, arg.CloseTime,
	)
	if err != nil {
		return Facility{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Facility{}, err
	}
	return q.GetFacility(ctx, id)
}

type UpdateFacilityParams struct {
	ID          int64
	Name        string
	Description string
	Capacity    int64
	Status      string
	OpenTime    string
	CloseTime   string
}

func (q *Queries) UpdateFacility(ctx context.Context, arg UpdateFacilityParams) (Facility, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE facilities
		 SET name = ?, description = ?, capacity = ?, status = ?, open_time = ?, close_time = ?
		 WHERE id = ?`,
		arg.Name, arg.Description, arg.Capacity, arg.Status, arg.OpenTime, arg.CloseTime, arg.ID,
	)
	if err != nil {
		return Facility{}, err
	}
	return q.GetFacility(ctx, arg.ID)
}

func (q *Queries) GetFacility(ctx context.Context, id int64) (Facility, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, description, capacity, status, open_time, close_time, created_at
		 FROM facilities WHERE id = ?`, id)
	var f Facility
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Capacity, &f.Status,
		&f.OpenTime, &f.CloseTime, &f.CreatedAt)
	return f, err
}

func (q *Queries) ListFacilities(ctx context.Context) ([]Facility, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, description, capacity, status, open_time, close_time, created_at
		 FROM facilities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facilities []Facility
	for rows.Next() {
		var f Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Capacity, &f.Status,
			&f.OpenTime, &f.CloseTime, &f.CreatedAt); err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

func (q *Queries) FacilityExists(ctx context.Context, id int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facilities WHERE id = ?`, id)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type UpsertFacilityRatingParams struct {
	FacilityID int64
	ResidentID int64
	Rating     int64
	Comment    string
}

// UpsertFacilityRating records one rating per resident per facility; rating
// again replaces the previous score.
func (q *Queries) UpsertFacilityRating(ctx context.Context, arg UpsertFacilityRatingParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO facility_ratings (facility_id, resident_id, rating, comment)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (facility_id, resident_id)
		 DO UPDATE SET rating = excluded.rating, comment = excluded.comment`,
		arg.FacilityID, arg.ResidentID, arg.Rating, arg.Comment,
	)
	return err
}

type FacilityRatingSummaryRow struct {
	FacilityID    int64
	AverageRating sql.NullFloat64
	RatingCount   int64
}

func (q *Queries) GetFacilityRatingSummary(ctx context.Context, facilityID int64) (FacilityRatingSummaryRow, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT ?, ROUND(AVG(rating), 2), COUNT(*)
		 FROM facility_ratings WHERE facility_id = ?`, facilityID, facilityID)
	var s FacilityRatingSummaryRow
	err := row.Scan(&s.FacilityID, &s.AverageRating, &s.RatingCount)
	return s, err
}

func (q *Queries) ListFacilityRatingSummaries(ctx context.Context) ([]FacilityRatingSummaryRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT facility_id, ROUND(AVG(rating), 2), COUNT(*)
		 FROM facility_ratings GROUP BY facility_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []FacilityRatingSummaryRow
	for rows.Next() {
		var s FacilityRatingSummaryRow
		if err := rows.Scan(&s.FacilityID, &s.AverageRating, &s.RatingCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
