package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"revir/internal/models"
)

const visitColumns = `id, member_id, locality_id, start_date, end_date, has_guest, guest_name, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (*models.Visit, error) {
	var (
		v       models.Visit
		endDate sql.NullTime
	)
	err := row.Scan(&v.ID, &v.MemberID, &v.LocalityID, &v.StartDate, &endDate,
		&v.HasGuest, &v.GuestName, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.StartDate = utc(v.StartDate)
	v.EndDate = timePtr(endDate)
	v.CreatedAt = utc(v.CreatedAt)
	v.UpdatedAt = utc(v.UpdatedAt)
	return &v, nil
}

func (t *tx) listVisits(ctx context.Context, query string, args ...any) ([]models.Visit, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []models.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, *v)
	}
	return visits, rows.Err()
}

func (t *tx) GetVisit(ctx context.Context, id int64) (*models.Visit, error) {
	v, err := scanVisit(t.queryRow(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "visit", id)
	}
	return v, nil
}

// GetOpenVisitByMember returns the member's open visit, or nil if there is none.
func (t *tx) GetOpenVisitByMember(ctx context.Context, memberID int64) (*models.Visit, error) {
	v, err := scanVisit(t.queryRow(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE member_id = ? AND end_date IS NULL`, memberID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open visit of member %d: %w", memberID, err)
	}
	return v, nil
}

func (t *tx) ListOpenVisitsByLocality(ctx context.Context, localityID int64) ([]models.Visit, error) {
	visits, err := t.listVisits(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE locality_id = ? AND end_date IS NULL`, localityID)
	if err != nil {
		return nil, fmt.Errorf("list open visits of locality %d: %w", localityID, err)
	}
	return visits, nil
}

func (t *tx) ListOpenVisits(ctx context.Context) ([]models.Visit, error) {
	visits, err := t.listVisits(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE end_date IS NULL ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list open visits: %w", err)
	}
	return visits, nil
}

func (t *tx) ListMemberVisits(ctx context.Context, memberID int64, limit int) ([]models.Visit, error) {
	if limit <= 0 {
		limit = 50
	}
	visits, err := t.listVisits(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE member_id = ? ORDER BY start_date DESC, id DESC LIMIT ?`,
		memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list visits of member %d: %w", memberID, err)
	}
	return visits, nil
}

func (t *tx) CreateVisit(ctx context.Context, v *models.Visit) error {
	now := time.Now().UTC()
	v.StartDate = utc(v.StartDate)
	err := t.queryRow(ctx, `
		INSERT INTO visits (member_id, locality_id, start_date, end_date, has_guest, guest_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		v.MemberID, v.LocalityID, v.StartDate, nullTime(v.EndDate), v.HasGuest, v.GuestName, now, now,
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("create visit: %w", err)
	}
	v.CreatedAt = now
	v.UpdatedAt = now
	return nil
}

func (t *tx) CloseVisit(ctx context.Context, id int64, endDate time.Time) error {
	res, err := t.exec(ctx,
		`UPDATE visits SET end_date = ?, updated_at = ? WHERE id = ? AND end_date IS NULL`,
		endDate.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("close visit %d: %w", id, err)
	}
	return expectOne(res, "open visit", id)
}

func (t *tx) SetVisitGuest(ctx context.Context, id int64, guestName string) error {
	res, err := t.exec(ctx,
		`UPDATE visits SET has_guest = TRUE, guest_name = ?, updated_at = ? WHERE id = ?`,
		guestName, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set guest of visit %d: %w", id, err)
	}
	return expectOne(res, "visit", id)
}
