package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/report-portal/internal/apperror"
	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/repository"
)

var _ repository.ReportRepository = (*ReportDB)(nil)

// ReportDB stores reports in the reports table.
type ReportDB struct {
	conn *sql.DB
}

const reportColumns = `id, user_id, document, created_at, updated_at`

// Create inserts a report owned by report.UserID.
//
// The whole report (known fields + Extra) is encoded into `document`.
// title, report_type and image_url are copied into their own columns so they
// can be inspected with plain SQL.
func (r *ReportDB) Create(ctx context.Context, report *model.Report) error {
	now := time.Now().UTC()
	report.ID = xid.New().String()
	report.CreatedAt = now
	report.UpdatedAt = now

	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("sqlite: encoding report: %w", err)
	}

	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, title, report_type, image_url, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.UserID,
		report.Title,
		report.ReportType,
		report.ImageURL,
		string(doc),
		report.CreatedAt.UnixNano(),
		report.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating report: %w", err)
	}

	return nil
}

// ListByOwner returns every report owned by ownerID, newest first.
// id is the tie-breaker so reports created in the same instant keep a stable order.
func (r *ReportDB) ListByOwner(ctx context.Context, ownerID string) ([]model.Report, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+reportColumns+`
		 FROM reports
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reports: %w", err)
	}
	defer rows.Close()

	reports := make([]model.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reports: %w", err)
	}

	return reports, nil
}

// GetByID returns the report only if it belongs to ownerID.
func (r *ReportDB) GetByID(ctx context.Context, ownerID, id string) (*model.Report, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("report", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting report %s: %w", id, err)
	}
	return report, nil
}

// DeleteByID removes the report in one statement filtered by id AND owner.
// With two concurrent deletes, exactly one sees RowsAffected == 1.
func (r *ReportDB) DeleteByID(ctx context.Context, ownerID, id string) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM reports WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting report %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("report", id)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanReport decodes the document column and then overwrites the
// server-owned fields from their authoritative columns.
func scanReport(s rowScanner) (*model.Report, error) {
	var (
		id, userID, doc    string
		created, updatedAt int64
	)
	if err := s.Scan(&id, &userID, &doc, &created, &updatedAt); err != nil {
		return nil, err
	}

	var report model.Report
	if err := json.Unmarshal([]byte(doc), &report); err != nil {
		return nil, fmt.Errorf("decoding report document %s: %w", id, err)
	}
	report.ID = id
	report.UserID = userID
	report.CreatedAt = time.Unix(0, created).UTC()
	report.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return &report, nil
}
