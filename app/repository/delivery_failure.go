package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

type DeliveryFailureRepository struct {
	db *sql.DB
}

// NewDeliveryFailureRepository constructs the failure log repository.
func NewDeliveryFailureRepository(db *sql.DB) *DeliveryFailureRepository {
	return &DeliveryFailureRepository{db: db}
}

// Create appends a failure row.
func (r *DeliveryFailureRepository) Create(ctx context.Context, failure entity.DeliveryFailure) error {
	const query = `
		INSERT INTO failed_deliveries (run_id, job_type, record_id, recipient, error_kind, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		failure.RunID,
		string(failure.JobType),
		failure.RecordID,
		failure.Recipient,
		string(failure.Kind),
		failure.Message,
	)
	return err
}

// ListRecent returns the newest failures for a job type.
func (r *DeliveryFailureRepository) ListRecent(ctx context.Context, jobType entity.JobType, limit int) ([]entity.DeliveryFailure, error) {
	const query = `
		SELECT run_id, job_type, record_id, recipient, error_kind, message, created_at
		FROM failed_deliveries
		WHERE job_type = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, string(jobType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []entity.DeliveryFailure
	for rows.Next() {
		var (
			f    entity.DeliveryFailure
			jt   string
			kind string
		)
		if err := rows.Scan(&f.RunID, &jt, &f.RecordID, &f.Recipient, &kind, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.JobType = entity.JobType(jt)
		f.Kind = entity.ErrorKind(kind)
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
