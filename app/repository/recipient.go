package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

const recipientColumns = "id, email, name, welcome_status, active"

type RecipientRepository struct {
	db *sql.DB
}

// NewRecipientRepository constructs a repository over the users table.
func NewRecipientRepository(db *sql.DB) *RecipientRepository {
	return &RecipientRepository{db: db}
}

// ListPendingWelcome returns active users still owed the welcome email, in id order.
func (r *RecipientRepository) ListPendingWelcome(ctx context.Context) ([]entity.Recipient, error) {
	const query = `
		SELECT ` + recipientColumns + `
		FROM users
		WHERE welcome_status = ? AND active = 1
		ORDER BY id
	`
	return r.list(ctx, query, entity.WelcomeStatusPending)
}

// ListActive returns every active user, in id order.
func (r *RecipientRepository) ListActive(ctx context.Context) ([]entity.Recipient, error) {
	const query = `
		SELECT ` + recipientColumns + `
		FROM users
		WHERE active = 1
		ORDER BY id
	`
	return r.list(ctx, query)
}

// FindByID loads one user or returns ErrRecordNotFound.
func (r *RecipientRepository) FindByID(ctx context.Context, id int64) (*entity.Recipient, error) {
	const query = `
		SELECT ` + recipientColumns + `
		FROM users
		WHERE id = ?
	`
	recipient, err := scanRecipient(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return recipient, nil
}

// MarkWelcomeSent flips welcome_status from pending to sent. It reports false
// when the row was not pending anymore.
func (r *RecipientRepository) MarkWelcomeSent(ctx context.Context, id int64) (bool, error) {
	const query = `
		UPDATE users
		SET welcome_status = ?
		WHERE id = ? AND welcome_status = ?
	`
	return execConditional(ctx, r.db, query, entity.WelcomeStatusSent, id, entity.WelcomeStatusPending)
}

func (r *RecipientRepository) list(ctx context.Context, query string, args ...any) ([]entity.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []entity.Recipient
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, *recipient)
	}
	return recipients, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipient(row rowScanner) (*entity.Recipient, error) {
	var (
		recipient entity.Recipient
		status    string
	)
	if err := row.Scan(&recipient.ID, &recipient.Email, &recipient.Name, &status, &recipient.Active); err != nil {
		return nil, err
	}
	recipient.WelcomeStatus = entity.WelcomeStatus(status)
	return &recipient, nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
