package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"
)

// MatchAttempt tracks the human follow-up of one candidate pairing, from first
// contact to a confirmed booking or cancellation. Archived attempts keep their
// row (soft-terminal).
type MatchAttempt struct {
	ID                uuid.UUID
	PatientID         uuid.UUID
	PatientName       string
	ProfessionalID    uuid.UUID
	ProfessionalName  string
	CompatibleSlot    string
	ContributionValue *float64
	Status            string
	CancelReason      *string
	CreatedAt         time.Time
	ArchivedAt        *time.Time
}

func CreateAttempt(ctx context.Context, q Querier, a *MatchAttempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO match_attempts (id, patient_id, patient_name, professional_id, professional_name, compatible_slot, contribution_value, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.PatientID, a.PatientName, a.ProfessionalID, a.ProfessionalName, a.CompatibleSlot, a.ContributionValue, a.Status)
	return err
}

const attemptColumns = `
	id, patient_id, patient_name, professional_id, professional_name,
	compatible_slot, contribution_value, status, cancel_reason, created_at, archived_at`

func scanAttempt(row pgx.Row) (*MatchAttempt, error) {
	var a MatchAttempt
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.ProfessionalID, &a.ProfessionalName,
		&a.CompatibleSlot, &a.ContributionValue, &a.Status, &a.CancelReason, &a.CreatedAt, &a.ArchivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func AttemptByID(ctx context.Context, q Querier, id uuid.UUID) (*MatchAttempt, error) {
	return scanAttempt(q.QueryRow(ctx, `SELECT `+attemptColumns+` FROM match_attempts WHERE id = $1`, id))
}

func AttemptByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*MatchAttempt, error) {
	return scanAttempt(tx.QueryRow(ctx, `SELECT `+attemptColumns+` FROM match_attempts WHERE id = $1 FOR UPDATE`, id))
}

// SetAttemptStatus is the plain mid-pipeline status update.
func SetAttemptStatus(ctx context.Context, q Querier, id uuid.UUID, status string) error {
	tag, err := q.Exec(ctx, `UPDATE match_attempts SET status = $2 WHERE id = $1 AND archived_at IS NULL`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ArchiveAttempt grava o status terminal e o archived_at; cancelReason só nos cancelamentos.
func ArchiveAttempt(ctx context.Context, q Querier, id uuid.UUID, status string, cancelReason *string) error {
	tag, err := q.Exec(ctx, `
		UPDATE match_attempts SET status = $2, cancel_reason = $3, archived_at = now()
		WHERE id = $1 AND archived_at IS NULL
	`, id, status, cancelReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAttempts returns attempts for display, newest first. status '' = all;
// archived attempts are included only when includeArchived is set.
func ListAttempts(ctx context.Context, db *gorm.DB, status string, includeArchived bool, limit, offset int) ([]MatchAttempt, error) {
	q := `SELECT ` + attemptColumns + ` FROM match_attempts WHERE 1=1`
	args := []interface{}{}
	if status != "" {
		q += " AND status = ?"
		args = append(args, status)
	}
	if !includeArchived {
		q += " AND archived_at IS NULL"
	}
	q += " ORDER BY created_at DESC"
	if limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	var list []MatchAttempt
	err := db.WithContext(ctx).Raw(q, args...).Scan(&list).Error
	return list, err
}
