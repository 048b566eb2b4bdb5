package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"
)

type Professional struct {
	ID       uuid.UUID
	FullName string
	Username string
	Email    string
	Role     string
	Status   string
	// Preenchido só no lookup de login.
	PasswordHash string `json:"-"`
}

func ProfessionalByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Professional, error) {
	var p Professional
	err := db.WithContext(ctx).Raw(`
		SELECT id, full_name, username, email, role, status FROM professionals WHERE id = ?
	`, id).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, ErrNotFound
	}
	return &p, nil
}

func ProfessionalByUsername(ctx context.Context, db *gorm.DB, username string) (*Professional, error) {
	var p Professional
	err := db.WithContext(ctx).Raw(`
		SELECT id, full_name, username, email, role, status, password_hash FROM professionals WHERE username = ?
	`, username).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, ErrNotFound
	}
	return &p, nil
}

func ListProfessionals(ctx context.Context, db *gorm.DB) ([]Professional, error) {
	var list []Professional
	err := db.WithContext(ctx).Raw(`
		SELECT id, full_name, username, email, role, status FROM professionals WHERE status = 'ACTIVE' ORDER BY full_name
	`).Scan(&list).Error
	return list, err
}

// ProfessionalUsernameByID resolve o username usado nas células da grade
// (pgx path, usável dentro de transação).
func ProfessionalUsernameByID(ctx context.Context, q Querier, id uuid.UUID) (string, error) {
	var username string
	err := q.QueryRow(ctx, `SELECT username FROM professionals WHERE id = $1`, id).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return username, nil
}

// ProfessionalEmailByID is the notification lookup (pgx path, usable in flows
// that only carry a pool).
func ProfessionalEmailByID(ctx context.Context, q Querier, id uuid.UUID) (name, email string, err error) {
	err = q.QueryRow(ctx, `SELECT full_name, email FROM professionals WHERE id = $1`, id).Scan(&name, &email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", err
	}
	return name, email, nil
}
