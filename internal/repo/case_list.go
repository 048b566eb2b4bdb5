package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseListRow is the display shape for case listings (no contact data).
type CaseListRow struct {
	ID            uuid.UUID
	FullName      string
	Status        string
	Modality      string
	LastUpdate    time.Time
	LastUpdatedBy string
	CreatedAt     time.Time
}

// ListCasesByStatus returns cases filtered by status ('' = all), ordered by
// last update desc, with the total for pagination.
func ListCasesByStatus(ctx context.Context, db *gorm.DB, status string, limit, offset int) ([]CaseListRow, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = "WHERE status = ?"
		args = append(args, status)
	}
	var total int
	if err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM patient_cases "+where, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	q := `
		SELECT id, full_name, status, modality, last_update, last_updated_by, created_at
		FROM patient_cases ` + where + ` ORDER BY last_update DESC`
	if limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	var list []CaseListRow
	err := db.WithContext(ctx).Raw(q, args...).Scan(&list).Error
	return list, total, err
}

// MatchableCase is what the match engine needs from a case record.
type MatchableCase struct {
	ID                        uuid.UUID
	FullName                  string
	Status                    string
	Modality                  string
	DisponibilidadeEspecifica []string
	ContributionValue         *float64
}

// ListMatchableCases returns cases waiting for a professional pairing
// (brief-therapy referral and awaiting-schedule-info stages).
func ListMatchableCases(ctx context.Context, db *gorm.DB, statuses []string) ([]MatchableCase, error) {
	var rows []struct {
		ID                        uuid.UUID
		FullName                  string
		Status                    string
		Modality                  string
		DisponibilidadeEspecifica []byte
		ContributionValue         *float64
	}
	err := db.WithContext(ctx).Raw(`
		SELECT id, full_name, status, modality,
		       to_json(disponibilidade_especifica)::text AS disponibilidade_especifica,
		       contribution_value
		FROM patient_cases WHERE status IN ? ORDER BY created_at
	`, statuses).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	list := make([]MatchableCase, 0, len(rows))
	for _, r := range rows {
		list = append(list, MatchableCase{
			ID:                        r.ID,
			FullName:                  r.FullName,
			Status:                    r.Status,
			Modality:                  r.Modality,
			DisponibilidadeEspecifica: decodeTextArrayJSON(r.DisponibilidadeEspecifica),
			ContributionValue:         r.ContributionValue,
		})
	}
	return list, nil
}
