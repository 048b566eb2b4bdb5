package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Valores de status de assignment gravados no banco (contrato de dados, não traduzir).
const (
	AssignmentActive = "active"
	AssignmentClosed = "closed"
)

// PlantaoInfo carrega os dados do acolhimento de plantão. Gravado como jsonb
// no registro do caso; as chaves são o contrato com os formulários.
type PlantaoInfo struct {
	ProfessionalID   *uuid.UUID `json:"professionalId,omitempty"`
	ProfessionalName string     `json:"professionalName"`
	ReferredAt       string     `json:"referredAt,omitempty"`
	StartDate        string     `json:"startDate,omitempty"`
}

// PatientCase is one patient pipeline record. Status values come from
// pipeline.Status; this layer treats them as opaque strings.
type PatientCase struct {
	ID                        uuid.UUID
	FullName                  string
	Status                    string
	Modality                  string
	DisponibilidadeGeral      []string
	DisponibilidadeEspecifica []string
	Plantao                   *PlantaoInfo
	TriageDate                *time.Time
	TriageType                *string
	ContributionValue         *float64
	ConfirmedDate             *time.Time
	ConfirmedTime             *string
	WithdrawalReason          *string
	ContactEnc                []byte
	ContactNonce              []byte
	ContactKeyVer             *string
	ContactHash               *string
	LastUpdate                time.Time
	LastUpdatedBy             string
	CreatedAt                 time.Time
}

const caseColumns = `
	id, full_name, status, modality, disponibilidade_geral, disponibilidade_especifica,
	plantao, triage_date, triage_type, contribution_value, confirmed_date, confirmed_time,
	withdrawal_reason, contact_enc, contact_nonce, contact_key_ver, contact_hash,
	last_update, last_updated_by, created_at`

func scanCase(row pgx.Row) (*PatientCase, error) {
	var c PatientCase
	var plantaoRaw []byte
	err := row.Scan(
		&c.ID, &c.FullName, &c.Status, &c.Modality, &c.DisponibilidadeGeral, &c.DisponibilidadeEspecifica,
		&plantaoRaw, &c.TriageDate, &c.TriageType, &c.ContributionValue, &c.ConfirmedDate, &c.ConfirmedTime,
		&c.WithdrawalReason, &c.ContactEnc, &c.ContactNonce, &c.ContactKeyVer, &c.ContactHash,
		&c.LastUpdate, &c.LastUpdatedBy, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(plantaoRaw) > 0 {
		var p PlantaoInfo
		if err := json.Unmarshal(plantaoRaw, &p); err == nil {
			c.Plantao = &p
		}
	}
	return &c, nil
}

func CreateCase(ctx context.Context, q Querier, c *PatientCase) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO patient_cases (id, full_name, status, modality, disponibilidade_geral, disponibilidade_especifica,
			contact_enc, contact_nonce, contact_key_ver, contact_hash, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, c.ID, c.FullName, c.Status, c.Modality, c.DisponibilidadeGeral, c.DisponibilidadeEspecifica,
		c.ContactEnc, c.ContactNonce, c.ContactKeyVer, c.ContactHash, c.LastUpdatedBy)
	return err
}

// CountCasesByContactHash conta os casos com o mesmo hash de contato fora dos
// status passados (os terminais, tipicamente). Dedupe na entrada da esteira.
func CountCasesByContactHash(ctx context.Context, q Querier, hash string, excludedStatuses []string) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM patient_cases WHERE contact_hash = $1 AND status != ALL($2)
	`, hash, excludedStatuses).Scan(&n)
	return n, err
}

func CaseByID(ctx context.Context, q Querier, id uuid.UUID) (*PatientCase, error) {
	return scanCase(q.QueryRow(ctx, `SELECT `+caseColumns+` FROM patient_cases WHERE id = $1`, id))
}

// CaseByIDForUpdate lê o caso com lock de linha, dentro de uma transação.
func CaseByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*PatientCase, error) {
	return scanCase(tx.QueryRow(ctx, `SELECT `+caseColumns+` FROM patient_cases WHERE id = $1 FOR UPDATE`, id))
}

// SetCaseStatus overwrites status and stamps the audit fields.
func SetCaseStatus(ctx context.Context, q Querier, id uuid.UUID, status, updatedBy string) error {
	tag, err := q.Exec(ctx, `
		UPDATE patient_cases SET status = $2, last_update = now(), last_updated_by = $3 WHERE id = $1
	`, id, status, updatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func SetCaseTriage(ctx context.Context, q Querier, id uuid.UUID, triageDate time.Time, triageType string) error {
	_, err := q.Exec(ctx, `
		UPDATE patient_cases SET triage_date = $2, triage_type = $3, last_update = now() WHERE id = $1
	`, id, triageDate, triageType)
	return err
}

func SetCasePlantao(ctx context.Context, q Querier, id uuid.UUID, p *PlantaoInfo) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `UPDATE patient_cases SET plantao = $2, last_update = now() WHERE id = $1`, id, raw)
	return err
}

func SetCaseContribution(ctx context.Context, q Querier, id uuid.UUID, value float64) error {
	_, err := q.Exec(ctx, `UPDATE patient_cases SET contribution_value = $2, last_update = now() WHERE id = $1`, id, value)
	return err
}

func SetCaseConfirmed(ctx context.Context, q Querier, id uuid.UUID, date time.Time, hour string) error {
	_, err := q.Exec(ctx, `UPDATE patient_cases SET confirmed_date = $2, confirmed_time = $3, last_update = now() WHERE id = $1`, id, date, hour)
	return err
}

func SetCaseWithdrawal(ctx context.Context, q Querier, id uuid.UUID, reason, updatedBy, status string) error {
	tag, err := q.Exec(ctx, `
		UPDATE patient_cases SET status = $2, withdrawal_reason = $3, last_update = now(), last_updated_by = $4 WHERE id = $1
	`, id, status, reason, updatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func SetCasePreferences(ctx context.Context, q Querier, id uuid.UUID, modality string, geral, especifica []string) error {
	_, err := q.Exec(ctx, `
		UPDATE patient_cases SET modality = $2, disponibilidade_geral = $3, disponibilidade_especifica = $4, last_update = now()
		WHERE id = $1
	`, id, modality, geral, especifica)
	return err
}

// Assignment is one professional-to-patient care relationship (atendimento PB).
type Assignment struct {
	ID               uuid.UUID
	CaseID           uuid.UUID
	ProfessionalID   *uuid.UUID
	ProfessionalName string
	DayName          *string
	SlotTime         *string
	Modality         *string
	Deadline         *time.Time
	Status           string
	CreatedAt        time.Time
	ClosedAt         *time.Time
}

func InsertAssignment(ctx context.Context, q Querier, a *Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AssignmentActive
	}
	_, err := q.Exec(ctx, `
		INSERT INTO case_assignments (id, case_id, professional_id, professional_name, day_name, slot_time, modality, deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.CaseID, a.ProfessionalID, a.ProfessionalName, a.DayName, a.SlotTime, a.Modality, a.Deadline, a.Status)
	return err
}

func AssignmentsByCase(ctx context.Context, q Querier, caseID uuid.UUID) ([]Assignment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, case_id, professional_id, professional_name, day_name, slot_time, modality, deadline, status, created_at, closed_at
		FROM case_assignments WHERE case_id = $1 ORDER BY created_at
	`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.CaseID, &a.ProfessionalID, &a.ProfessionalName, &a.DayName, &a.SlotTime, &a.Modality, &a.Deadline, &a.Status, &a.CreatedAt, &a.ClosedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func CountActiveAssignments(ctx context.Context, q Querier, caseID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM case_assignments WHERE case_id = $1 AND status = $2`, caseID, AssignmentActive).Scan(&n)
	return n, err
}

// CloseActiveAssignments fecha todos os atendimentos ativos do caso e retorna quantos fechou.
func CloseActiveAssignments(ctx context.Context, q Querier, caseID uuid.UUID) (int64, error) {
	tag, err := q.Exec(ctx, `
		UPDATE case_assignments SET status = $2, closed_at = now() WHERE case_id = $1 AND status = $3
	`, caseID, AssignmentClosed, AssignmentActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
