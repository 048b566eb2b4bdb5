package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Estados de célula de disponibilidade (contrato de dados).
const (
	CellAvailable = "available"
	CellOccupied  = "occupied"
)

// AvailabilityCell is one recurring weekly free/occupied cell of a professional.
// Day names are full English names (Monday..Saturday); hour is "HH:MM".
type AvailabilityCell struct {
	ProfessionalID uuid.UUID
	DayName        string
	Hour           string
	Modality       string
	CellStatus     string
}

func ListAvailability(ctx context.Context, db *gorm.DB, professionalID uuid.UUID) ([]AvailabilityCell, error) {
	var list []AvailabilityCell
	err := db.WithContext(ctx).Raw(`
		SELECT professional_id, day_name, hour, modality, cell_status
		FROM professional_availability WHERE professional_id = ?
		ORDER BY day_name, hour
	`, professionalID).Scan(&list).Error
	return list, err
}

// ReplaceAvailability substitui todas as células do profissional pela lista enviada
// (fluxo de submissão de disponibilidade, formulário externo).
func ReplaceAvailability(ctx context.Context, db *gorm.DB, professionalID uuid.UUID, cells []AvailabilityCell) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM professional_availability WHERE professional_id = ?`, professionalID).Error; err != nil {
			return err
		}
		for _, c := range cells {
			status := c.CellStatus
			if status == "" {
				status = CellAvailable
			}
			if err := tx.Exec(`
				INSERT INTO professional_availability (professional_id, day_name, hour, modality, cell_status)
				VALUES (?, ?, ?, ?, ?)
			`, professionalID, c.DayName, c.Hour, c.Modality, status).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ProfessionalAvailability groups the available cells of one professional,
// for the patient-side match direction.
type ProfessionalAvailability struct {
	ProfessionalID   uuid.UUID
	ProfessionalName string
	Cells            []AvailabilityCell
}

// ListAllAvailable returns every professional that has at least one available cell.
func ListAllAvailable(ctx context.Context, db *gorm.DB) ([]ProfessionalAvailability, error) {
	var rows []struct {
		ProfessionalID   uuid.UUID
		ProfessionalName string
		DayName          string
		Hour             string
		Modality         string
		CellStatus       string
	}
	err := db.WithContext(ctx).Raw(`
		SELECT a.professional_id, p.full_name AS professional_name, a.day_name, a.hour, a.modality, a.cell_status
		FROM professional_availability a
		JOIN professionals p ON p.id = a.professional_id AND p.status = 'ACTIVE'
		WHERE a.cell_status = ?
		ORDER BY a.professional_id, a.day_name, a.hour
	`, CellAvailable).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	var out []ProfessionalAvailability
	for _, r := range rows {
		cell := AvailabilityCell{
			ProfessionalID: r.ProfessionalID,
			DayName:        r.DayName,
			Hour:           r.Hour,
			Modality:       r.Modality,
			CellStatus:     r.CellStatus,
		}
		if n := len(out); n > 0 && out[n-1].ProfessionalID == r.ProfessionalID {
			out[n-1].Cells = append(out[n-1].Cells, cell)
			continue
		}
		out = append(out, ProfessionalAvailability{
			ProfessionalID:   r.ProfessionalID,
			ProfessionalName: r.ProfessionalName,
			Cells:            []AvailabilityCell{cell},
		})
	}
	return out, nil
}

// MarkCellOccupied flips one availability cell to occupied. Rodar dentro da
// mesma transação que grava a grade.
func MarkCellOccupied(ctx context.Context, q Querier, professionalID uuid.UUID, dayName, hour, modality string) error {
	tag, err := q.Exec(ctx, `
		UPDATE professional_availability SET cell_status = $5
		WHERE professional_id = $1 AND day_name = $2 AND hour = $3 AND modality = $4
	`, professionalID, dayName, hour, modality, CellOccupied)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
