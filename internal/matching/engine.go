package matching

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eupsico/intranet-1-sub000/internal/pipeline"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// Etapas em que um caso espera pareamento com profissional.
var matchableStatuses = []string{
	string(pipeline.StatusBriefTherapyReferral),
	string(pipeline.StatusAwaitingScheduleInfo),
}

// CandidateSlot is one (day, hour, modality) cell free on the professional side
// and wanted on the patient side.
type CandidateSlot struct {
	Day      string `json:"day"`
	Hour     string `json:"hour"`
	Modality string `json:"modality"`
}

// PatientCandidate is a case compatible with a professional's open cells.
type PatientCandidate struct {
	Case  repo.MatchableCase
	Slots []CandidateSlot
}

// ProfessionalCandidate is a professional compatible with a patient's preferences.
type ProfessionalCandidate struct {
	ProfessionalID   uuid.UUID
	ProfessionalName string
	Slots            []CandidateSlot
}

// Intersect retorna as células simultaneamente livres no profissional,
// compatíveis em modalidade e presentes na disponibilidade específica do paciente.
func Intersect(cells []repo.AvailabilityCell, patientModality string, tokens []string) []CandidateSlot {
	wanted := ExpandTokens(tokens)
	if len(wanted) == 0 {
		return nil
	}
	var out []CandidateSlot
	for _, c := range cells {
		if c.CellStatus != repo.CellAvailable {
			continue
		}
		if !ModalityCompatible(patientModality, c.Modality) {
			continue
		}
		if wanted[CellKey{Day: c.DayName, Hour: c.Hour}] {
			out = append(out, CandidateSlot{Day: c.DayName, Hour: c.Hour, Modality: c.Modality})
		}
	}
	return out
}

// CandidatesForProfessional lists every waiting case whose preferences
// intersect the professional's open cells.
func CandidatesForProfessional(ctx context.Context, db *gorm.DB, professionalID uuid.UUID) ([]PatientCandidate, error) {
	cells, err := repo.ListAvailability(ctx, db, professionalID)
	if err != nil {
		return nil, err
	}
	cases, err := repo.ListMatchableCases(ctx, db, matchableStatuses)
	if err != nil {
		return nil, err
	}
	var out []PatientCandidate
	for _, c := range cases {
		slots := Intersect(cells, c.Modality, c.DisponibilidadeEspecifica)
		if len(slots) == 0 {
			continue
		}
		out = append(out, PatientCandidate{Case: c, Slots: slots})
	}
	return out, nil
}

// CandidatesForPatient is the inverse direction: every professional with at
// least one open cell matching the given case.
func CandidatesForPatient(ctx context.Context, db *gorm.DB, c *repo.PatientCase) ([]ProfessionalCandidate, error) {
	pros, err := repo.ListAllAvailable(ctx, db)
	if err != nil {
		return nil, err
	}
	var out []ProfessionalCandidate
	for _, p := range pros {
		slots := Intersect(p.Cells, c.Modality, c.DisponibilidadeEspecifica)
		if len(slots) == 0 {
			continue
		}
		out = append(out, ProfessionalCandidate{
			ProfessionalID:   p.ProfessionalID,
			ProfessionalName: p.ProfessionalName,
			Slots:            slots,
		})
	}
	return out, nil
}
