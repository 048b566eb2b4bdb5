package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// ValidationError rejeita um avanço por campo obrigatório ausente ou inválido.
// Nenhuma mutação parcial acontece quando ela é retornada.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("campo %s: %s", e.Field, e.Msg)
}

// IsValidation reports whether err is a stage-contract rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AssignmentChoice resolve o que fazer quando o caso já tem um atendimento
// ativo. Sempre explícito, nunca inferido.
type AssignmentChoice string

const (
	ChoiceReplace      AssignmentChoice = "replace"
	ChoiceAddSecondary AssignmentChoice = "add_secondary"
)

// AssignmentInput is the new-assignment payload of the schedule-registered
// stage (and of a confirmed match).
type AssignmentInput struct {
	ProfessionalID   *uuid.UUID
	ProfessionalName string
	DayName          string
	SlotTime         string
	Modality         string
	Deadline         *time.Time
}

// AdvanceInput is the payload of one Advance call. Only the fields the target
// stage's contract names are read.
type AdvanceInput struct {
	Target    Status
	UpdatedBy string

	TriageDate *time.Time
	TriageType string

	Plantao   *repo.PlantaoInfo
	StartDate string

	ConfirmedDate *time.Time
	ConfirmedTime string

	ContributionValue *float64

	Assignment *AssignmentInput
	Choice     AssignmentChoice
}

// validateStage checa o contrato de campos da etapa alvo, antes de qualquer escrita.
func validateStage(cur *repo.PatientCase, in AdvanceInput) error {
	switch in.Target {
	case StatusTriageScheduled:
		if in.TriageDate == nil {
			return &ValidationError{Field: "triageDate", Msg: "data da triagem é obrigatória"}
		}
		if in.TriageType == "" {
			return &ValidationError{Field: "triageType", Msg: "tipo de triagem é obrigatório"}
		}
	case StatusPlantaoReferral:
		if in.Plantao == nil || in.Plantao.ProfessionalName == "" {
			return &ValidationError{Field: "plantao", Msg: "dados do plantão são obrigatórios"}
		}
	case StatusPlantaoActive:
		if cur.Plantao == nil && in.Plantao == nil {
			return &ValidationError{Field: "plantao", Msg: "caso sem dados de plantão"}
		}
		if in.StartDate == "" {
			return &ValidationError{Field: "startDate", Msg: "data de início é obrigatória"}
		}
	case StatusPlantaoConfirmed:
		if in.ConfirmedDate == nil {
			return &ValidationError{Field: "confirmedDate", Msg: "data confirmada é obrigatória"}
		}
		if in.ConfirmedTime == "" {
			return &ValidationError{Field: "confirmedTime", Msg: "horário confirmado é obrigatório"}
		}
	case StatusBriefTherapyReferral:
		// sem campos extras; o encaminhamento só muda a etapa
	case StatusAwaitingScheduleInfo:
		if in.ContributionValue == nil || *in.ContributionValue < 0 {
			return &ValidationError{Field: "contributionValue", Msg: "valor de contribuição é obrigatório"}
		}
	case StatusScheduleRegistered:
		a := in.Assignment
		if a == nil || a.ProfessionalName == "" {
			return &ValidationError{Field: "assignment", Msg: "profissional do atendimento é obrigatório"}
		}
		if a.DayName == "" || a.SlotTime == "" || a.Modality == "" {
			return &ValidationError{Field: "assignment", Msg: "dia, horário e modalidade são obrigatórios"}
		}
	case StatusBriefTherapyActive, StatusPartnership, StatusGroupCare, StatusDischarge:
		// contrato verificado contra o estado persistido, dentro da transação
	default:
		return &ValidationError{Field: "targetStatus", Msg: "etapa desconhecida"}
	}
	return nil
}
