// Package pipeline implementa a máquina de estados do caso do paciente:
// etapas, contratos de campos por etapa e os efeitos colaterais de cada avanço.
package pipeline

// Status is a pipeline stage. The string values are the stored wire contract
// and must not be renamed.
type Status string

const (
	StatusIntake               Status = "intake"
	StatusTriageScheduled      Status = "triage-scheduled"
	StatusPlantaoReferral      Status = "plantão-referral"
	StatusPlantaoActive        Status = "plantão-active"
	StatusPlantaoConfirmed     Status = "plantão-confirmed"
	StatusBriefTherapyReferral Status = "brief-therapy-referral"
	StatusAwaitingScheduleInfo Status = "awaiting-schedule-info"
	StatusScheduleRegistered   Status = "schedule-registered"
	StatusBriefTherapyActive   Status = "brief-therapy-active"
	StatusPartnership          Status = "partnership"
	StatusGroupCare            Status = "group-care"
	StatusWithdrawal           Status = "withdrawal"
	StatusDischarge            Status = "discharge"
)

// IsTerminal reports whether the stage stops further pipeline processing.
// O registro permanece no banco; só não avança mais.
func (s Status) IsTerminal() bool {
	return s == StatusWithdrawal || s == StatusDischarge
}

func (s Status) Valid() bool {
	switch s {
	case StatusIntake, StatusTriageScheduled, StatusPlantaoReferral, StatusPlantaoActive,
		StatusPlantaoConfirmed, StatusBriefTherapyReferral, StatusAwaitingScheduleInfo,
		StatusScheduleRegistered, StatusBriefTherapyActive, StatusPartnership,
		StatusGroupCare, StatusWithdrawal, StatusDischarge:
		return true
	}
	return false
}

// transitions lista as arestas permitidas da máquina de estados. A desistência
// (withdrawal) não aparece aqui: ela é alcançável de qualquer etapa não
// terminal via Withdraw, sempre com motivo.
var transitions = map[Status][]Status{
	StatusIntake:               {StatusTriageScheduled},
	StatusTriageScheduled:      {StatusPlantaoReferral, StatusBriefTherapyReferral},
	StatusPlantaoReferral:      {StatusPlantaoActive},
	StatusPlantaoActive:        {StatusPlantaoConfirmed, StatusBriefTherapyReferral, StatusDischarge},
	StatusPlantaoConfirmed:     {StatusBriefTherapyReferral, StatusDischarge},
	StatusBriefTherapyReferral: {StatusAwaitingScheduleInfo},
	StatusAwaitingScheduleInfo: {StatusScheduleRegistered},
	StatusScheduleRegistered:   {StatusBriefTherapyActive},
	StatusBriefTherapyActive:   {StatusPartnership, StatusGroupCare, StatusDischarge},
	StatusPartnership:          {StatusDischarge},
	StatusGroupCare:            {StatusDischarge},
}

// CanAdvance reports whether the edge from → to exists.
func CanAdvance(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
