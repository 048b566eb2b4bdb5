package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// Advance moves a case to the target stage. The whole read-check-write runs in
// one serializable transaction: stage contract, status overwrite, audit stamp
// and side effects (assignment append/close, plantão data) commit together ou
// nada é gravado.
func Advance(ctx context.Context, pool *pgxpool.Pool, caseID uuid.UUID, in AdvanceInput) error {
	if !in.Target.Valid() || in.Target == StatusWithdrawal {
		return &ValidationError{Field: "targetStatus", Msg: "etapa inválida"}
	}
	return repo.InTx(ctx, pool, func(tx pgx.Tx) error {
		cur, err := repo.CaseByIDForUpdate(ctx, tx, caseID)
		if err != nil {
			return err
		}
		from := Status(cur.Status)
		if from.IsTerminal() {
			return &ValidationError{Field: "status", Msg: "caso já encerrado"}
		}
		if !CanAdvance(from, in.Target) {
			return &ValidationError{Field: "targetStatus", Msg: fmt.Sprintf("transição %s → %s não permitida", from, in.Target)}
		}
		if err := validateStage(cur, in); err != nil {
			return err
		}
		if err := applySideEffects(ctx, tx, cur, in); err != nil {
			return err
		}
		if err := repo.SetCaseStatus(ctx, tx, caseID, string(in.Target), in.UpdatedBy); err != nil {
			return err
		}
		return repo.CreateAuditEvent(ctx, tx, repo.AuditEvent{
			Action:       "CASE_ADVANCED",
			ActorType:    "USER",
			ResourceType: strPtr("PATIENT_CASE"),
			ResourceID:   &caseID,
			CaseID:       &caseID,
			Metadata:     map[string]string{"from": string(from), "to": string(in.Target), "by": in.UpdatedBy},
		})
	})
}

func applySideEffects(ctx context.Context, tx pgx.Tx, cur *repo.PatientCase, in AdvanceInput) error {
	switch in.Target {
	case StatusTriageScheduled:
		return repo.SetCaseTriage(ctx, tx, cur.ID, *in.TriageDate, in.TriageType)

	case StatusPlantaoReferral:
		p := *in.Plantao
		if p.ReferredAt == "" {
			p.ReferredAt = time.Now().Format("2006-01-02")
		}
		return repo.SetCasePlantao(ctx, tx, cur.ID, &p)

	case StatusPlantaoActive:
		p := cur.Plantao
		if in.Plantao != nil {
			p = in.Plantao
		}
		p.StartDate = in.StartDate
		if err := repo.SetCasePlantao(ctx, tx, cur.ID, p); err != nil {
			return err
		}
		// O plantão em si vira um atendimento ativo no caso.
		return AppendAssignment(ctx, tx, cur.ID, &AssignmentInput{
			ProfessionalID:   p.ProfessionalID,
			ProfessionalName: p.ProfessionalName,
		}, in.Choice)

	case StatusPlantaoConfirmed:
		return repo.SetCaseConfirmed(ctx, tx, cur.ID, *in.ConfirmedDate, in.ConfirmedTime)

	case StatusBriefTherapyReferral:
		return nil

	case StatusAwaitingScheduleInfo:
		return repo.SetCaseContribution(ctx, tx, cur.ID, *in.ContributionValue)

	case StatusScheduleRegistered:
		return AppendAssignment(ctx, tx, cur.ID, in.Assignment, in.Choice)

	case StatusBriefTherapyActive:
		n, err := repo.CountActiveAssignments(ctx, tx, cur.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return &ValidationError{Field: "assignment", Msg: "caso sem atendimento ativo"}
		}
		return nil

	case StatusPartnership, StatusGroupCare:
		return nil

	case StatusDischarge:
		_, err := repo.CloseActiveAssignments(ctx, tx, cur.ID)
		return err
	}
	return nil
}

// AppendAssignment grava um novo atendimento. Se já existe um ativo, exige a
// escolha explícita entre substituir e adicionar um segundo; nunca decide sozinho.
func AppendAssignment(ctx context.Context, tx pgx.Tx, caseID uuid.UUID, a *AssignmentInput, choice AssignmentChoice) error {
	n, err := repo.CountActiveAssignments(ctx, tx, caseID)
	if err != nil {
		return err
	}
	if n > 0 {
		switch choice {
		case ChoiceReplace:
			if _, err := repo.CloseActiveAssignments(ctx, tx, caseID); err != nil {
				return err
			}
		case ChoiceAddSecondary:
			// mantém o atual e adiciona o segundo
		default:
			return &ValidationError{Field: "assignmentChoice", Msg: "já existe atendimento ativo; informe replace ou add_secondary"}
		}
	}
	var day, slot, mod *string
	if a.DayName != "" {
		day = &a.DayName
	}
	if a.SlotTime != "" {
		slot = &a.SlotTime
	}
	if a.Modality != "" {
		mod = &a.Modality
	}
	return repo.InsertAssignment(ctx, tx, &repo.Assignment{
		CaseID:           caseID,
		ProfessionalID:   a.ProfessionalID,
		ProfessionalName: a.ProfessionalName,
		DayName:          day,
		SlotTime:         slot,
		Modality:         mod,
		Deadline:         a.Deadline,
		Status:           repo.AssignmentActive,
	})
}

// Withdraw routes the case to the withdrawal terminal stage, com motivo
// obrigatório, a partir de qualquer etapa não terminal.
func Withdraw(ctx context.Context, pool *pgxpool.Pool, caseID uuid.UUID, reason, updatedBy string) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Field: "reason", Msg: "motivo da desistência é obrigatório"}
	}
	return repo.InTx(ctx, pool, func(tx pgx.Tx) error {
		cur, err := repo.CaseByIDForUpdate(ctx, tx, caseID)
		if err != nil {
			return err
		}
		if Status(cur.Status).IsTerminal() {
			return &ValidationError{Field: "status", Msg: "caso já encerrado"}
		}
		if _, err := repo.CloseActiveAssignments(ctx, tx, caseID); err != nil {
			return err
		}
		if err := repo.SetCaseWithdrawal(ctx, tx, caseID, reason, updatedBy, string(StatusWithdrawal)); err != nil {
			return err
		}
		return repo.CreateAuditEvent(ctx, tx, repo.AuditEvent{
			Action:       "CASE_WITHDRAWN",
			ActorType:    "USER",
			ResourceType: strPtr("PATIENT_CASE"),
			ResourceID:   &caseID,
			CaseID:       &caseID,
			Metadata:     map[string]string{"from": cur.Status, "by": updatedBy},
		})
	})
}

func strPtr(s string) *string { return &s }
