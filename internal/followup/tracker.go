// Package followup acompanha as tentativas de encaixe depois do match: os
// contatos com o paciente, a confirmação e o desfecho (agendado ou cancelado).
package followup

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eupsico/intranet-1-sub000/internal/grid"
	"github.com/eupsico/intranet-1-sub000/internal/pipeline"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// Estados de uma tentativa (contrato de dados; os textos aparecem na interface).
const (
	StatusFirstContact         = "First Contact"
	StatusSecondContact        = "Second Contact"
	StatusThirdContact         = "Third Contact"
	StatusAwaitingConfirmation = "Awaiting Confirmation"
	StatusAwaitingPayment      = "Awaiting Payment"
	StatusScheduled            = "Scheduled"
	StatusCancelled            = "Cancelled-No-Success"
)

var validStatuses = map[string]bool{
	StatusFirstContact:         true,
	StatusSecondContact:        true,
	StatusThirdContact:         true,
	StatusAwaitingConfirmation: true,
	StatusAwaitingPayment:      true,
	StatusScheduled:            true,
	StatusCancelled:            true,
}

// IsTerminal reports whether the status archives the attempt.
func IsTerminal(status string) bool {
	return status == StatusScheduled || status == StatusCancelled
}

// Input é o payload de uma mudança de status. Os campos de confirmação só são
// lidos quando o status é Scheduled; o motivo, só no cancelamento.
type Input struct {
	Status    string
	UpdatedBy string

	CancelReason string

	ConfirmedDate *time.Time
	ConfirmedTime string
	DayName       string
	Modality      string
	Deadline      *time.Time
	Choice        pipeline.AssignmentChoice
}

// Result devolve a tentativa após a escrita. Warning fica preenchido quando a
// confirmação commitou mas a grade não tinha coluna livre (alocação manual).
type Result struct {
	Attempt *repo.MatchAttempt
	Warning string
}

// SetStatus aplica a mudança de status. Estados intermediários são um update
// simples; os terminais rodam os efeitos compostos em uma única transação
// serializável.
func SetStatus(ctx context.Context, pool *pgxpool.Pool, attemptID uuid.UUID, in Input) (*Result, error) {
	if !validStatuses[in.Status] {
		return nil, &pipeline.ValidationError{Field: "status", Msg: "status de tentativa desconhecido"}
	}
	switch in.Status {
	case StatusScheduled:
		return confirm(ctx, pool, attemptID, in)
	case StatusCancelled:
		return cancel(ctx, pool, attemptID, in)
	}
	if err := repo.SetAttemptStatus(ctx, pool, attemptID, in.Status); err != nil {
		return nil, err
	}
	a, err := repo.AttemptByID(ctx, pool, attemptID)
	if err != nil {
		return nil, err
	}
	return &Result{Attempt: a}, nil
}

// cancel arquiva a tentativa sem sucesso e registra a desistência do caso.
// Motivo obrigatório; caso já encerrado só arquiva a tentativa.
func cancel(ctx context.Context, pool *pgxpool.Pool, attemptID uuid.UUID, in Input) (*Result, error) {
	if strings.TrimSpace(in.CancelReason) == "" {
		return nil, &pipeline.ValidationError{Field: "cancelReason", Msg: "motivo do cancelamento é obrigatório"}
	}
	var out Result
	err := repo.InTx(ctx, pool, func(tx pgx.Tx) error {
		a, err := repo.AttemptByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if a.ArchivedAt != nil {
			return &pipeline.ValidationError{Field: "status", Msg: "tentativa já arquivada"}
		}
		cur, err := repo.CaseByIDForUpdate(ctx, tx, a.PatientID)
		if err != nil {
			return err
		}
		if !pipeline.Status(cur.Status).IsTerminal() {
			if _, err := repo.CloseActiveAssignments(ctx, tx, cur.ID); err != nil {
				return err
			}
			if err := repo.SetCaseWithdrawal(ctx, tx, cur.ID, in.CancelReason, in.UpdatedBy, string(pipeline.StatusWithdrawal)); err != nil {
				return err
			}
		}
		if err := repo.ArchiveAttempt(ctx, tx, attemptID, StatusCancelled, &in.CancelReason); err != nil {
			return err
		}
		if err := repo.CreateAuditEvent(ctx, tx, repo.AuditEvent{
			Action:       "ATTEMPT_CANCELLED",
			ActorType:    "USER",
			ResourceType: strPtr("MATCH_ATTEMPT"),
			ResourceID:   &attemptID,
			CaseID:       &a.PatientID,
			Metadata:     map[string]string{"reason": in.CancelReason, "by": in.UpdatedBy},
		}); err != nil {
			return err
		}
		out.Attempt, err = repo.AttemptByID(ctx, tx, attemptID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// confirm é a sequência de confirmação: sessão confirmada no caso, atendimento
// ativo, célula de disponibilidade ocupada, coluna na grade e arquivamento da
// tentativa, tudo na mesma transação. Grade cheia não derruba a transação:
// só a escrita na grade é pulada e o chamador recebe o aviso.
func confirm(ctx context.Context, pool *pgxpool.Pool, attemptID uuid.UUID, in Input) (*Result, error) {
	if in.ConfirmedDate == nil {
		return nil, &pipeline.ValidationError{Field: "confirmedDate", Msg: "data confirmada é obrigatória"}
	}
	if in.ConfirmedTime == "" || in.DayName == "" {
		return nil, &pipeline.ValidationError{Field: "confirmedTime", Msg: "dia e horário confirmados são obrigatórios"}
	}
	if in.Modality != "online" && in.Modality != "in-person" {
		return nil, &pipeline.ValidationError{Field: "modality", Msg: "modalidade deve ser online ou in-person"}
	}
	var out Result
	err := repo.InTx(ctx, pool, func(tx pgx.Tx) error {
		out.Warning = ""
		a, err := repo.AttemptByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if a.ArchivedAt != nil {
			return &pipeline.ValidationError{Field: "status", Msg: "tentativa já arquivada"}
		}
		cur, err := repo.CaseByIDForUpdate(ctx, tx, a.PatientID)
		if err != nil {
			return err
		}
		if pipeline.Status(cur.Status).IsTerminal() {
			return &pipeline.ValidationError{Field: "status", Msg: "caso já encerrado"}
		}
		if err := repo.SetCaseConfirmed(ctx, tx, cur.ID, *in.ConfirmedDate, in.ConfirmedTime); err != nil {
			return err
		}
		if err := pipeline.AppendAssignment(ctx, tx, cur.ID, &pipeline.AssignmentInput{
			ProfessionalID:   &a.ProfessionalID,
			ProfessionalName: a.ProfessionalName,
			DayName:          in.DayName,
			SlotTime:         in.ConfirmedTime,
			Modality:         in.Modality,
			Deadline:         in.Deadline,
		}, in.Choice); err != nil {
			return err
		}
		if err := repo.SetCaseStatus(ctx, tx, cur.ID, string(pipeline.StatusBriefTherapyActive), in.UpdatedBy); err != nil {
			return err
		}
		if err := repo.MarkCellOccupied(ctx, tx, a.ProfessionalID, in.DayName, in.ConfirmedTime, in.Modality); err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				return err
			}
			// horário combinado fora da disponibilidade cadastrada; segue sem o flip
			out.Warning = appendWarning(out.Warning, "célula de disponibilidade não encontrada para o horário confirmado")
		}
		username, err := repo.ProfessionalUsernameByID(ctx, tx, a.ProfessionalID)
		if err != nil {
			return err
		}
		if _, err := grid.Allocate(ctx, tx, username, in.Modality, in.DayName, in.ConfirmedTime); err != nil {
			if !errors.Is(err, repo.ErrGridFull) {
				return err
			}
			out.Warning = appendWarning(out.Warning, "grade de horários cheia para a célula; aloque a coluna manualmente")
		}
		if err := repo.ArchiveAttempt(ctx, tx, attemptID, StatusScheduled, nil); err != nil {
			return err
		}
		if err := repo.CreateAuditEvent(ctx, tx, repo.AuditEvent{
			Action:       "MATCH_SCHEDULED",
			ActorType:    "USER",
			ResourceType: strPtr("MATCH_ATTEMPT"),
			ResourceID:   &attemptID,
			CaseID:       &a.PatientID,
			Metadata: map[string]string{
				"day": in.DayName, "time": in.ConfirmedTime, "modality": in.Modality, "by": in.UpdatedBy,
			},
		}); err != nil {
			return err
		}
		out.Attempt, err = repo.AttemptByID(ctx, tx, attemptID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func appendWarning(cur, msg string) string {
	if cur == "" {
		return msg
	}
	return cur + "; " + msg
}

func strPtr(s string) *string { return &s }
