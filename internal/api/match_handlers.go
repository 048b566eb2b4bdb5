package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/eupsico/intranet-1-sub000/internal/auth"
	"github.com/eupsico/intranet-1-sub000/internal/followup"
	"github.com/eupsico/intranet-1-sub000/internal/matching"
	"github.com/eupsico/intranet-1-sub000/internal/pipeline"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// MatchCandidatesForProfessional lista os casos em espera compatíveis com as
// células livres do profissional.
func (h *Handler) MatchCandidatesForProfessional(w http.ResponseWriter, r *http.Request) {
	id, ok := h.professionalFromPath(w, r)
	if !ok {
		return
	}
	list, err := matching.CandidatesForProfessional(r.Context(), h.DB, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	type row struct {
		CaseID            string                   `json:"case_id"`
		FullName          string                   `json:"full_name"`
		Status            string                   `json:"status"`
		Modality          string                   `json:"modality"`
		ContributionValue *float64                 `json:"contribution_value,omitempty"`
		Slots             []matching.CandidateSlot `json:"slots"`
	}
	out := make([]row, len(list))
	for i, c := range list {
		out[i] = row{
			CaseID:            c.Case.ID.String(),
			FullName:          c.Case.FullName,
			Status:            c.Case.Status,
			Modality:          c.Case.Modality,
			ContributionValue: c.Case.ContributionValue,
			Slots:             c.Slots,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": out})
}

// MatchCandidatesForCase é a direção inversa: profissionais com célula livre
// compatível com as preferências do caso.
func (h *Handler) MatchCandidatesForCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := uuid.Parse(mux.Vars(r)["caseId"])
	if err != nil {
		http.Error(w, `{"error":"id inválido"}`, http.StatusBadRequest)
		return
	}
	c, err := repo.CaseByID(r.Context(), h.Pool, caseID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	list, err := matching.CandidatesForPatient(r.Context(), h.DB, c)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	type row struct {
		ProfessionalID   string                   `json:"professional_id"`
		ProfessionalName string                   `json:"professional_name"`
		Slots            []matching.CandidateSlot `json:"slots"`
	}
	out := make([]row, len(list))
	for i, p := range list {
		out[i] = row{ProfessionalID: p.ProfessionalID.String(), ProfessionalName: p.ProfessionalName, Slots: p.Slots}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": out})
}

type CreateAttemptRequest struct {
	PatientID         uuid.UUID `json:"patient_id"`
	ProfessionalID    uuid.UUID `json:"professional_id"`
	CompatibleSlot    string    `json:"compatible_slot"`
	ContributionValue *float64  `json:"contribution_value,omitempty"`
}

// CreateAttempt abre o acompanhamento de um pareamento escolhido no match.
func (h *Handler) CreateAttempt(w http.ResponseWriter, r *http.Request) {
	var req CreateAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if req.PatientID == uuid.Nil || req.ProfessionalID == uuid.Nil {
		http.Error(w, `{"error":"paciente e profissional são obrigatórios"}`, http.StatusBadRequest)
		return
	}
	c, err := repo.CaseByID(r.Context(), h.Pool, req.PatientID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := repo.ProfessionalByID(r.Context(), h.DB, req.ProfessionalID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	contribution := req.ContributionValue
	if contribution == nil {
		contribution = c.ContributionValue
	}
	a := repo.MatchAttempt{
		PatientID:         c.ID,
		PatientName:       c.FullName,
		ProfessionalID:    p.ID,
		ProfessionalName:  p.FullName,
		CompatibleSlot:    req.CompatibleSlot,
		ContributionValue: contribution,
		Status:            followup.StatusFirstContact,
	}
	if err := repo.CreateAttempt(r.Context(), h.Pool, &a); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": a.ID.String(), "status": a.Status})
}

func attemptResp(a *repo.MatchAttempt) map[string]interface{} {
	out := map[string]interface{}{
		"id":                a.ID.String(),
		"patient_id":        a.PatientID.String(),
		"patient_name":      a.PatientName,
		"professional_id":   a.ProfessionalID.String(),
		"professional_name": a.ProfessionalName,
		"compatible_slot":   a.CompatibleSlot,
		"status":            a.Status,
		"created_at":        a.CreatedAt,
	}
	if a.ContributionValue != nil {
		out["contribution_value"] = *a.ContributionValue
	}
	if a.CancelReason != nil {
		out["cancel_reason"] = *a.CancelReason
	}
	if a.ArchivedAt != nil {
		out["archived_at"] = *a.ArchivedAt
	}
	return out
}

func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	includeArchived := r.URL.Query().Get("archived") == "true"
	limit, offset := ParseLimitOffset(r)
	list, err := repo.ListAttempts(r.Context(), h.DB, status, includeArchived, limit, offset)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]map[string]interface{}, len(list))
	for i := range list {
		out[i] = attemptResp(&list[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attempts": out, "limit": limit, "offset": offset,
	})
}

type SetAttemptStatusRequest struct {
	Status           string `json:"status"`
	CancelReason     string `json:"cancel_reason,omitempty"`
	ConfirmedDate    string `json:"confirmed_date,omitempty"`
	ConfirmedTime    string `json:"confirmed_time,omitempty"`
	DayName          string `json:"day_name,omitempty"`
	Modality         string `json:"modality,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
	AssignmentChoice string `json:"assignment_choice,omitempty"`
}

// SetAttemptStatus aplica a mudança de status do acompanhamento. Nos estados
// terminais os efeitos compostos rodam em uma transação; o aviso de grade
// cheia volta no corpo sem falhar a requisição.
func (h *Handler) SetAttemptStatus(w http.ResponseWriter, r *http.Request) {
	attemptID, err := uuid.Parse(mux.Vars(r)["attemptId"])
	if err != nil {
		http.Error(w, `{"error":"id inválido"}`, http.StatusBadRequest)
		return
	}
	var req SetAttemptStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	in := followup.Input{
		Status:        req.Status,
		UpdatedBy:     auth.UsernameFrom(r.Context()),
		CancelReason:  req.CancelReason,
		ConfirmedTime: req.ConfirmedTime,
		DayName:       req.DayName,
		Modality:      req.Modality,
		Choice:        pipeline.AssignmentChoice(req.AssignmentChoice),
	}
	if req.ConfirmedDate != "" {
		d, err := time.Parse("2006-01-02", req.ConfirmedDate)
		if err != nil {
			http.Error(w, `{"error":"confirmed_date inválida"}`, http.StatusBadRequest)
			return
		}
		in.ConfirmedDate = &d
	}
	if req.Deadline != "" {
		d, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			http.Error(w, `{"error":"deadline inválido"}`, http.StatusBadRequest)
			return
		}
		in.Deadline = &d
	}
	res, err := followup.SetStatus(r.Context(), h.Pool, attemptID, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.Status == followup.StatusScheduled {
		h.Cache.DeletePrefix(r.Context(), "grid:")
		h.Cache.DeletePrefix(r.Context(), "availability:")
		h.notifyScheduled(r, res.Attempt, req, res.Warning)
	}
	out := attemptResp(res.Attempt)
	if res.Warning != "" {
		out["warning"] = res.Warning
	}
	writeJSON(w, http.StatusOK, out)
}

// notifyScheduled dispara os e-mails pós-confirmação. Falha de e-mail nunca
// desfaz a confirmação já commitada; só loga.
func (h *Handler) notifyScheduled(r *http.Request, a *repo.MatchAttempt, req SetAttemptStatusRequest, warning string) {
	if h.sendMatchScheduledEmail != nil {
		_, emailAddr, err := repo.ProfessionalEmailByID(r.Context(), h.Pool, a.ProfessionalID)
		if err != nil {
			log.Warn().Err(err).Str("professional", a.ProfessionalID.String()).Msg("email de confirmação: profissional sem e-mail")
		} else if err := h.sendMatchScheduledEmail(emailAddr, a.ProfessionalName, a.PatientName, req.DayName, req.ConfirmedTime, req.Modality); err != nil {
			log.Error().Err(err).Msg("email de confirmação falhou")
		}
	}
	if warning != "" && h.sendGridFullEmail != nil && h.Cfg.CoordinationEmail != "" {
		if err := h.sendGridFullEmail(h.Cfg.CoordinationEmail, req.DayName, req.ConfirmedTime, req.Modality); err != nil {
			log.Error().Err(err).Msg("email de grade cheia falhou")
		}
	}
}
