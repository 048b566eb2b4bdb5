package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/eupsico/intranet-1-sub000/internal/auth"
	"github.com/eupsico/intranet-1-sub000/internal/crypto"
	"github.com/eupsico/intranet-1-sub000/internal/pipeline"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

type CreateCaseRequest struct {
	FullName                  string   `json:"full_name"`
	Contact                   string   `json:"contact"`
	Modality                  string   `json:"modality"`
	DisponibilidadeGeral      []string `json:"disponibilidade_geral"`
	DisponibilidadeEspecifica []string `json:"disponibilidade_especifica"`
}

// CreateCase abre um caso novo na etapa de entrada. O contato é cifrado antes
// de persistir; nunca fica em claro no banco.
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		http.Error(w, `{"error":"nome é obrigatório"}`, http.StatusBadRequest)
		return
	}
	if req.Modality == "" {
		req.Modality = "any"
	}
	if !ValidCaseModality(req.Modality) {
		http.Error(w, `{"error":"modalidade inválida"}`, http.StatusBadRequest)
		return
	}
	c := repo.PatientCase{
		FullName:                  req.FullName,
		Status:                    string(pipeline.StatusIntake),
		Modality:                  req.Modality,
		DisponibilidadeGeral:      req.DisponibilidadeGeral,
		DisponibilidadeEspecifica: req.DisponibilidadeEspecifica,
		LastUpdatedBy:             auth.UsernameFrom(r.Context()),
	}
	duplicate := false
	if contact := crypto.NormalizePhone(req.Contact); contact != "" {
		keys, err := crypto.ParseKeysEnv(h.Cfg.DataEncryptionKeys)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		enc, nonce, err := crypto.Encrypt([]byte(contact), h.Cfg.CurrentDataKeyVer, keys)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		ver := h.Cfg.CurrentDataKeyVer
		hash := crypto.ContactHash(contact)
		c.ContactEnc, c.ContactNonce, c.ContactKeyVer, c.ContactHash = enc, nonce, &ver, &hash
		// Mesmo contato com caso aberto: registra mesmo assim, mas avisa.
		n, err := repo.CountCasesByContactHash(r.Context(), h.Pool, hash, []string{
			string(pipeline.StatusWithdrawal), string(pipeline.StatusDischarge),
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		duplicate = n > 0
	}
	if err := repo.CreateCase(r.Context(), h.Pool, &c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := map[string]interface{}{"id": c.ID.String(), "status": c.Status}
	if duplicate {
		out["duplicate_open_case"] = true
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !pipeline.Status(status).Valid() {
		http.Error(w, `{"error":"status inválido"}`, http.StatusBadRequest)
		return
	}
	limit, offset := ParseLimitOffset(r)
	list, total, err := repo.ListCasesByStatus(r.Context(), h.DB, status, limit, offset)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	type row struct {
		ID            string    `json:"id"`
		FullName      string    `json:"full_name"`
		Status        string    `json:"status"`
		Modality      string    `json:"modality"`
		LastUpdate    time.Time `json:"last_update"`
		LastUpdatedBy string    `json:"last_updated_by"`
	}
	out := make([]row, len(list))
	for i, c := range list {
		out[i] = row{
			ID: c.ID.String(), FullName: c.FullName, Status: c.Status,
			Modality: c.Modality, LastUpdate: c.LastUpdate, LastUpdatedBy: c.LastUpdatedBy,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cases": out, "limit": limit, "offset": offset, "total": total,
	})
}

type assignmentResp struct {
	ID               string     `json:"id"`
	ProfessionalID   *uuid.UUID `json:"professional_id,omitempty"`
	ProfessionalName string     `json:"professional_name"`
	DayName          *string    `json:"day_name,omitempty"`
	SlotTime         *string    `json:"slot_time,omitempty"`
	Modality         *string    `json:"modality,omitempty"`
	Deadline         *string    `json:"deadline,omitempty"`
	Status           string     `json:"status"`
	Overdue          bool       `json:"overdue"`
}

func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
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
	assignments, err := repo.AssignmentsByCase(r.Context(), h.Pool, caseID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	now := time.Now()
	asgOut := make([]assignmentResp, len(assignments))
	for i, a := range assignments {
		var deadline *string
		if a.Deadline != nil {
			d := a.Deadline.Format("2006-01-02")
			deadline = &d
		}
		asgOut[i] = assignmentResp{
			ID:               a.ID.String(),
			ProfessionalID:   a.ProfessionalID,
			ProfessionalName: a.ProfessionalName,
			DayName:          a.DayName,
			SlotTime:         a.SlotTime,
			Modality:         a.Modality,
			Deadline:         deadline,
			Status:           a.Status,
			Overdue:          pipeline.AssignmentOverdue(a, now),
		}
	}
	out := map[string]interface{}{
		"id":                         c.ID.String(),
		"full_name":                  c.FullName,
		"status":                     c.Status,
		"modality":                   c.Modality,
		"disponibilidade_geral":      c.DisponibilidadeGeral,
		"disponibilidade_especifica": c.DisponibilidadeEspecifica,
		"last_update":                c.LastUpdate,
		"last_updated_by":            c.LastUpdatedBy,
		"assignments":                asgOut,
	}
	if c.Plantao != nil {
		out["plantao"] = c.Plantao
	}
	if c.TriageDate != nil {
		out["triage_date"] = c.TriageDate.Format("2006-01-02")
		out["triage_type"] = c.TriageType
	}
	if c.ContributionValue != nil {
		out["contribution_value"] = *c.ContributionValue
	}
	if c.ConfirmedDate != nil {
		out["confirmed_date"] = c.ConfirmedDate.Format("2006-01-02")
		out["confirmed_time"] = c.ConfirmedTime
	}
	if c.WithdrawalReason != nil {
		out["withdrawal_reason"] = *c.WithdrawalReason
	}
	// Contato em claro só para quem gerencia a esteira.
	if auth.RoleFrom(r.Context()) != auth.RoleProfessional {
		if contact, ok := h.decryptContact(c); ok {
			out["contact"] = contact
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) decryptContact(c *repo.PatientCase) (string, bool) {
	if len(c.ContactEnc) == 0 || len(c.ContactNonce) == 0 || c.ContactKeyVer == nil {
		return "", false
	}
	keys, err := crypto.ParseKeysEnv(h.Cfg.DataEncryptionKeys)
	if err != nil {
		return "", false
	}
	plain, err := crypto.Decrypt(c.ContactEnc, c.ContactNonce, *c.ContactKeyVer, keys)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

type PreferencesRequest struct {
	Modality                  string   `json:"modality"`
	DisponibilidadeGeral      []string `json:"disponibilidade_geral"`
	DisponibilidadeEspecifica []string `json:"disponibilidade_especifica"`
}

// UpdateCasePreferences grava a preferência de modalidade e os tokens de
// disponibilidade do paciente (faixas gerais e horários específicos).
func (h *Handler) UpdateCasePreferences(w http.ResponseWriter, r *http.Request) {
	caseID, err := uuid.Parse(mux.Vars(r)["caseId"])
	if err != nil {
		http.Error(w, `{"error":"id inválido"}`, http.StatusBadRequest)
		return
	}
	var req PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if !ValidCaseModality(req.Modality) {
		http.Error(w, `{"error":"modalidade inválida"}`, http.StatusBadRequest)
		return
	}
	if _, err := repo.CaseByID(r.Context(), h.Pool, caseID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := repo.SetCasePreferences(r.Context(), h.Pool, caseID, req.Modality,
		req.DisponibilidadeGeral, req.DisponibilidadeEspecifica); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

type AdvanceCaseRequest struct {
	TargetStatus      string            `json:"target_status"`
	TriageDate        string            `json:"triage_date,omitempty"`
	TriageType        string            `json:"triage_type,omitempty"`
	Plantao           *repo.PlantaoInfo `json:"plantao,omitempty"`
	StartDate         string            `json:"start_date,omitempty"`
	ConfirmedDate     string            `json:"confirmed_date,omitempty"`
	ConfirmedTime     string            `json:"confirmed_time,omitempty"`
	ContributionValue *float64          `json:"contribution_value,omitempty"`
	Assignment        *AssignmentReq    `json:"assignment,omitempty"`
	AssignmentChoice  string            `json:"assignment_choice,omitempty"`
}

type AssignmentReq struct {
	ProfessionalID   *uuid.UUID `json:"professional_id,omitempty"`
	ProfessionalName string     `json:"professional_name"`
	DayName          string     `json:"day_name,omitempty"`
	SlotTime         string     `json:"slot_time,omitempty"`
	Modality         string     `json:"modality,omitempty"`
	Deadline         string     `json:"deadline,omitempty"`
}

// AdvanceCase move o caso para a etapa alvo, com o contrato de campos da etapa.
func (h *Handler) AdvanceCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := uuid.Parse(mux.Vars(r)["caseId"])
	if err != nil {
		http.Error(w, `{"error":"id inválido"}`, http.StatusBadRequest)
		return
	}
	var req AdvanceCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	in := pipeline.AdvanceInput{
		Target:            pipeline.Status(req.TargetStatus),
		UpdatedBy:         auth.UsernameFrom(r.Context()),
		TriageType:        req.TriageType,
		Plantao:           req.Plantao,
		StartDate:         req.StartDate,
		ConfirmedTime:     req.ConfirmedTime,
		ContributionValue: req.ContributionValue,
		Choice:            pipeline.AssignmentChoice(req.AssignmentChoice),
	}
	if req.TriageDate != "" {
		d, err := time.Parse("2006-01-02", req.TriageDate)
		if err != nil {
			http.Error(w, `{"error":"triage_date inválida"}`, http.StatusBadRequest)
			return
		}
		in.TriageDate = &d
	}
	if req.ConfirmedDate != "" {
		d, err := time.Parse("2006-01-02", req.ConfirmedDate)
		if err != nil {
			http.Error(w, `{"error":"confirmed_date inválida"}`, http.StatusBadRequest)
			return
		}
		in.ConfirmedDate = &d
	}
	if req.Assignment != nil {
		a := pipeline.AssignmentInput{
			ProfessionalID:   req.Assignment.ProfessionalID,
			ProfessionalName: req.Assignment.ProfessionalName,
			DayName:          req.Assignment.DayName,
			SlotTime:         req.Assignment.SlotTime,
			Modality:         req.Assignment.Modality,
		}
		if req.Assignment.Deadline != "" {
			d, err := time.Parse("2006-01-02", req.Assignment.Deadline)
			if err != nil {
				http.Error(w, `{"error":"deadline inválido"}`, http.StatusBadRequest)
				return
			}
			a.Deadline = &d
		}
		in.Assignment = &a
	}
	if err := pipeline.Advance(r.Context(), h.Pool, caseID, in); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if in.Target == pipeline.StatusPlantaoReferral {
		h.notifyPlantaoReferral(r, caseID, req.Plantao)
	}
	if in.Target == pipeline.StatusScheduleRegistered && h.Fn != nil && h.Fn.Enabled() && req.Assignment != nil {
		// O sistema legado ainda guarda o tipo de agenda; falha aqui não
		// desfaz o avanço, só loga.
		if _, err := h.Fn.AssignScheduleType(r.Context(), caseID, req.Assignment.Modality); err != nil {
			log.Warn().Err(err).Str("case", caseID.String()).Msg("assignScheduleType falhou")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": caseID.String(), "status": req.TargetStatus})
}

// notifyPlantaoReferral avisa o profissional de plantão por e-mail. Falha de
// e-mail não desfaz o avanço já commitado; só loga.
func (h *Handler) notifyPlantaoReferral(r *http.Request, caseID uuid.UUID, p *repo.PlantaoInfo) {
	if h.sendPlantaoReferralEmail == nil || p == nil || p.ProfessionalID == nil {
		return
	}
	c, err := repo.CaseByID(r.Context(), h.Pool, caseID)
	if err != nil {
		log.Warn().Err(err).Str("case", caseID.String()).Msg("email de plantão: caso não lido")
		return
	}
	_, emailAddr, err := repo.ProfessionalEmailByID(r.Context(), h.Pool, *p.ProfessionalID)
	if err != nil {
		log.Warn().Err(err).Str("professional", p.ProfessionalID.String()).Msg("email de plantão: profissional sem e-mail")
		return
	}
	if err := h.sendPlantaoReferralEmail(emailAddr, p.ProfessionalName, c.FullName); err != nil {
		log.Error().Err(err).Msg("email de plantão falhou")
	}
}

type WithdrawRequest struct {
	Reason string `json:"reason"`
}

// WithdrawCase encerra o caso por desistência, de qualquer etapa não terminal.
func (h *Handler) WithdrawCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := uuid.Parse(mux.Vars(r)["caseId"])
	if err != nil {
		http.Error(w, `{"error":"id inválido"}`, http.StatusBadRequest)
		return
	}
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if err := pipeline.Withdraw(r.Context(), h.Pool, caseID, req.Reason, auth.UsernameFrom(r.Context())); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": caseID.String(), "status": string(pipeline.StatusWithdrawal)})
}
