package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/eupsico/intranet-1-sub000/internal/auth"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

type availabilityCellReq struct {
	DayName  string `json:"day_name"`
	Hour     string `json:"hour"`
	Modality string `json:"modality"`
}

type availabilityCellResp struct {
	DayName  string `json:"day_name"`
	Hour     string `json:"hour"`
	Modality string `json:"modality"`
	Status   string `json:"status"`
}

// professionalFromPath resolve o {professionalId} da rota. Profissional comum
// só acessa a própria agenda; assistente e admin acessam qualquer uma.
func (h *Handler) professionalFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["professionalId"])
	if err != nil {
		http.Error(w, `{"error":"id inválido"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	if auth.RoleFrom(r.Context()) == auth.RoleProfessional && auth.UserIDFrom(r.Context()) != id.String() {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := h.professionalFromPath(w, r)
	if !ok {
		return
	}
	cacheKey := "availability:" + id.String()
	if cached := h.Cache.Get(r.Context(), cacheKey); cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}
	cells, err := repo.ListAvailability(r.Context(), h.DB, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]availabilityCellResp, len(cells))
	for i, c := range cells {
		out[i] = availabilityCellResp{DayName: c.DayName, Hour: c.Hour, Modality: c.Modality, Status: c.CellStatus}
	}
	body, err := json.Marshal(map[string]interface{}{"cells": out})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.Cache.Set(r.Context(), cacheKey, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// PutAvailability substitui a agenda semanal inteira do profissional pela
// lista enviada (fluxo de submissão do formulário de disponibilidade).
func (h *Handler) PutAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := h.professionalFromPath(w, r)
	if !ok {
		return
	}
	var req struct {
		Cells []availabilityCellReq `json:"cells"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	cells := make([]repo.AvailabilityCell, len(req.Cells))
	for i, c := range req.Cells {
		if !ValidDayName(c.DayName) || !ValidHour(c.Hour) || !ValidCellModality(c.Modality) {
			http.Error(w, `{"error":"célula inválida: dia, hora e modalidade são obrigatórios"}`, http.StatusBadRequest)
			return
		}
		cells[i] = repo.AvailabilityCell{
			ProfessionalID: id,
			DayName:        c.DayName,
			Hour:           c.Hour,
			Modality:       c.Modality,
			CellStatus:     repo.CellAvailable,
		}
	}
	if err := repo.ReplaceAvailability(r.Context(), h.DB, id, cells); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.Cache.DeletePrefix(r.Context(), "availability:")
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "ok", "cells": len(cells)})
}

// AggregateAvailability repassa o agregado de disponibilidade calculado pelas
// functions legadas (painel da coordenação).
func (h *Handler) AggregateAvailability(w http.ResponseWriter, r *http.Request) {
	if h.Fn == nil || !h.Fn.Enabled() {
		http.Error(w, `{"error":"agregação não configurada"}`, http.StatusServiceUnavailable)
		return
	}
	sum, err := h.Fn.AggregateAvailability(r.Context(), nil)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) ListProfessionals(w http.ResponseWriter, r *http.Request) {
	list, err := repo.ListProfessionals(r.Context(), h.DB)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]UserInfo, len(list))
	for i, p := range list {
		out[i] = UserInfo{ID: p.ID.String(), Username: p.Username, FullName: p.FullName, Email: p.Email, Role: p.Role}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"professionals": out})
}
