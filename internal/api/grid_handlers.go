package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/eupsico/intranet-1-sub000/internal/grid"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

const gridCacheKey = "grid:doc"

// GetGrid devolve o documento completo da grade, com cache curto: a grade é o
// painel mais consultado e muda pouco.
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	if cached := h.Cache.Get(r.Context(), gridCacheKey); cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}
	doc, err := repo.ReadGrid(r.Context(), h.Pool)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	body, err := json.Marshal(map[string]interface{}{"grid": doc, "columns": grid.Columns})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.Cache.Set(r.Context(), gridCacheKey, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type AllocateGridRequest struct {
	Username string `json:"username"`
	Modality string `json:"modality"`
	DayName  string `json:"day_name"`
	Hour     string `json:"hour"`
}

// AllocateGridCell é a alocação manual da coordenação: mesma regra da
// confirmação automática (idempotente por username, Full sem mutação).
func (h *Handler) AllocateGridCell(w http.ResponseWriter, r *http.Request) {
	var req AllocateGridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || !ValidDayName(req.DayName) || !ValidHour(req.Hour) || !ValidCellModality(req.Modality) {
		http.Error(w, `{"error":"username, dia, hora e modalidade são obrigatórios"}`, http.StatusBadRequest)
		return
	}
	var column int
	err := repo.InTx(r.Context(), h.Pool, func(tx pgx.Tx) error {
		var err error
		column, err = grid.Allocate(r.Context(), tx, req.Username, req.Modality, req.DayName, req.Hour)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrGridFull) {
			http.Error(w, `{"error":"grade sem coluna livre"}`, http.StatusConflict)
			return
		}
		writeDomainError(w, r, err)
		return
	}
	h.Cache.Delete(r.Context(), gridCacheKey)
	writeJSON(w, http.StatusOK, map[string]interface{}{"column": column})
}
