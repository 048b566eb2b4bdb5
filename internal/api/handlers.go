// Package api expõe a esteira de casos, a disponibilidade, o match e a grade
// por HTTP/JSON. Os handlers só orquestram; as regras moram em pipeline,
// booking, matching, followup e grid.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/eupsico/intranet-1-sub000/internal/cache"
	"github.com/eupsico/intranet-1-sub000/internal/config"
	"github.com/eupsico/intranet-1-sub000/internal/fnclient"
	"github.com/eupsico/intranet-1-sub000/internal/pipeline"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

type Handler struct {
	Pool  *pgxpool.Pool
	DB    *gorm.DB
	Cfg   *config.Config
	Cache cache.Store
	Fn    *fnclient.Client

	sendMatchScheduledEmail  func(to, professionalName, patientName, dayName, hour, modality string) error
	sendGridFullEmail        func(to, dayName, hour, modality string) error
	sendPlantaoReferralEmail func(to, professionalName, patientName string) error
}

func (h *Handler) SetSendMatchScheduledEmail(fn func(to, professionalName, patientName, dayName, hour, modality string) error) {
	h.sendMatchScheduledEmail = fn
}

func (h *Handler) SetSendGridFullEmail(fn func(to, dayName, hour, modality string) error) {
	h.sendGridFullEmail = fn
}

func (h *Handler) SetSendPlantaoReferralEmail(fn func(to, professionalName, patientName string) error) {
	h.sendPlantaoReferralEmail = fn
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError traduz os erros das camadas de domínio para HTTP. Erros não
// mapeados viram 500 genérico, com o detalhe só no log.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *pipeline.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": ve.Msg, "field": ve.Field})
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, `{"error":"não encontrado"}`, http.StatusNotFound)
	case errors.Is(err, repo.ErrConflict):
		http.Error(w, `{"error":"vaga já ocupada"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("erro interno")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}
