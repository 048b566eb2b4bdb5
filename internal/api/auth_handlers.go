package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/eupsico/intranet-1-sub000/internal/auth"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

const tokenTTL = 24 * time.Hour

// Login autentica um profissional (ou admin) por username e senha.
// Resposta de falha é sempre genérica, sem distinguir usuário inexistente.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"username e senha são obrigatórios"}`, http.StatusBadRequest)
		return
	}
	p, err := repo.ProfessionalByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			genericLoginError(w)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if p.Status != "ACTIVE" || !auth.CheckPassword(p.PasswordHash, req.Password) {
		genericLoginError(w)
		return
	}
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, p.ID.String(), p.Username, p.Role, tokenTTL)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tok,
		ExpiresAt: time.Now().Add(tokenTTL),
		User: UserInfo{
			ID:       p.ID.String(),
			Username: p.Username,
			FullName: p.FullName,
			Email:    p.Email,
			Role:     p.Role,
		},
	})
}

func genericLoginError(w http.ResponseWriter) {
	http.Error(w, `{"error":"credenciais inválidas"}`, http.StatusUnauthorized)
}

// Me devolve o usuário do token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	username := auth.UsernameFrom(r.Context())
	if username == "" {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	p, err := repo.ProfessionalByUsername(r.Context(), h.DB, username)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserInfo{
		ID:       p.ID.String(),
		Username: p.Username,
		FullName: p.FullName,
		Email:    p.Email,
		Role:     p.Role,
	})
}
