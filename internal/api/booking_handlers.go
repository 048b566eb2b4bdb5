package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/eupsico/intranet-1-sub000/internal/auth"
	"github.com/eupsico/intranet-1-sub000/internal/booking"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := repo.ListEventGroups(r.Context(), h.Pool)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	type row struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Slots     int       `json:"slots"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	out := make([]row, len(groups))
	for i, g := range groups {
		out[i] = row{ID: g.ID.String(), Name: g.Name, Slots: len(g.Slots), UpdatedAt: g.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": out})
}

type slotReq struct {
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	ManagerName     string `json:"managerName,omitempty"`
	CapacityLimited bool   `json:"capacityLimited"`
}

func (s *slotReq) toSlot() (repo.Slot, bool) {
	if _, err := time.Parse("2006-01-02", s.Date); err != nil {
		return repo.Slot{}, false
	}
	if !ValidHour(s.StartTime) || !ValidHour(s.EndTime) {
		return repo.Slot{}, false
	}
	return repo.Slot{
		Date:            s.Date,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		ManagerName:     strings.TrimSpace(s.ManagerName),
		CapacityLimited: s.CapacityLimited,
		Seats:           []repo.Reservation{},
	}, true
}

// CreateGroup cria um grupo de eventos com a lista inicial de slots.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string    `json:"name"`
		Slots []slotReq `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, `{"error":"nome é obrigatório"}`, http.StatusBadRequest)
		return
	}
	slots := make([]repo.Slot, len(req.Slots))
	for i, s := range req.Slots {
		slot, ok := s.toSlot()
		if !ok {
			http.Error(w, `{"error":"slot inválido: data e horários são obrigatórios"}`, http.StatusBadRequest)
			return
		}
		slots[i] = slot
	}
	g := repo.EventGroup{Name: req.Name, Slots: slots}
	if err := repo.CreateEventGroup(r.Context(), h.Pool, &g); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": g.ID.String()})
}

// GetGroupSlots lista os slots do grupo já com o filtro de antecedência
// aplicado: slots a menos de 12h só aparecem para quem já está neles.
func (h *Handler) GetGroupSlots(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(mux.Vars(r)["groupId"])
	if err != nil {
		http.Error(w, `{"error":"id inválido"}`, http.StatusBadRequest)
		return
	}
	g, err := repo.EventGroupByID(r.Context(), h.Pool, groupID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	occupantID := r.URL.Query().Get("occupant_id")
	if occupantID == "" {
		occupantID = auth.UserIDFrom(r.Context())
	}
	type row struct {
		Index int       `json:"index"`
		Slot  repo.Slot `json:"slot"`
	}
	visible := booking.VisibleSlots(g.Slots, occupantID, time.Now(), time.Local)
	out := make([]row, len(visible))
	for i, v := range visible {
		out[i] = row{Index: v.Index, Slot: v.Slot}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"group_id": g.ID.String(),
		"name":     g.Name,
		"slots":    out,
	})
}

type BookSlotRequest struct {
	SlotIndex       int    `json:"slot_index"`
	OccupantID      string `json:"occupant_id"`
	OccupantName    string `json:"occupant_name"`
	OccupantContact string `json:"occupant_contact,omitempty"`
}

// BookSlot move a reserva do ocupante para o slot pedido. A checagem de
// capacidade e a remoção da reserva anterior acontecem na mesma transação.
func (h *Handler) BookSlot(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(mux.Vars(r)["groupId"])
	if err != nil {
		http.Error(w, `{"error":"id inválido"}`, http.StatusBadRequest)
		return
	}
	var req BookSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.OccupantID = strings.TrimSpace(req.OccupantID)
	req.OccupantName = strings.TrimSpace(req.OccupantName)
	if req.OccupantID == "" {
		req.OccupantID = auth.UserIDFrom(r.Context())
		req.OccupantName = auth.UsernameFrom(r.Context())
	} else if req.OccupantID != auth.UserIDFrom(r.Context()) && !auth.IsAdmin(r.Context()) {
		// Reservar em nome de terceiros é restrito ao admin.
		http.Error(w, `{"error":"sem permissão para reservar por outro ocupante"}`, http.StatusForbidden)
		return
	}
	if req.OccupantID == "" || req.OccupantName == "" {
		http.Error(w, `{"error":"ocupante é obrigatório"}`, http.StatusBadRequest)
		return
	}
	res, err := booking.Book(r.Context(), h.Pool, groupID, req.SlotIndex, booking.Occupant{
		ID:      req.OccupantID,
		Name:    req.OccupantName,
		Contact: req.OccupantContact,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := map[string]interface{}{"message": "ok", "slot_index": req.SlotIndex}
	if res.PreviousSlotIndex != nil {
		out["previous_slot_index"] = *res.PreviousSlotIndex
	}
	writeJSON(w, http.StatusOK, out)
}
