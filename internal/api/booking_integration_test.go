//go:build integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/eupsico/intranet-1-sub000/internal/auth"
	"github.com/eupsico/intranet-1-sub000/internal/middleware"
)

func newBookingRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(testJWTSecret))
	protected.Handle("/groups", middleware.RequireAdmin(http.HandlerFunc(h.CreateGroup))).Methods(http.MethodPost)
	protected.HandleFunc("/groups", h.ListGroups).Methods(http.MethodGet)
	protected.HandleFunc("/groups/{groupId}/slots", h.GetGroupSlots).Methods(http.MethodGet)
	protected.HandleFunc("/groups/{groupId}/book", h.BookSlot).Methods(http.MethodPost)
	return middleware.RequestID(r)
}

func TestIntegration_Booking_CapacityAndMove(t *testing.T) {
	ctx := context.Background()
	h, _, closePool := openTestHandler(t, ctx)
	if h == nil {
		return
	}
	defer closePool()
	srv := newBookingRouter(h)

	admin := authHeaderFor(t, "adm-1", "admin", auth.RoleAdmin)
	ana := authHeaderFor(t, "prof-ana", "ana.moreira", auth.RoleProfessional)
	bruno := authHeaderFor(t, "prof-bruno", "bruno.costa", auth.RoleProfessional)

	// slots bem além da janela de 12h, para o filtro de antecedência não interferir
	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	rr := doJSON(t, srv, http.MethodPost, "/api/groups", admin, map[string]interface{}{
		"name": "Supervisão de Abril",
		"slots": []slotReq{
			{Date: date, StartTime: "09:00", EndTime: "10:00", CapacityLimited: true},
			{Date: date, StartTime: "10:00", EndTime: "11:00"},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on create group, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.NewDecoder(rr.Body).Decode(&created)

	// profissional não cria grupo
	rr = doJSON(t, srv, http.MethodPost, "/api/groups", ana, map[string]interface{}{"name": "X"})
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for professional on create group, got %d", rr.Code)
	}

	// primeira reserva no slot com capacidade limitada
	rr = doJSON(t, srv, http.MethodPost, "/api/groups/"+created.ID+"/book", ana, BookSlotRequest{SlotIndex: 0})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on first booking, got %d body=%s", rr.Code, rr.Body.String())
	}

	// segundo ocupante no mesmo slot limitado conflita
	rr = doJSON(t, srv, http.MethodPost, "/api/groups/"+created.ID+"/book", bruno, BookSlotRequest{SlotIndex: 0})
	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409 on occupied limited slot, got %d body=%s", rr.Code, rr.Body.String())
	}

	// mover a própria reserva remove a anterior na mesma transação
	rr = doJSON(t, srv, http.MethodPost, "/api/groups/"+created.ID+"/book", ana, BookSlotRequest{SlotIndex: 1})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on move, got %d body=%s", rr.Code, rr.Body.String())
	}
	var moved struct {
		PreviousSlotIndex *int `json:"previous_slot_index"`
	}
	_ = json.NewDecoder(rr.Body).Decode(&moved)
	if moved.PreviousSlotIndex == nil || *moved.PreviousSlotIndex != 0 {
		t.Errorf("expected previous_slot_index 0, got %v", moved.PreviousSlotIndex)
	}

	// com o slot 0 livre de novo, o outro ocupante entra
	rr = doJSON(t, srv, http.MethodPost, "/api/groups/"+created.ID+"/book", bruno, BookSlotRequest{SlotIndex: 0})
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 after seat freed, got %d body=%s", rr.Code, rr.Body.String())
	}

	// listagem traz os dois slots com os assentos atuais
	rr = doJSON(t, srv, http.MethodGet, "/api/groups/"+created.ID+"/slots", ana, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on slots, got %d", rr.Code)
	}
	var out struct {
		Slots []struct {
			Index int `json:"index"`
			Slot  struct {
				Seats []struct {
					OccupantID string `json:"occupantId"`
				} `json:"seats"`
			} `json:"slot"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Slots) != 2 {
		t.Fatalf("expected 2 visible slots, got %d", len(out.Slots))
	}
	if len(out.Slots[0].Slot.Seats) != 1 || out.Slots[0].Slot.Seats[0].OccupantID != "prof-bruno" {
		t.Errorf("expected bruno holding slot 0, got %+v", out.Slots[0].Slot.Seats)
	}
	if len(out.Slots[1].Slot.Seats) != 1 || out.Slots[1].Slot.Seats[0].OccupantID != "prof-ana" {
		t.Errorf("expected ana holding slot 1, got %+v", out.Slots[1].Slot.Seats)
	}
}

// TestIntegration_Booking_ConcurrentSameSlot dispara duas reservas simultâneas
// no mesmo assento limitado vazio: exatamente uma entra, a outra conflita, e o
// assento termina com um único ocupante.
func TestIntegration_Booking_ConcurrentSameSlot(t *testing.T) {
	ctx := context.Background()
	h, _, closePool := openTestHandler(t, ctx)
	if h == nil {
		return
	}
	defer closePool()
	srv := newBookingRouter(h)

	admin := authHeaderFor(t, "adm-1", "admin", auth.RoleAdmin)
	ana := authHeaderFor(t, "prof-ana", "ana.moreira", auth.RoleProfessional)
	bruno := authHeaderFor(t, "prof-bruno", "bruno.costa", auth.RoleProfessional)

	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	rr := doJSON(t, srv, http.MethodPost, "/api/groups", admin, map[string]interface{}{
		"name": "Supervisão Disputada",
		"slots": []slotReq{
			{Date: date, StartTime: "11:00", EndTime: "12:00", CapacityLimited: true},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on create group, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.NewDecoder(rr.Body).Decode(&created)

	// requisições montadas antes das goroutines; cada uma leva seu recorder
	body, err := json.Marshal(BookSlotRequest{SlotIndex: 0})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	newBook := func(authz string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/groups/"+created.ID+"/book", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", authz)
		return req
	}

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for _, req := range []*http.Request{newBook(ana), newBook(bruno)} {
		wg.Add(1)
		go func(req *http.Request) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			codes <- rec.Code
		}(req)
	}
	wg.Wait()
	close(codes)

	var okCount, conflictCount int
	for code := range codes {
		switch code {
		case http.StatusOK:
			okCount++
		case http.StatusConflict:
			conflictCount++
		default:
			t.Errorf("unexpected status %d on concurrent booking", code)
		}
	}
	if okCount != 1 || conflictCount != 1 {
		t.Fatalf("expected exactly one 200 and one 409, got ok=%d conflict=%d", okCount, conflictCount)
	}

	// o assento limitado ficou com exatamente um ocupante
	rr = doJSON(t, srv, http.MethodGet, "/api/groups/"+created.ID+"/slots", admin, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on slots, got %d", rr.Code)
	}
	var out struct {
		Slots []struct {
			Slot struct {
				Seats []struct {
					OccupantID string `json:"occupantId"`
				} `json:"seats"`
			} `json:"slot"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Slots) != 1 || len(out.Slots[0].Slot.Seats) != 1 {
		t.Fatalf("expected a single seat taken, got %+v", out.Slots)
	}
	got := out.Slots[0].Slot.Seats[0].OccupantID
	if got != "prof-ana" && got != "prof-bruno" {
		t.Errorf("unexpected occupant %q", got)
	}
}
