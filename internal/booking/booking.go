// Package booking implementa a transação de reserva de vaga em grupos de
// eventos recorrentes (supervisão, plantões de voluntariado).
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// Occupant identifica quem está reservando.
type Occupant struct {
	ID      string
	Name    string
	Contact string
}

// Result is the outcome of a successful booking. PreviousSlotIndex aponta o
// slot de onde a reserva anterior do ocupante foi removida, se havia uma.
type Result struct {
	PreviousSlotIndex *int
}

// Book moves the occupant's reservation to the target slot in one atomic
// read-check-write: relê a lista de slots dentro da transação, checa a
// capacidade, remove a reserva anterior do ocupante e grava a lista inteira de
// volta. Conflitos de escrita concorrente são resolvidos pelo retry da própria
// transação; o chamador nunca tenta de novo por conta própria.
//
// Invariantes garantidos aqui (e não por pré-checagem no cliente):
// no máximo uma reserva por ocupante no grupo, e no máximo um ocupante por
// slot com capacidade limitada.
func Book(ctx context.Context, pool *pgxpool.Pool, groupID uuid.UUID, targetSlot int, occ Occupant) (*Result, error) {
	var res Result
	err := repo.InTx(ctx, pool, func(tx pgx.Tx) error {
		res = Result{}
		group, err := repo.EventGroupForUpdate(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if targetSlot < 0 || targetSlot >= len(group.Slots) {
			return fmt.Errorf("slot %d: %w", targetSlot, repo.ErrNotFound)
		}
		target := group.Slots[targetSlot]
		if target.CapacityLimited {
			for _, seat := range target.Seats {
				if seat.OccupantID != occ.ID {
					return repo.ErrConflict
				}
			}
		}
		// Remove a reserva existente do ocupante, onde quer que esteja (no-op se não houver).
		for i := range group.Slots {
			seats := group.Slots[i].Seats
			for j, seat := range seats {
				if seat.OccupantID == occ.ID {
					group.Slots[i].Seats = append(seats[:j:j], seats[j+1:]...)
					prev := i
					res.PreviousSlotIndex = &prev
					break
				}
			}
		}
		group.Slots[targetSlot].Seats = append(group.Slots[targetSlot].Seats, repo.Reservation{
			ID:           uuid.New().String(),
			OccupantID:   occ.ID,
			OccupantName: occ.Name,
			Contact:      occ.Contact,
			JoinedAt:     time.Now(),
		})
		if err := repo.WriteSlots(ctx, tx, groupID, group.Slots); err != nil {
			return err
		}
		return repo.CreateAuditEvent(ctx, tx, repo.AuditEvent{
			Action:       "SLOT_BOOKED",
			ActorType:    "USER",
			ResourceType: auditResource(),
			ResourceID:   &groupID,
			Metadata: map[string]interface{}{
				"slot_index": targetSlot,
				"occupant":   occ.ID,
				"moved_from": res.PreviousSlotIndex,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func auditResource() *string {
	s := "EVENT_GROUP"
	return &s
}
