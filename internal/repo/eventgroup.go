package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Reservation is one occupied seat in a slot.
type Reservation struct {
	ID           string    `json:"id"`
	OccupantID   string    `json:"occupantId"`
	OccupantName string    `json:"occupantName"`
	Contact      string    `json:"contact,omitempty"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Slot is one bookable interval of a recurring event group. Date is
// "2006-01-02", times are "15:04". The whole slot list is stored as one jsonb
// value and always written back in full.
type Slot struct {
	Date            string        `json:"date"`
	StartTime       string        `json:"startTime"`
	EndTime         string        `json:"endTime"`
	ManagerName     string        `json:"managerName,omitempty"`
	CapacityLimited bool          `json:"capacityLimited"`
	Seats           []Reservation `json:"seats"`
}

// EventGroup is a recurring event (supervision, volunteer sessions) with its slots.
type EventGroup struct {
	ID        uuid.UUID
	Name      string
	Slots     []Slot
	UpdatedAt time.Time
}

func CreateEventGroup(ctx context.Context, q Querier, g *EventGroup) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Slots == nil {
		g.Slots = []Slot{}
	}
	raw, err := json.Marshal(g.Slots)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `INSERT INTO event_groups (id, name, slots) VALUES ($1, $2, $3)`, g.ID, g.Name, raw)
	return err
}

func EventGroupByID(ctx context.Context, q Querier, id uuid.UUID) (*EventGroup, error) {
	return scanEventGroup(q.QueryRow(ctx, `SELECT id, name, slots, updated_at FROM event_groups WHERE id = $1`, id))
}

// EventGroupForUpdate relê o grupo com lock de linha. Sempre usar dentro da
// transação de booking: nunca confiar em uma cópia anterior da lista de slots.
func EventGroupForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*EventGroup, error) {
	return scanEventGroup(tx.QueryRow(ctx, `SELECT id, name, slots, updated_at FROM event_groups WHERE id = $1 FOR UPDATE`, id))
}

func scanEventGroup(row pgx.Row) (*EventGroup, error) {
	var g EventGroup
	var raw []byte
	if err := row.Scan(&g.ID, &g.Name, &raw, &g.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &g.Slots); err != nil {
		return nil, err
	}
	return &g, nil
}

// WriteSlots grava a lista completa de slots em uma única operação.
func WriteSlots(ctx context.Context, q Querier, id uuid.UUID, slots []Slot) error {
	raw, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `UPDATE event_groups SET slots = $2, updated_at = now() WHERE id = $1`, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func ListEventGroups(ctx context.Context, q Querier) ([]EventGroup, error) {
	rows, err := q.Query(ctx, `SELECT id, name, slots, updated_at FROM event_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []EventGroup
	for rows.Next() {
		var g EventGroup
		var raw []byte
		if err := rows.Scan(&g.ID, &g.Name, &raw, &g.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &g.Slots); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}
