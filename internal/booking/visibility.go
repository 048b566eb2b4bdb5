package booking

import (
	"time"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// MinNotice é a antecedência mínima para novas reservas: slots que começam em
// menos de 12h somem para quem ainda não está neles.
const MinNotice = 12 * time.Hour

// SlotStart parses the slot's date + start time in the given location.
func SlotStart(s repo.Slot, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", s.Date+" "+s.StartTime, loc)
}

// VisibleSlot is a slot plus its index in the group's stored list. O índice
// original precisa sobreviver ao filtro, porque Book endereça por índice.
type VisibleSlot struct {
	Index int
	Slot  repo.Slot
}

// VisibleSlots applies the occupant-relative admission filter: slots starting
// in less than MinNotice are hidden from new bookers, mas continuam visíveis
// (e editáveis) para quem já ocupa o slot.
func VisibleSlots(slots []repo.Slot, occupantID string, now time.Time, loc *time.Location) []VisibleSlot {
	cutoff := now.Add(MinNotice)
	var out []VisibleSlot
	for i, s := range slots {
		start, err := SlotStart(s, loc)
		if err == nil && start.Before(cutoff) && !holdsSeat(s, occupantID) {
			continue
		}
		out = append(out, VisibleSlot{Index: i, Slot: s})
	}
	return out
}

func holdsSeat(s repo.Slot, occupantID string) bool {
	if occupantID == "" {
		return false
	}
	for _, seat := range s.Seats {
		if seat.OccupantID == occupantID {
			return true
		}
	}
	return false
}
