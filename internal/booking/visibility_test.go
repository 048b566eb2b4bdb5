package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

func slotAt(start time.Time, seats ...repo.Reservation) repo.Slot {
	return repo.Slot{
		Date:      start.Format("2006-01-02"),
		StartTime: start.Format("15:04"),
		EndTime:   start.Add(time.Hour).Format("15:04"),
		Seats:     seats,
	}
}

func TestSlotStart(t *testing.T) {
	s := repo.Slot{Date: "2025-03-10", StartTime: "19:30"}
	start, err := SlotStart(s, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 19, 30, 0, 0, time.UTC), start)
}

func TestVisibleSlots_HidesSlotsInsideNoticeWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	slots := []repo.Slot{
		slotAt(now.Add(2 * time.Hour)),  // dentro das 12h, some
		slotAt(now.Add(20 * time.Hour)), // fora da janela, aparece
	}
	vis := VisibleSlots(slots, "u-1", now, time.UTC)
	require.Len(t, vis, 1)
	assert.Equal(t, 1, vis[0].Index)
}

func TestVisibleSlots_SeatHolderStillSeesOwnSlot(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	mine := slotAt(now.Add(2*time.Hour), repo.Reservation{OccupantID: "u-1"})
	other := slotAt(now.Add(3*time.Hour), repo.Reservation{OccupantID: "u-2"})
	vis := VisibleSlots([]repo.Slot{mine, other}, "u-1", now, time.UTC)
	require.Len(t, vis, 1)
	assert.Equal(t, 0, vis[0].Index)

	// sem identidade, nada dentro da janela aparece
	assert.Empty(t, VisibleSlots([]repo.Slot{mine, other}, "", now, time.UTC))
}

func TestVisibleSlots_PreservesOriginalIndexes(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	slots := []repo.Slot{
		slotAt(now.Add(1 * time.Hour)),
		slotAt(now.Add(24 * time.Hour)),
		slotAt(now.Add(2 * time.Hour)),
		slotAt(now.Add(48 * time.Hour)),
	}
	vis := VisibleSlots(slots, "", now, time.UTC)
	require.Len(t, vis, 2)
	assert.Equal(t, 1, vis[0].Index)
	assert.Equal(t, 3, vis[1].Index)
}

func TestVisibleSlots_UnparseableDateStaysVisible(t *testing.T) {
	// dado legado malformado não some da listagem
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	slots := []repo.Slot{{Date: "10/03/2025", StartTime: "09:00"}}
	vis := VisibleSlots(slots, "", now, time.UTC)
	require.Len(t, vis, 1)
	assert.Equal(t, 0, vis[0].Index)
}
