package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

func cell(day, hour, modality, status string) repo.AvailabilityCell {
	return repo.AvailabilityCell{DayName: day, Hour: hour, Modality: modality, CellStatus: status}
}

func TestIntersect_MatchOnWeekdayBand(t *testing.T) {
	// célula livre de quarta 19:00 casa com o token "night-weekday_19:00"
	cells := []repo.AvailabilityCell{
		cell("Wednesday", "19:00", "online", repo.CellAvailable),
	}
	slots := Intersect(cells, "online", []string{"night-weekday_19:00"})
	require.Len(t, slots, 1)
	assert.Equal(t, CandidateSlot{Day: "Wednesday", Hour: "19:00", Modality: "online"}, slots[0])
}

func TestIntersect_NoMatchOnDifferentHour(t *testing.T) {
	// paciente só de manhã, profissional só à noite: nada casa
	cells := []repo.AvailabilityCell{
		cell("Wednesday", "19:00", "online", repo.CellAvailable),
	}
	slots := Intersect(cells, "online", []string{"morning-weekday_08:00"})
	assert.Empty(t, slots)
}

func TestIntersect_SkipsOccupiedCells(t *testing.T) {
	cells := []repo.AvailabilityCell{
		cell("Wednesday", "19:00", "online", repo.CellOccupied),
		cell("Thursday", "19:00", "online", repo.CellAvailable),
	}
	slots := Intersect(cells, "online", []string{"night-weekday_19:00"})
	require.Len(t, slots, 1)
	assert.Equal(t, "Thursday", slots[0].Day)
}

func TestIntersect_ModalityFilter(t *testing.T) {
	cells := []repo.AvailabilityCell{
		cell("Monday", "19:00", "in-person", repo.CellAvailable),
		cell("Tuesday", "19:00", "online", repo.CellAvailable),
	}
	slots := Intersect(cells, "online", []string{"night-weekday_19:00"})
	require.Len(t, slots, 1)
	assert.Equal(t, "Tuesday", slots[0].Day)

	// "any" aceita as duas
	slots = Intersect(cells, "any", []string{"night-weekday_19:00"})
	assert.Len(t, slots, 2)
}

func TestIntersect_EmptyTokensNeverMatch(t *testing.T) {
	cells := []repo.AvailabilityCell{
		cell("Monday", "19:00", "online", repo.CellAvailable),
	}
	assert.Empty(t, Intersect(cells, "any", nil))
	assert.Empty(t, Intersect(cells, "any", []string{"malformado"}))
}

func TestIntersect_SaturdayBandDoesNotLeakToWeekdays(t *testing.T) {
	cells := []repo.AvailabilityCell{
		cell("Monday", "09:00", "online", repo.CellAvailable),
		cell("Saturday", "09:00", "online", repo.CellAvailable),
	}
	slots := Intersect(cells, "online", []string{"morning-Saturday_09:00"})
	require.Len(t, slots, 1)
	assert.Equal(t, "Saturday", slots[0].Day)
}
