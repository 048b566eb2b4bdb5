package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

func TestDayKey(t *testing.T) {
	assert.Equal(t, "mon", DayKey("Monday"))
	assert.Equal(t, "sat", DayKey("saturday"))
	assert.Equal(t, "wed", DayKey(" Wednesday "))
	// chaves já curtas passam direto
	assert.Equal(t, "tue", DayKey("tue"))
}

func TestTimeKey(t *testing.T) {
	assert.Equal(t, "18-00", TimeKey("18:00"))
	assert.Equal(t, "09-30", TimeKey(" 09:30 "))
}

func TestClaim_FirstFreeColumn(t *testing.T) {
	doc := repo.GridDoc{}
	col, changed, err := Claim(doc, "ana.moreira", "online", "Monday", "19:00")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 0, col)
	assert.Equal(t, "ana.moreira", doc["online"]["mon"]["19-00"][0])

	col, changed, err = Claim(doc, "bruno.costa", "online", "Monday", "19:00")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, col)
}

func TestClaim_IdempotentPerUsername(t *testing.T) {
	doc := repo.GridDoc{}
	first, _, err := Claim(doc, "ana.moreira", "online", "Monday", "19:00")
	require.NoError(t, err)

	again, changed, err := Claim(doc, "ana.moreira", "online", "Monday", "19:00")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, again)
	// só uma coluna ocupada
	occupied := 0
	for _, name := range doc["online"]["mon"]["19-00"] {
		if name != "" {
			occupied++
		}
	}
	assert.Equal(t, 1, occupied)
}

func TestClaim_FullCellReturnsErrorWithoutMutation(t *testing.T) {
	doc := repo.GridDoc{
		"online": {"mon": {"19-00": []string{"a", "b", "c", "d", "e", "f"}}},
	}
	_, changed, err := Claim(doc, "g", "online", "Monday", "19:00")
	require.ErrorIs(t, err, repo.ErrGridFull)
	assert.False(t, changed)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, doc["online"]["mon"]["19-00"])
}

func TestClaim_FullCellStillIdempotentForOccupant(t *testing.T) {
	doc := repo.GridDoc{
		"online": {"mon": {"19-00": []string{"a", "b", "c", "d", "e", "f"}}},
	}
	col, changed, err := Claim(doc, "d", "online", "Monday", "19:00")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 3, col)
}

func TestClaim_PadsShortCellFromStoredDoc(t *testing.T) {
	// documentos antigos podem ter células com menos posições
	doc := repo.GridDoc{
		"in-person": {"sat": {"09-00": []string{"a"}}},
	}
	col, changed, err := Claim(doc, "b", "in-person", "Saturday", "09:00")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, col)
	assert.Len(t, doc["in-person"]["sat"]["09-00"], Columns)
}

func TestClaim_CellsAreIndependent(t *testing.T) {
	doc := repo.GridDoc{}
	_, _, err := Claim(doc, "ana.moreira", "online", "Monday", "19:00")
	require.NoError(t, err)
	col, _, err := Claim(doc, "ana.moreira", "online", "Monday", "20:00")
	require.NoError(t, err)
	assert.Equal(t, 0, col)
	col, _, err = Claim(doc, "ana.moreira", "in-person", "Monday", "19:00")
	require.NoError(t, err)
	assert.Equal(t, 0, col)
}
