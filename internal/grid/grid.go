// Package grid aloca reservas confirmadas nas colunas paralelas da grade de
// horários (documento único, 6 colunas por célula).
package grid

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// Columns per (modality, day, time) cell.
const Columns = 6

var dayKeys = map[string]string{
	"monday":    "mon",
	"tuesday":   "tue",
	"wednesday": "wed",
	"thursday":  "thu",
	"friday":    "fri",
	"saturday":  "sat",
	"sunday":    "sun",
}

// DayKey normaliza o nome do dia para a chave curta da grade ("Monday" → "mon").
// Chaves já curtas passam direto.
func DayKey(day string) string {
	d := strings.ToLower(strings.TrimSpace(day))
	if k, ok := dayKeys[d]; ok {
		return k
	}
	return d
}

// TimeKey normaliza "18:00" para a chave "18-00".
func TimeKey(t string) string {
	return strings.ReplaceAll(strings.TrimSpace(t), ":", "-")
}

// Allocate claims a column for username in the (modality, day, time) cell,
// dentro da transação recebida. Idempotente: se o username já ocupa alguma
// coluna da célula, devolve essa coluna sem escrever nada. Sem coluna livre,
// devolve repo.ErrGridFull e não muta o documento.
func Allocate(ctx context.Context, tx pgx.Tx, username, modality, day, timeStr string) (int, error) {
	doc, err := repo.ReadGridForUpdate(ctx, tx)
	if err != nil {
		return -1, err
	}
	col, changed, err := Claim(doc, username, modality, day, timeStr)
	if err != nil {
		return -1, err
	}
	if changed {
		if err := repo.WriteGrid(ctx, tx, doc); err != nil {
			return -1, err
		}
	}
	return col, nil
}

// Claim aplica a regra de alocação no documento em memória: devolve a coluna
// do username (existente ou recém-ocupada) e se o documento mudou. Célula
// cheia devolve repo.ErrGridFull sem tocar no documento.
func Claim(doc repo.GridDoc, username, modality, day, timeStr string) (int, bool, error) {
	dk, tk := DayKey(day), TimeKey(timeStr)
	cell := ensureCell(doc, modality, dk, tk)
	free := -1
	for i := 0; i < Columns; i++ {
		if cell[i] == username {
			return i, false, nil
		}
		if cell[i] == "" && free == -1 {
			free = i
		}
	}
	if free == -1 {
		return -1, false, repo.ErrGridFull
	}
	cell[free] = username
	doc[modality][dk][tk] = cell
	return free, true, nil
}

// ensureCell materializa o caminho modality→day→time com Columns posições.
func ensureCell(doc repo.GridDoc, modality, dayKey, timeKey string) []string {
	if doc[modality] == nil {
		doc[modality] = map[string]map[string][]string{}
	}
	if doc[modality][dayKey] == nil {
		doc[modality][dayKey] = map[string][]string{}
	}
	cell := doc[modality][dayKey][timeKey]
	for len(cell) < Columns {
		cell = append(cell, "")
	}
	return cell
}
