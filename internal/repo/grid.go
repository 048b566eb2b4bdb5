package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

// GridDoc is the singleton schedule grid document:
// modality → day key → time key → occupant usernames per column.
type GridDoc map[string]map[string]map[string][]string

func scanGrid(row pgx.Row) (GridDoc, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc := GridDoc{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func ReadGrid(ctx context.Context, q Querier) (GridDoc, error) {
	return scanGrid(q.QueryRow(ctx, `SELECT doc FROM schedule_grid WHERE id = 1`))
}

// ReadGridForUpdate lê o documento da grade com lock de linha, dentro da
// transação que vai escrever a alocação.
func ReadGridForUpdate(ctx context.Context, tx pgx.Tx) (GridDoc, error) {
	return scanGrid(tx.QueryRow(ctx, `SELECT doc FROM schedule_grid WHERE id = 1 FOR UPDATE`))
}

func WriteGrid(ctx context.Context, q Querier, doc GridDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `UPDATE schedule_grid SET doc = $1 WHERE id = 1`, raw)
	return err
}
