package repo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// AuditEvent registra quem fez o quê (avanço de etapa, booking, alocação na grade).
type AuditEvent struct {
	Action       string
	ActorType    string
	ActorID      *uuid.UUID
	ResourceType *string
	ResourceID   *uuid.UUID
	CaseID       *uuid.UUID
	Source       *string // USER|SYSTEM
	Metadata     interface{}
}

func CreateAuditEvent(ctx context.Context, q Querier, ev AuditEvent) error {
	var meta []byte
	if ev.Metadata != nil {
		var marshalErr error
		meta, marshalErr = json.Marshal(ev.Metadata)
		if marshalErr != nil {
			return marshalErr
		}
	}
	if ev.ActorType == "" {
		ev.ActorType = "SYSTEM"
	}
	_, err := q.Exec(ctx, `
		INSERT INTO audit_events (id, action, actor_type, actor_id, resource_type, resource_id, case_id, source, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.New(), ev.Action, ev.ActorType, ev.ActorID, ev.ResourceType, ev.ResourceID, ev.CaseID, ev.Source, meta)
	return err
}
