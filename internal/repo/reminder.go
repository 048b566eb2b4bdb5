package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionReminderRow is one confirmed session happening on the reminder date,
// com o contato ainda cifrado (quem envia decide se consegue decifrar).
type SessionReminderRow struct {
	CaseID        uuid.UUID
	PatientName   string
	ConfirmedTime string
	ContactEnc    []byte
	ContactNonce  []byte
	ContactKeyVer *string
}

// ListSessionsForReminder returns the cases in the given status with a session
// confirmed for date. O status vem do chamador para esta camada não conhecer a esteira.
func ListSessionsForReminder(ctx context.Context, db *gorm.DB, status string, date time.Time) ([]SessionReminderRow, error) {
	var rows []SessionReminderRow
	err := db.WithContext(ctx).Raw(`
		SELECT id AS case_id, full_name AS patient_name, confirmed_time,
		       contact_enc, contact_nonce, contact_key_ver
		FROM patient_cases
		WHERE status = ? AND confirmed_date = ? AND confirmed_time IS NOT NULL
		ORDER BY confirmed_time
	`, status, date.Format("2006-01-02")).Scan(&rows).Error
	return rows, err
}

// CreateAuditEventDB é a variante GORM de CreateAuditEvent, para fluxos fora
// de transação pgx (lembretes, jobs).
func CreateAuditEventDB(ctx context.Context, db *gorm.DB, ev AuditEvent) error {
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
	return db.WithContext(ctx).Exec(`
		INSERT INTO audit_events (id, action, actor_type, actor_id, resource_type, resource_id, case_id, source, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New(), ev.Action, ev.ActorType, ev.ActorID, ev.ResourceType, ev.ResourceID, ev.CaseID, ev.Source, meta).Error
}
