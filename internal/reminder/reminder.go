// Package reminder envia lembretes de WhatsApp para as sessões de plantão
// confirmadas do dia seguinte.
package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/eupsico/intranet-1-sub000/internal/crypto"
	"github.com/eupsico/intranet-1-sub000/internal/pipeline"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
	"github.com/eupsico/intranet-1-sub000/internal/whatsapp"
)

const auditActionReminderSent = "SESSION_REMINDER_SENT"
const auditSourceSystem = "SYSTEM"

// WhatsAppSender sends a reminder to a phone number.
type WhatsAppSender interface {
	SendReminder(phone, patientName, dateStr, timeStr string) error
}

// SessionLister returns the confirmed sessions of a given date. Used in tests
// with a mock; in production pass nil to use repo.
type SessionLister interface {
	ListSessionsForReminder(ctx context.Context, db *gorm.DB, status string, date time.Time) ([]repo.SessionReminderRow, error)
}

// SendSessionReminders loads the sessions confirmed for date (amanhã, na
// prática), decifra o contato de cada caso e envia um lembrete por paciente.
// Falha por destinatário é logada e não interrompe o resto.
func SendSessionReminders(ctx context.Context, db *gorm.DB, date time.Time, sender WhatsAppSender, keys map[string][]byte) (sent int, skipped int) {
	return SendSessionRemindersWithLister(ctx, db, date, sender, keys, nil)
}

// SendSessionRemindersWithLister is like SendSessionReminders but accepts an
// optional lister for tests. If lister is nil, repo is used (and db must be non-nil).
func SendSessionRemindersWithLister(ctx context.Context, db *gorm.DB, date time.Time, sender WhatsAppSender, keys map[string][]byte, lister SessionLister) (sent int, skipped int) {
	if db == nil && lister == nil {
		log.Warn().Msg("reminder: db nulo e sem lister, pulando")
		return 0, 0
	}
	status := string(pipeline.StatusPlantaoConfirmed)
	var rows []repo.SessionReminderRow
	var err error
	if lister != nil {
		rows, err = lister.ListSessionsForReminder(ctx, db, status, date)
	} else {
		rows, err = repo.ListSessionsForReminder(ctx, db, status, date)
	}
	if err != nil {
		log.Error().Err(err).Msg("reminder: ListSessionsForReminder")
		return 0, 0
	}
	if sender == nil {
		log.Info().Int("sessions", len(rows)).Msg("reminder: WhatsApp não configurado, nada enviado")
		return 0, len(rows)
	}
	dateStr := date.Format("02/01/2006")
	for _, r := range rows {
		phone, ok := decryptContact(r, keys)
		if !ok {
			log.Warn().Str("case", r.CaseID.String()).Msg("reminder: caso sem contato decifrável")
			skipped++
			continue
		}
		if err := sender.SendReminder(phone, r.PatientName, dateStr, r.ConfirmedTime); err != nil {
			log.Error().Err(err).Str("case", r.CaseID.String()).Msg("reminder: envio falhou")
			skipped++
			continue
		}
		sent++
		log.Info().Str("case", r.CaseID.String()).Msg("reminder: enviado")
		if db != nil {
			caseID := r.CaseID
			_ = repo.CreateAuditEventDB(ctx, db, repo.AuditEvent{
				Action:       auditActionReminderSent,
				ActorType:    auditSourceSystem,
				ResourceType: strPtr("PATIENT_CASE"),
				ResourceID:   &caseID,
				CaseID:       &caseID,
				Source:       strPtr(auditSourceSystem),
				Metadata:     map[string]string{"time": r.ConfirmedTime},
			})
		}
	}
	return sent, skipped
}

// decryptContact abre o contato cifrado do caso. Sem contato, sem versão de
// chave ou com chave ausente, não envia.
func decryptContact(r repo.SessionReminderRow, keys map[string][]byte) (string, bool) {
	if len(r.ContactEnc) == 0 || len(r.ContactNonce) == 0 || r.ContactKeyVer == nil {
		return "", false
	}
	plain, err := crypto.Decrypt(r.ContactEnc, r.ContactNonce, *r.ContactKeyVer, keys)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

func strPtr(s string) *string { return &s }

// DefaultWhatsAppSender returns a whatsapp.Client from the given config, or nil if not configured.
func DefaultWhatsAppSender(accountSid, authToken, from string) WhatsAppSender {
	if accountSid == "" || authToken == "" || from == "" {
		return nil
	}
	return whatsapp.NewClient(whatsapp.Config{
		AccountSid: accountSid,
		AuthToken:  authToken,
		From:       from,
	})
}
