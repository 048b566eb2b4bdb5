package api

import (
	"net/http"
	"time"

	"github.com/eupsico/intranet-1-sub000/internal/crypto"
	"github.com/eupsico/intranet-1-sub000/internal/reminder"
)

// TriggerReminder dispara manualmente os lembretes do dia seguinte (a rotina
// normal roda pelo cmd/reminder, agendado fora do processo).
func (h *Handler) TriggerReminder(w http.ResponseWriter, r *http.Request) {
	keys, err := crypto.ParseKeysEnv(h.Cfg.DataEncryptionKeys)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	sender := reminder.DefaultWhatsAppSender(h.Cfg.TwilioAccountSid, h.Cfg.TwilioAuthToken, h.Cfg.TwilioWhatsAppFrom)
	tomorrow := time.Now().AddDate(0, 0, 1)
	sent, skipped := reminder.SendSessionReminders(r.Context(), h.DB, tomorrow, sender, keys)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    tomorrow.Format("2006-01-02"),
		"sent":    sent,
		"skipped": skipped,
	})
}
