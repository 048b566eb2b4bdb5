// Binário do cron de lembretes: envia os lembretes das sessões confirmadas
// para amanhã e sai. Agendado fora do processo (cron, scheduler do host).
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/eupsico/intranet-1-sub000/internal/config"
	"github.com/eupsico/intranet-1-sub000/internal/crypto"
	"github.com/eupsico/intranet-1-sub000/internal/reminder"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL é obrigatória")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("conexão postgres")
	}
	keys, err := crypto.ParseKeysEnv(cfg.DataEncryptionKeys)
	if err != nil {
		log.Fatal().Err(err).Msg("chaves de dados")
	}
	sender := reminder.DefaultWhatsAppSender(cfg.TwilioAccountSid, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	tomorrow := time.Now().AddDate(0, 0, 1)
	sent, skipped := reminder.SendSessionReminders(ctx, db, tomorrow, sender, keys)
	log.Info().
		Str("date", tomorrow.Format("2006-01-02")).
		Int("sent", sent).
		Int("skipped", skipped).
		Msg("lembretes processados")
}
