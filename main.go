package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/eupsico/intranet-1-sub000/internal/api"
	"github.com/eupsico/intranet-1-sub000/internal/auth"
	"github.com/eupsico/intranet-1-sub000/internal/cache"
	"github.com/eupsico/intranet-1-sub000/internal/config"
	"github.com/eupsico/intranet-1-sub000/internal/email"
	"github.com/eupsico/intranet-1-sub000/internal/fnclient"
	"github.com/eupsico/intranet-1-sub000/internal/middleware"
	"github.com/eupsico/intranet-1-sub000/internal/migrate"
	"github.com/eupsico/intranet-1-sub000/internal/seed"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	cfg := config.Load()
	port := cfg.Port

	var pool *pgxpool.Pool
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("config postgres")
		}
		if cfg.DBMaxConns > 0 {
			poolConfig.MaxConns = int32(cfg.DBMaxConns)
		}
		if cfg.DBMinConns > 0 {
			poolConfig.MinConns = int32(cfg.DBMinConns)
		}
		if cfg.DBMaxConnLifetime > 0 {
			poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
		}
		pool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("conexão postgres")
		}
		defer pool.Close()
		if err := pool.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("ping postgres")
		}
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatal().Err(err).Msg("conexão gorm")
		}
		if err := migrate.Run(context.Background(), db, "migrations"); err != nil {
			log.Fatal().Err(err).Msg("migrations")
		}
		if err := seed.Run(context.Background(), db); err != nil {
			log.Warn().Err(err).Msg("seed (ignorado se já aplicado)")
		}
	}

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"no database"}`))
			return
		}
		if err := pool.Ping(context.Background()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	h := &api.Handler{
		Pool:  pool,
		DB:    db,
		Cfg:   cfg,
		Cache: cache.New(30*time.Second, cfg.RedisURL),
		Fn:    fnclient.New(cfg.FunctionsBaseURL, cfg.FunctionsAPIKey),
	}

	mailCfg := &email.Config{
		Host:     cfg.SMTPHost,
		Port:     email.PortFromString(cfg.SMTPPort),
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
		FromName: cfg.SMTPFromName,
		FromAddr: cfg.SMTPFromEmail,
	}
	mailCfg.LogConfigSummary()
	h.SetSendMatchScheduledEmail(mailCfg.SendMatchScheduled)
	h.SetSendGridFullEmail(mailCfg.SendGridFull)
	h.SetSendPlantaoReferralEmail(mailCfg.SendPlantaoReferral)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// Página pública de inscrição nos grupos: lista os slots sem exigir login;
	// com token válido, o filtro de antecedência considera o ocupante do token.
	apiRouter.Handle("/public/groups/{groupId}/slots",
		middleware.OptionalAuth(cfg.JWTSecret, http.HandlerFunc(h.GetGroupSlots))).Methods(http.MethodGet)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))
	protected.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	protected.HandleFunc("/professionals", h.ListProfessionals).Methods(http.MethodGet)

	// Esteira de casos: criação e preferências pela secretaria, avanço por
	// quem gerencia o caso.
	staff := middleware.RequireRole(auth.RoleAssistant, auth.RoleAdmin)
	protected.Handle("/cases", staff(http.HandlerFunc(h.CreateCase))).Methods(http.MethodPost)
	protected.HandleFunc("/cases", h.ListCases).Methods(http.MethodGet)
	protected.HandleFunc("/cases/{caseId}", h.GetCase).Methods(http.MethodGet)
	protected.Handle("/cases/{caseId}/preferences", staff(http.HandlerFunc(h.UpdateCasePreferences))).Methods(http.MethodPatch)
	protected.Handle("/cases/{caseId}/advance", staff(http.HandlerFunc(h.AdvanceCase))).Methods(http.MethodPost)
	protected.Handle("/cases/{caseId}/withdraw", staff(http.HandlerFunc(h.WithdrawCase))).Methods(http.MethodPost)
	protected.HandleFunc("/cases/{caseId}/candidates", h.MatchCandidatesForCase).Methods(http.MethodGet)

	// Disponibilidade semanal dos profissionais.
	protected.HandleFunc("/professionals/{professionalId}/availability", h.GetAvailability).Methods(http.MethodGet)
	protected.HandleFunc("/professionals/{professionalId}/availability", h.PutAvailability).Methods(http.MethodPut)
	protected.HandleFunc("/professionals/{professionalId}/candidates", h.MatchCandidatesForProfessional).Methods(http.MethodGet)
	protected.Handle("/availability/aggregate", staff(http.HandlerFunc(h.AggregateAvailability))).Methods(http.MethodGet)

	// Grupos de eventos e reservas de vaga.
	protected.HandleFunc("/groups", h.ListGroups).Methods(http.MethodGet)
	protected.Handle("/groups", middleware.RequireAdmin(http.HandlerFunc(h.CreateGroup))).Methods(http.MethodPost)
	protected.HandleFunc("/groups/{groupId}/slots", h.GetGroupSlots).Methods(http.MethodGet)
	protected.HandleFunc("/groups/{groupId}/book", h.BookSlot).Methods(http.MethodPost)

	// Acompanhamento de tentativas de encaixe.
	protected.Handle("/attempts", staff(http.HandlerFunc(h.CreateAttempt))).Methods(http.MethodPost)
	protected.HandleFunc("/attempts", h.ListAttempts).Methods(http.MethodGet)
	protected.Handle("/attempts/{attemptId}/status", staff(http.HandlerFunc(h.SetAttemptStatus))).Methods(http.MethodPatch)

	// Grade de horários.
	protected.HandleFunc("/grid", h.GetGrid).Methods(http.MethodGet)
	protected.Handle("/grid/allocate", middleware.RequireAdmin(http.HandlerFunc(h.AllocateGridCell))).Methods(http.MethodPost)

	protected.Handle("/admin/reminders/trigger", middleware.RequireAdmin(http.HandlerFunc(h.TriggerReminder))).Methods(http.MethodPost)

	chain := middleware.Recover(middleware.RequestID(middleware.Timeout(cfg.RequestTimeoutSec)(middleware.CORS(cfg.CORSOrigins)(middleware.Gzip(r)))))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("backend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("backend stopped")
}
