package seed

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/eupsico/intranet-1-sub000/internal/auth"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// Run popula o banco vazio com um admin, dois profissionais de demonstração
// (com disponibilidade) e um grupo de eventos. Idempotente: com profissionais
// existentes, não faz nada.
func Run(ctx context.Context, db *gorm.DB) error {
	var n int
	if err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM professionals").Scan(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		log.Info().Msg("seed: profissionais existem, nada a fazer")
		return nil
	}

	adminHash, err := auth.HashPassword("Admin123!")
	if err != nil {
		return err
	}
	adminID := uuid.New()
	if err := db.WithContext(ctx).Exec(`
		INSERT INTO professionals (id, full_name, username, email, password_hash, role, status)
		VALUES (?, 'Administração EuPsico', 'admin', 'admin@eupsico.local', ?, ?, 'ACTIVE')
	`, adminID, adminHash, auth.RoleAdmin).Error; err != nil {
		return err
	}

	profHash, err := auth.HashPassword("ChangeMe123!")
	if err != nil {
		return err
	}
	p1, p2 := uuid.New(), uuid.New()
	if err := db.WithContext(ctx).Exec(`
		INSERT INTO professionals (id, full_name, username, email, password_hash, role, status)
		VALUES (?, 'Ana Moreira', 'ana.moreira', 'ana.moreira@eupsico.local', ?, ?, 'ACTIVE'),
		       (?, 'Bruno Costa', 'bruno.costa', 'bruno.costa@eupsico.local', ?, ?, 'ACTIVE')
	`, p1, profHash, auth.RoleProfessional, p2, profHash, auth.RoleProfessional).Error; err != nil {
		return err
	}

	if err := repo.ReplaceAvailability(ctx, db, p1, []repo.AvailabilityCell{
		{ProfessionalID: p1, DayName: "Monday", Hour: "19:00", Modality: "online"},
		{ProfessionalID: p1, DayName: "Wednesday", Hour: "19:00", Modality: "online"},
		{ProfessionalID: p1, DayName: "Saturday", Hour: "09:00", Modality: "in-person"},
	}); err != nil {
		return err
	}
	if err := repo.ReplaceAvailability(ctx, db, p2, []repo.AvailabilityCell{
		{ProfessionalID: p2, DayName: "Tuesday", Hour: "14:00", Modality: "in-person"},
		{ProfessionalID: p2, DayName: "Thursday", Hour: "20:00", Modality: "online"},
	}); err != nil {
		return err
	}

	if err := db.WithContext(ctx).Exec(`
		INSERT INTO event_groups (id, name, slots)
		VALUES (?, 'Grupo de acolhimento - Agosto', '[]')
	`, uuid.New()).Error; err != nil {
		return err
	}

	log.Info().Msg("seed: admin, profissionais e grupo de demonstração criados")
	return nil
}
