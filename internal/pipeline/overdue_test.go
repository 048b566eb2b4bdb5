package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

func TestAssignmentOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	yesterday := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, AssignmentOverdue(repo.Assignment{Deadline: &yesterday, Status: repo.AssignmentActive}, now))

	// prazo de hoje ainda não venceu
	assert.False(t, AssignmentOverdue(repo.Assignment{Deadline: &today, Status: repo.AssignmentActive}, now))
	assert.False(t, AssignmentOverdue(repo.Assignment{Deadline: &tomorrow, Status: repo.AssignmentActive}, now))

	// sem prazo ou já encerrado, nunca atrasa
	assert.False(t, AssignmentOverdue(repo.Assignment{Status: repo.AssignmentActive}, now))
	assert.False(t, AssignmentOverdue(repo.Assignment{Deadline: &yesterday, Status: repo.AssignmentClosed}, now))
}
