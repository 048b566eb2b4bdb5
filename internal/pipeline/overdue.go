package pipeline

import (
	"time"

	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

// AssignmentOverdue derives the overdue flag at read time: deadline in the past
// and the assignment not closed. Nunca é persistido; quem exibe calcula na hora,
// para o valor não divergir de uma cópia antiga gravada.
func AssignmentOverdue(a repo.Assignment, now time.Time) bool {
	if a.Deadline == nil || a.Status == repo.AssignmentClosed {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return a.Deadline.Before(today)
}
