package followup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eupsico/intranet-1-sub000/internal/pipeline"
)

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusScheduled))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.False(t, IsTerminal(StatusFirstContact))
	assert.False(t, IsTerminal(StatusAwaitingPayment))
}

// Os contratos de entrada são checados antes de qualquer acesso ao banco, então
// as rejeições abaixo nunca chegam a tocar o pool.
func TestSetStatus_RejectsUnknownStatus(t *testing.T) {
	_, err := SetStatus(context.Background(), nil, uuid.New(), Input{Status: "Fourth Contact"})
	requireValidation(t, err, "status")
}

func TestSetStatus_CancelRequiresReason(t *testing.T) {
	_, err := SetStatus(context.Background(), nil, uuid.New(), Input{Status: StatusCancelled})
	requireValidation(t, err, "cancelReason")

	_, err = SetStatus(context.Background(), nil, uuid.New(), Input{Status: StatusCancelled, CancelReason: "   "})
	requireValidation(t, err, "cancelReason")
}

func TestSetStatus_ConfirmContract(t *testing.T) {
	d := time.Now()

	_, err := SetStatus(context.Background(), nil, uuid.New(), Input{Status: StatusScheduled})
	requireValidation(t, err, "confirmedDate")

	_, err = SetStatus(context.Background(), nil, uuid.New(), Input{
		Status: StatusScheduled, ConfirmedDate: &d,
	})
	requireValidation(t, err, "confirmedTime")

	_, err = SetStatus(context.Background(), nil, uuid.New(), Input{
		Status: StatusScheduled, ConfirmedDate: &d, ConfirmedTime: "19:00",
	})
	requireValidation(t, err, "confirmedTime")

	_, err = SetStatus(context.Background(), nil, uuid.New(), Input{
		Status: StatusScheduled, ConfirmedDate: &d, ConfirmedTime: "19:00", DayName: "Wednesday", Modality: "any",
	})
	requireValidation(t, err, "modality")
}

func TestAppendWarning(t *testing.T) {
	assert.Equal(t, "a", appendWarning("", "a"))
	assert.Equal(t, "a; b", appendWarning("a", "b"))
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *pipeline.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, field, ve.Field)
}
