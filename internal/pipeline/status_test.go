package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusIntake, StatusTriageScheduled, StatusPlantaoReferral, StatusPlantaoActive,
		StatusPlantaoConfirmed, StatusBriefTherapyReferral, StatusAwaitingScheduleInfo,
		StatusScheduleRegistered, StatusBriefTherapyActive, StatusPartnership,
		StatusGroupCare, StatusWithdrawal, StatusDischarge,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("em-atendimento").Valid())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusWithdrawal.IsTerminal())
	assert.True(t, StatusDischarge.IsTerminal())
	assert.False(t, StatusIntake.IsTerminal())
	assert.False(t, StatusBriefTherapyActive.IsTerminal())
}

func TestCanAdvance(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusIntake, StatusTriageScheduled, true},
		{StatusIntake, StatusBriefTherapyActive, false},
		{StatusTriageScheduled, StatusPlantaoReferral, true},
		{StatusTriageScheduled, StatusBriefTherapyReferral, true},
		{StatusTriageScheduled, StatusDischarge, false},
		{StatusPlantaoReferral, StatusPlantaoActive, true},
		{StatusPlantaoActive, StatusPlantaoConfirmed, true},
		{StatusPlantaoActive, StatusBriefTherapyReferral, true},
		{StatusPlantaoActive, StatusDischarge, true},
		{StatusPlantaoConfirmed, StatusBriefTherapyReferral, true},
		{StatusBriefTherapyReferral, StatusAwaitingScheduleInfo, true},
		{StatusAwaitingScheduleInfo, StatusScheduleRegistered, true},
		{StatusScheduleRegistered, StatusBriefTherapyActive, true},
		{StatusBriefTherapyActive, StatusPartnership, true},
		{StatusBriefTherapyActive, StatusGroupCare, true},
		{StatusBriefTherapyActive, StatusDischarge, true},
		{StatusPartnership, StatusDischarge, true},
		{StatusGroupCare, StatusDischarge, true},
		// terminais não têm arestas de saída
		{StatusWithdrawal, StatusIntake, false},
		{StatusDischarge, StatusIntake, false},
		// pular etapa não é permitido
		{StatusBriefTherapyReferral, StatusScheduleRegistered, false},
		// desistência nunca entra por CanAdvance, só por Withdraw
		{StatusIntake, StatusWithdrawal, false},
		{StatusBriefTherapyActive, StatusWithdrawal, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, CanAdvance(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}
