package api

import (
	"regexp"
	"strings"
)

var (
	// emailRegex valida formato de e-mail (uma @ e domínio com ponto).
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// hourRegex valida horário "HH:MM" de 00:00 a 23:59.
	hourRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

var weekDays = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true,
	"Thursday": true, "Friday": true, "Saturday": true,
}

// ValidDayName aceita os dias de atendimento (segunda a sábado, nomes em inglês
// por contrato com os formulários).
func ValidDayName(day string) bool {
	return weekDays[strings.TrimSpace(day)]
}

// ValidHour aceita horários "HH:MM".
func ValidHour(hour string) bool {
	return hourRegex.MatchString(strings.TrimSpace(hour))
}

// ValidCellModality aceita as modalidades concretas de uma célula de agenda.
func ValidCellModality(m string) bool {
	return m == "online" || m == "in-person"
}

// ValidCaseModality aceita a preferência de modalidade do paciente, incluindo "any".
func ValidCaseModality(m string) bool {
	return m == "online" || m == "in-person" || m == "any"
}
