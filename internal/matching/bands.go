// Package matching cruza a disponibilidade recorrente dos profissionais com as
// preferências de horário dos pacientes, filtrando por modalidade.
package matching

import (
	"fmt"
	"strings"
)

// Dias por faixa. Os tokens de faixa ("morning-weekday", "night-Saturday"...)
// são contrato de dados: os formulários gravam exatamente estas strings.
var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var bandDays = map[string][]string{
	"morning-weekday":    weekdays,
	"afternoon-weekday":  weekdays,
	"night-weekday":      weekdays,
	"morning-Saturday":   {"Saturday"},
	"afternoon-Saturday": {"Saturday"},
	"night-Saturday":     {"Saturday"},
}

// CellKey is one concrete (day, hour) slot of patient availability.
type CellKey struct {
	Day  string
	Hour string
}

// ExpandToken converte um token específico "{faixa}_{HH:MM}" (ex.
// "night-weekday_19:00") nas células concretas que ele cobre.
func ExpandToken(token string) ([]CellKey, error) {
	idx := strings.LastIndex(token, "_")
	if idx <= 0 || idx == len(token)-1 {
		return nil, fmt.Errorf("token de disponibilidade inválido: %q", token)
	}
	band, hour := token[:idx], token[idx+1:]
	days, ok := bandDays[band]
	if !ok {
		return nil, fmt.Errorf("faixa desconhecida: %q", band)
	}
	out := make([]CellKey, 0, len(days))
	for _, d := range days {
		out = append(out, CellKey{Day: d, Hour: hour})
	}
	return out, nil
}

// ExpandTokens expands every valid token into a lookup set. Tokens malformados
// são ignorados (dado legado), não derrubam o cruzamento inteiro.
func ExpandTokens(tokens []string) map[CellKey]bool {
	set := make(map[CellKey]bool)
	for _, t := range tokens {
		cells, err := ExpandToken(t)
		if err != nil {
			continue
		}
		for _, c := range cells {
			set[c] = true
		}
	}
	return set
}

// ModalityCompatible: "any" do paciente casa com qualquer célula; caso
// contrário exige igualdade exata.
func ModalityCompatible(patientModality, cellModality string) bool {
	return patientModality == "any" || patientModality == cellModality
}
