package email

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strconv"
	"text/template"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
	FromAddr string
}

func (c *Config) Send(to, subject, body string, html bool) error {
	// Validação de config e destinatário
	if to == "" {
		log.Error().Str("subject", subject).Msg("email: destinatário (to) vazio")
		return fmt.Errorf("destinatário de e-mail vazio")
	}
	if c.Host == "" {
		log.Error().Str("to", to).Msg("email: SMTP host vazio")
		return fmt.Errorf("SMTP host não configurado")
	}
	if c.FromAddr == "" {
		log.Error().Str("to", to).Msg("email: SMTP remetente vazio")
		return fmt.Errorf("SMTP remetente (From) não configurado")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	from := c.FromAddr
	if c.FromName != "" {
		from = fmt.Sprintf("%s <%s>", c.FromName, c.FromAddr)
	}
	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"Content-Type": "text/plain; charset=UTF-8",
	}
	if html {
		headers["Content-Type"] = "text/html; charset=UTF-8"
	}
	var buf bytes.Buffer
	for k, v := range headers {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.WriteString(body)
	err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, buf.Bytes())
	if err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("email: falha ao enviar")
		return err
	}
	log.Info().Str("to", to).Str("subject", subject).Msg("email: enviado")
	return nil
}

// authForSend returns nil when User is empty (e.g. MailHog), so no AUTH is sent.
func (c *Config) authForSend() smtp.Auth {
	if c.User != "" {
		return smtp.PlainAuth("", c.User, c.Pass, c.Host)
	}
	return nil
}

// LogConfigSummary loga um resumo da config SMTP (sem senha) para diagnóstico.
func (c *Config) LogConfigSummary() {
	log.Info().
		Str("host", c.Host).
		Int("port", c.Port).
		Str("from", c.FromAddr).
		Bool("auth", c.User != "").
		Msg("email: config SMTP")
	if c.Host == "" || c.FromAddr == "" {
		log.Warn().Msg("email: host ou from vazio; envios podem falhar")
	}
}

// SendMatchScheduled avisa o profissional que um encaixe foi confirmado na sua agenda.
func (c *Config) SendMatchScheduled(to, professionalName, patientName, dayName, hour, modality string) error {
	tpl := `Olá, {{.ProfessionalName}},

Um novo atendimento foi confirmado na sua agenda:

Paciente: {{.PatientName}}
Dia: {{.DayName}}, às {{.Hour}} ({{.Modality}})

O caso já aparece na sua lista de atendimentos ativos na intranet.

Se você não esperava este e-mail, entre em contato com a coordenação.`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]string{
		"ProfessionalName": professionalName,
		"PatientName":      patientName,
		"DayName":          dayName,
		"Hour":             hour,
		"Modality":         modality,
	}); err != nil {
		return err
	}
	return c.Send(to, "Novo atendimento confirmado - Intranet EuPsico", b.String(), false)
}

// SendPlantaoReferral avisa o profissional de plantão sobre um encaminhamento novo.
func (c *Config) SendPlantaoReferral(to, professionalName, patientName string) error {
	tpl := `Olá, {{.ProfessionalName}},

O paciente {{.PatientName}} foi encaminhado para o seu plantão de acolhimento.

Acesse a intranet para registrar a data de início do acompanhamento.`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]string{"ProfessionalName": professionalName, "PatientName": patientName}); err != nil {
		return err
	}
	return c.Send(to, "Encaminhamento de plantão - Intranet EuPsico", b.String(), false)
}

// SendGridFull avisa a coordenação que uma célula da grade estourou as colunas
// e a alocação precisa ser feita à mão.
func (c *Config) SendGridFull(to, dayName, hour, modality string) error {
	tpl := `Olá,

A grade de horários não tinha coluna livre para {{.DayName}} às {{.Hour}} ({{.Modality}}).

O atendimento foi confirmado normalmente, mas a coluna na grade precisa ser alocada manualmente.`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]string{"DayName": dayName, "Hour": hour, "Modality": modality}); err != nil {
		return err
	}
	return c.Send(to, "Grade de horários cheia - Intranet EuPsico", b.String(), false)
}

func PortFromString(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
