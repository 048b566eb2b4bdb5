// Package fnclient chama as cloud functions legadas que ainda concentram a
// agregação de disponibilidade e a definição do tipo de agenda. Protocolo
// callable: POST JSON {"data": ...}, resposta {"result": ...} ou {"error": ...}.
package fnclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CallError is the typed error payload of a failed callable invocation.
type CallError struct {
	HTTPStatus int    `json:"-"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (e *CallError) Error() string {
	return fmt.Sprintf("fnclient: %s (%d): %s", e.Status, e.HTTPStatus, e.Message)
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New returns a client for the callable endpoints. baseURL vazio desliga as
// chamadas (Enabled() == false); os fluxos que dependem delas devem pular.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Enabled() bool { return c.baseURL != "" }

// AvailabilitySummary é o agregado que a function devolve para o painel.
type AvailabilitySummary struct {
	TotalProfessionals int            `json:"totalProfessionals"`
	TotalCells         int            `json:"totalCells"`
	ByBand             map[string]int `json:"byBand"`
}

// AggregateAvailability pede o agregado de disponibilidade dos profissionais
// informados (todos, quando a lista é vazia).
func (c *Client) AggregateAvailability(ctx context.Context, professionalIDs []uuid.UUID) (*AvailabilitySummary, error) {
	in := map[string]interface{}{"professionalIds": professionalIDs}
	var out AvailabilitySummary
	if err := c.call(ctx, "aggregateAvailability", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignScheduleTypeResult confirma a definição de tipo de agenda de um caso.
type AssignScheduleTypeResult struct {
	Assigned     bool   `json:"assigned"`
	ScheduleType string `json:"scheduleType"`
}

// AssignScheduleType grava o tipo de agenda do caso no sistema legado.
func (c *Client) AssignScheduleType(ctx context.Context, caseID uuid.UUID, scheduleType string) (*AssignScheduleTypeResult, error) {
	in := map[string]interface{}{"caseId": caseID, "scheduleType": scheduleType}
	var out AssignScheduleTypeResult
	if err := c.call(ctx, "assignScheduleType", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, name string, in, out interface{}) error {
	if !c.Enabled() {
		return &CallError{Status: "UNAVAILABLE", Message: "functions base URL não configurada"}
	}
	payload, err := json.Marshal(map[string]interface{}{"data": in})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("fnclient: %s: read body: %w", resp.Status, err)
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *CallError      `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("fnclient: %s: resposta inválida: %w", resp.Status, err)
	}
	if envelope.Error != nil {
		envelope.Error.HTTPStatus = resp.StatusCode
		return envelope.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &CallError{HTTPStatus: resp.StatusCode, Status: "INTERNAL", Message: strings.TrimSpace(string(body))}
	}
	if out != nil && len(envelope.Result) > 0 {
		return json.Unmarshal(envelope.Result, out)
	}
	return nil
}
