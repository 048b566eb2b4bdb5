package fnclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateAvailability(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var envelope struct {
			Data struct {
				ProfessionalIDs []uuid.UUID `json:"professionalIds"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": AvailabilitySummary{
				TotalProfessionals: 3,
				TotalCells:         12,
				ByBand:             map[string]int{"night-weekday": 7},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "chave")
	sum, err := c.AggregateAvailability(context.Background(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "/aggregateAvailability", gotPath)
	assert.Equal(t, "Bearer chave", gotAuth)
	assert.Equal(t, 3, sum.TotalProfessionals)
	assert.Equal(t, 7, sum.ByBand["night-weekday"])
}

func TestCall_TypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"status": "PERMISSION_DENIED", "message": "sem acesso"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.AssignScheduleType(context.Background(), uuid.New(), "weekly")
	require.Error(t, err)
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusForbidden, ce.HTTPStatus)
	assert.Equal(t, "PERMISSION_DENIED", ce.Status)
}

func TestCall_Disabled(t *testing.T) {
	c := New("", "")
	assert.False(t, c.Enabled())
	_, err := c.AggregateAvailability(context.Background(), nil)
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "UNAVAILABLE", ce.Status)
}
