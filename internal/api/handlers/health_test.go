package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

func TestHealthReportsConnectedDatabase(t *testing.T) {
	handler := NewHealthHandler(&fakePinger{})

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "ok", payload.Status)
	require.Equal(t, "connected", payload.Database)
}

func TestHealthReportsDegradedWhenPingFails(t *testing.T) {
	handler := NewHealthHandler(&fakePinger{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "degraded", payload.Status)
	require.Equal(t, "disconnected", payload.Database)
}
