package httpapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, 200, rec.Code)

	var body struct {
		OK bool  `json:"ok"`
		Ts int64 `json:"ts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.OK)
	require.InDelta(t, time.Now().UnixMilli(), body.Ts, float64(5*time.Second/time.Millisecond))
}

func TestRootIdentifiesService(t *testing.T) {
	rec := httptest.NewRecorder()
	Root(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, 200, rec.Code)

	var body struct {
		OK      bool   `json:"ok"`
		Service string `json:"service"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.OK)
	require.Equal(t, "binaryblitz-backend", body.Service)
}
