package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
)

const cannedResponse = `{
	"candidates": [{
		"content": {
			"parts": [
				{"text": "Seu pedido está a caminho. "},
				{"text": "O motorista passa agora pela Avenida Paulista."}
			]
		},
		"groundingMetadata": {
			"groundingChunks": [
				{"maps": {"uri": "https://maps.example/paulista", "title": "Avenida Paulista"}},
				{"web": {"uri": "https://example.com", "title": "ignored"}}
			]
		}
	}]
}`

func insightGWFor(url string) *InsightGW {
	return NewInsightGW(models.InsightConfig{
		BaseURL:        url,
		APIKey:         "test-key",
		Model:          "gemini-2.5-flash",
		TimeoutSeconds: 2,
	}, nil)
}

func TestDeliveryEstimateParsesResponse(t *testing.T) {
	var gotPath string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cannedResponse))
	}))
	defer srv.Close()

	gw := insightGWFor(srv.URL)
	loc := models.LatLng{Lat: -23.5505, Lng: -46.6333}
	ins, err := gw.DeliveryEstimate(context.Background(), models.OrderStatusInTransit, "Avenida Paulista, 1000", &loc)
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "Seu pedido está a caminho. O motorista passa agora pela Avenida Paulista.", ins.Text)
	require.Len(t, ins.References, 1)
	assert.Equal(t, "Avenida Paulista", ins.References[0].Title)
	assert.Equal(t, "https://maps.example/paulista", ins.References[0].URI)

	// The prompt carries the order context and the grounding point follows
	// the driver.
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "IN_TRANSIT")
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "Avenida Paulista, 1000")
	require.NotNil(t, gotBody.ToolConfig)
	assert.InDelta(t, -23.5505, gotBody.ToolConfig.RetrievalConfig.LatLng.Latitude, 1e-9)
}

func TestFleetInsightParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "optimization report")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cannedResponse))
	}))
	defer srv.Close()

	gw := insightGWFor(srv.URL)
	ins, err := gw.FleetInsight(context.Background(),
		[]models.Order{{ID: "o1", Status: models.OrderStatusInTransit}},
		[]models.Driver{{ID: "d1", CurrentLocation: models.LatLng{Lat: -23.5505, Lng: -46.6333}}})
	require.NoError(t, err)
	assert.NotEmpty(t, ins.Text)
	assert.Len(t, ins.References, 1)
}

func TestInsightRequiresAPIKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	gw := NewInsightGW(models.InsightConfig{BaseURL: srv.URL, Model: "gemini-2.5-flash"}, nil)
	_, err := gw.FleetInsight(context.Background(), nil, nil)
	require.Error(t, err)
	assert.False(t, called, "no request should leave the process without a key")
}

func TestInsightRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cannedResponse))
	}))
	defer srv.Close()

	gw := insightGWFor(srv.URL)
	ins, err := gw.DeliveryEstimate(context.Background(), models.OrderStatusPending, "Rua Augusta, 500", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ins.Text)
	assert.Equal(t, int32(2), hits.Load())
}

func TestInsightFailsAfterExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := insightGWFor(srv.URL)
	_, err := gw.DeliveryEstimate(context.Background(), models.OrderStatusPending, "Rua Augusta, 500", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestInsightEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	gw := insightGWFor(srv.URL)
	ins, err := gw.FleetInsight(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ins.Text)
	assert.NotNil(t, ins.References)
	assert.Empty(t, ins.References)
}
