package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tmsflow/fleettrack/internal/pkg/circuitbreaker"
	"github.com/tmsflow/fleettrack/internal/pkg/logger"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
	"github.com/tmsflow/fleettrack/internal/pkg/retry"
)

// InsightGW talks to the generative-language REST API to produce fleet
// insights and delivery estimates. All failures are returned to the caller,
// which substitutes fallback content; nothing here is fatal.
type InsightGW struct {
	cfg     models.InsightConfig
	client  *http.Client
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
}

// NewInsightGW creates a new insight gateway
func NewInsightGW(cfg models.InsightConfig, zapLogger *logger.ZapLogger) *InsightGW {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InsightGW{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		retrier: retry.NewWithDefaults(zapLogger),
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("insight-service"), zapLogger),
	}
}

// FleetInsight asks for a brief optimization report over the whole fleet.
func (g *InsightGW) FleetInsight(ctx context.Context, orders []models.Order, drivers []models.Driver) (models.Insight, error) {
	ordersJSON, err := json.Marshal(orders)
	if err != nil {
		return models.Insight{}, err
	}
	driversJSON, err := json.Marshal(drivers)
	if err != nil {
		return models.Insight{}, err
	}

	prompt := fmt.Sprintf(
		"Analyze the following fleet status and provide a brief optimization report (max 3 bullet points):\n"+
			"Orders: %s\nDrivers: %s\nFocus on geographic efficiency and driver load.",
		ordersJSON, driversJSON)

	center := models.LatLng{Lat: -23.5505, Lng: -46.6333}
	if len(drivers) > 0 {
		center = drivers[0].CurrentLocation
	}
	return g.generate(ctx, prompt, center)
}

// DeliveryEstimate asks for a short customer-facing status update.
func (g *InsightGW) DeliveryEstimate(ctx context.Context, status models.OrderStatus, destinationAddress string, driverLocation *models.LatLng) (models.Insight, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The order is %s going to %s. ", status, destinationAddress)
	if driverLocation != nil {
		fmt.Fprintf(&sb, "The driver is currently at %f, %f. ", driverLocation.Lat, driverLocation.Lng)
	}
	sb.WriteString("Provide a friendly short update for the customer about the delivery status and the surrounding area if relevant.")

	center := models.LatLng{Lat: -23.5505, Lng: -46.6333}
	if driverLocation != nil {
		center = *driverLocation
	}
	return g.generate(ctx, sb.String(), center)
}

// Request/response shapes for the generateContent endpoint. Only the fields
// this gateway reads are declared.

type generateRequest struct {
	Contents   []content   `json:"contents"`
	Tools      []tool      `json:"tools,omitempty"`
	ToolConfig *toolConfig `json:"toolConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type tool struct {
	GoogleMaps map[string]interface{} `json:"google_maps,omitempty"`
}

type toolConfig struct {
	RetrievalConfig retrievalConfig `json:"retrievalConfig"`
}

type retrievalConfig struct {
	LatLng apiLatLng `json:"latLng"`
}

type apiLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Maps *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"maps"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

func (g *InsightGW) generate(ctx context.Context, prompt string, center models.LatLng) (models.Insight, error) {
	if g.cfg.APIKey == "" {
		return models.Insight{}, fmt.Errorf("insight service api key is not configured")
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Tools:    []tool{{GoogleMaps: map[string]interface{}{}}},
		ToolConfig: &toolConfig{
			RetrievalConfig: retrievalConfig{
				LatLng: apiLatLng{Latitude: center.Lat, Longitude: center.Lng},
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return models.Insight{}, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model, g.cfg.APIKey)

	// The breaker wraps the whole retried exchange: a burst of exhausted
	// retries trips it and later calls fail fast into the caller's fallback.
	var insight models.Insight
	err = g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.retrier.Execute(ctx, func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := g.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("insight service returned status %d", resp.StatusCode)
			}

			var out generateResponse
			if err := json.Unmarshal(body, &out); err != nil {
				return fmt.Errorf("failed to decode insight response: %w", err)
			}

			insight = toInsight(out)
			return nil
		})
	})
	if err != nil {
		return models.Insight{}, err
	}
	return insight, nil
}

func toInsight(out generateResponse) models.Insight {
	insight := models.Insight{References: []models.InsightReference{}}
	if len(out.Candidates) == 0 {
		return insight
	}

	cand := out.Candidates[0]
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	insight.Text = sb.String()

	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		if chunk.Maps == nil {
			continue
		}
		insight.References = append(insight.References, models.InsightReference{
			Title: chunk.Maps.Title,
			URI:   chunk.Maps.URI,
		})
	}
	return insight
}
