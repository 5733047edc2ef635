package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const mpEndpoint = "https://www.google-analytics.com/mp/collect"

// Event is a structured funnel event.
type Event struct {
	Name   string
	Params map[string]any
}

// Emitter forwards funnel events. Events are always logged; when a GA4
// measurement ID and API secret are configured they are also sent to the
// Measurement Protocol endpoint. Forwarding failures are logged, never
// surfaced; analytics must not affect the user-visible flow.
type Emitter struct {
	MeasurementID string
	APISecret     string
	Endpoint      string
	HTTPClient    *http.Client
}

// NewEmitter creates an emitter. Empty credentials yield a log-only emitter.
func NewEmitter(measurementID, apiSecret string) *Emitter {
	return &Emitter{
		MeasurementID: measurementID,
		APISecret:     apiSecret,
		Endpoint:      mpEndpoint,
		HTTPClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Emit records one event for the given visitor.
func (e *Emitter) Emit(ctx context.Context, visitorID string, event Event) {
	log.Printf("analytics event %s: %v", event.Name, event.Params)

	if e.MeasurementID == "" || e.APISecret == "" {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"client_id": visitorID,
		"events": []map[string]any{
			{"name": event.Name, "params": event.Params},
		},
	})
	if err != nil {
		log.Printf("analytics payload error: %v", err)
		return
	}

	endpoint := fmt.Sprintf("%s?measurement_id=%s&api_secret=%s",
		e.Endpoint, url.QueryEscape(e.MeasurementID), url.QueryEscape(e.APISecret))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		log.Printf("analytics request error: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		log.Printf("analytics forward failed: %v", err)
		return
	}
	resp.Body.Close()
}
