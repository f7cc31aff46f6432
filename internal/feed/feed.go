// Package feed fetches the current earthquake batch from a GeoJSON feed.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"quakealert-backend/config"
	"quakealert-backend/internal/apperr"
	"quakealert-backend/internal/model"
)

const unknownPlace = "Unknown location"

// Client fetches and decodes the configured feed.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a feed client, honouring an optional HTTP proxy.
func NewClient(cfg *config.FeedConfig) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Feed client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		url: cfg.URL,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// Fetch returns the events currently in the feed. Any failure is a FeedFetchError.
func (c *Client) Fetch(ctx context.Context) ([]model.Event, error) {
	fc, err := c.fetch(ctx)
	if err != nil {
		return nil, apperr.FeedFetch("fetch feed", err)
	}
	return ToEvents(fc.Features), nil
}

func (c *Client) fetch(ctx context.Context) (*FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("received non-2xx status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed: %w", err)
	}
	return &fc, nil
}

// ToEvents converts features to events, skipping those without an id or a position.
func ToEvents(features []Feature) []model.Event {
	events := make([]model.Event, 0, len(features))
	for _, f := range features {
		if f.ID == "" || len(f.Geometry.Coordinates) < 2 {
			log.Printf("Skipping feature %q: missing id or coordinates", f.ID)
			continue
		}
		events = append(events, toEvent(f))
	}
	return events
}

func toEvent(f Feature) model.Event {
	p := f.Properties
	e := model.Event{
		ID:        f.ID,
		Place:     unknownPlace,
		Longitude: f.Geometry.Coordinates[0],
		Latitude:  f.Geometry.Coordinates[1],
	}
	if len(f.Geometry.Coordinates) > 2 {
		e.DepthKm = f.Geometry.Coordinates[2]
	}
	if p.Mag != nil {
		e.Magnitude = *p.Mag
	}
	if p.Place != nil && *p.Place != "" {
		e.Place = *p.Place
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if p.URL != nil {
		e.URL = *p.URL
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Alert != nil {
		e.Alert = *p.Alert
	}
	if p.Tsunami != nil {
		e.Tsunami = *p.Tsunami
	}
	return e
}
