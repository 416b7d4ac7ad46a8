// Package geo proxies geocoding and reverse-geocoding lookups to a
// Nominatim-style upstream so the frontend never talks to (or leaks the
// key of) the upstream directly.
package geo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/guonaihong/gout"
)

// Place is the slice of the upstream response we pass through.
// Nominatim returns coordinates as strings.
type Place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Client talks to the configured geocoding upstream.
type Client struct {
	BaseURL   string
	UserAgent string
}

// NewClient builds a client for the given upstream base URL
// (e.g. "https://nominatim.openstreetmap.org").
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:   baseURL,
		UserAgent: "rawmats-api/1.0",
	}
}

// Search resolves a free-text address into candidate places.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	var places []Place
	var code int

	err := gout.GET(c.BaseURL + "/search").
		WithContext(ctx).
		SetHeader(gout.H{"User-Agent": c.UserAgent}).
		SetQuery(gout.H{"q": query, "format": "json", "limit": 5}).
		BindJSON(&places).
		Code(&code).
		Do()
	if err != nil {
		return nil, fmt.Errorf("geocode search: %w", err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("geocode search: upstream returned %d", code)
	}

	if places == nil {
		places = []Place{}
	}
	return places, nil
}

// Reverse resolves coordinates into a single place.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	var place Place
	var code int

	err := gout.GET(c.BaseURL + "/reverse").
		WithContext(ctx).
		SetHeader(gout.H{"User-Agent": c.UserAgent}).
		SetQuery(gout.H{"lat": lat, "lon": lon, "format": "json"}).
		BindJSON(&place).
		Code(&code).
		Do()
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("reverse geocode: upstream returned %d", code)
	}

	return &place, nil
}
