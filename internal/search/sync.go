// Package search pushes product documents to the external search-index
// sync endpoint. Sync failures must never fail the originating request;
// callers treat this as best-effort and the index catches up on the next
// write.
package search

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/guonaihong/gout"
)

// Document is the shape the index expects for one product.
type Document struct {
	ObjectID     string  `json:"objectID"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	SupplierID   int64   `json:"supplierId"`
	SupplierName string  `json:"supplierName,omitempty"`
	ImageURL     string  `json:"imageUrl,omitempty"`
	Verified     bool    `json:"verified"`
}

// Syncer forwards product changes to the index.
type Syncer struct {
	Endpoint string // full URL of the sync endpoint; empty disables syncing
	APIKey   string
}

// NewSyncer builds a syncer. An empty endpoint yields a disabled syncer
// whose methods are no-ops (local dev without an index).
func NewSyncer(endpoint, apiKey string) *Syncer {
	return &Syncer{Endpoint: endpoint, APIKey: apiKey}
}

// Upsert pushes the current state of a product into the index.
func (s *Syncer) Upsert(ctx context.Context, p *models.Product) error {
	if s.Endpoint == "" {
		return nil
	}

	doc := Document{
		ObjectID:     fmt.Sprintf("product-%d", p.ID),
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		SupplierID:   p.SupplierID,
		SupplierName: p.SupplierName,
		Verified:     p.Verified,
	}
	if p.ImageURL != nil {
		doc.ImageURL = *p.ImageURL
	}

	var code int
	err := gout.POST(s.Endpoint).
		WithContext(ctx).
		SetHeader(gout.H{"X-API-Key": s.APIKey}).
		SetJSON(doc).
		Code(&code).
		Do()
	if err != nil {
		return fmt.Errorf("search sync upsert: %w", err)
	}
	if code != http.StatusOK && code != http.StatusCreated {
		return fmt.Errorf("search sync upsert: endpoint returned %d", code)
	}
	return nil
}

// Delete removes a product from the index.
func (s *Syncer) Delete(ctx context.Context, productID int64) error {
	if s.Endpoint == "" {
		return nil
	}

	var code int
	err := gout.DELETE(fmt.Sprintf("%s/product-%d", s.Endpoint, productID)).
		WithContext(ctx).
		SetHeader(gout.H{"X-API-Key": s.APIKey}).
		Code(&code).
		Do()
	if err != nil {
		return fmt.Errorf("search sync delete: %w", err)
	}
	if code != http.StatusOK && code != http.StatusNoContent {
		return fmt.Errorf("search sync delete: endpoint returned %d", code)
	}
	return nil
}
