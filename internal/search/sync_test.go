package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSendsDocument(t *testing.T) {
	var got Document
	var gotKey string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer upstream.Close()

	s := NewSyncer(upstream.URL, "secret-key")
	img := "http://localhost:8080/uploads/a.jpg"
	err := s.Upsert(context.Background(), &models.Product{
		ID:          12,
		SupplierID:  4,
		Name:        "Coconut Husk",
		Description: "Dried husks, 10kg sacks",
		Price:       150,
		Verified:    true,
		ImageURL:    &img,
	})

	require.NoError(t, err)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "product-12", got.ObjectID)
	assert.Equal(t, "Coconut Husk", got.Name)
	assert.Equal(t, img, got.ImageURL)
	assert.True(t, got.Verified)
}

func TestDeleteTargetsObjectID(t *testing.T) {
	var gotPath string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	s := NewSyncer(upstream.URL, "secret-key")
	require.NoError(t, s.Delete(context.Background(), 12))
	assert.Equal(t, "/product-12", gotPath)
}

func TestUpsertErrorOnUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	s := NewSyncer(upstream.URL, "secret-key")
	err := s.Upsert(context.Background(), &models.Product{ID: 12})
	assert.Error(t, err)
}

func TestDisabledSyncerIsNoOp(t *testing.T) {
	s := NewSyncer("", "")
	assert.NoError(t, s.Upsert(context.Background(), &models.Product{ID: 12}))
	assert.NoError(t, s.Delete(context.Background(), 12))
}
