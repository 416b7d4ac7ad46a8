package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

//
// --- Geocoding Proxy ---
//

// SearchPlaces is the handler for GET /v1/geo/search?q=<address>.
func (h *Handlers) SearchPlaces(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Query parameter q is required"})
		return
	}

	places, err := h.Geo.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Geocoding lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": places})
}

// ReversePlace is the handler for GET /v1/geo/reverse?lat=&lon=.
func (h *Handlers) ReversePlace(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Query parameters lat and lon are required"})
		return
	}

	place, err := h.Geo.Reverse(c.Request.Context(), lat, lon)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Reverse geocoding lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"place": place})
}
