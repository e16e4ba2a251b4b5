package handlers

import (
	"net/http"
	"strconv"

	"nearby/internal/domain/geo"
	geoService "nearby/internal/service/geo"
)

// DiscoverHandler handles proximity discovery HTTP requests
type DiscoverHandler struct {
	service *geoService.DiscoveryService
}

// NewDiscoverHandler creates a new discover handler
func NewDiscoverHandler(service *geoService.DiscoveryService) *DiscoverHandler {
	return &DiscoverHandler{
		service: service,
	}
}

// parseViewer extracts the viewer id and optional client location from the
// query string. Location is only honored when both coordinates parse and
// fall inside WGS84 bounds.
func parseViewer(r *http.Request) (string, *geo.Location, bool) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		return "", nil, false
	}

	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")
	if latStr == "" || lngStr == "" {
		return userID, nil, true
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil {
		return userID, nil, false
	}

	loc := geo.Location{Latitude: lat, Longitude: lng}
	if !loc.Valid() {
		return userID, nil, false
	}

	return userID, &loc, true
}

// GetFeed returns recent posts within the viewer's discovery radius
func (h *DiscoverHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, loc, ok := parseViewer(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Missing user ID or invalid coordinates", nil)
		return
	}

	items, err := h.service.NearbyFeed(r.Context(), userID, loc)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

// GetPeople returns discoverable profiles sorted nearest first
func (h *DiscoverHandler) GetPeople(w http.ResponseWriter, r *http.Request) {
	userID, loc, ok := parseViewer(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Missing user ID or invalid coordinates", nil)
		return
	}

	people, err := h.service.NearbyPeople(r.Context(), userID, loc)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, people)
}
