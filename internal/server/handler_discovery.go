package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Kinds       []string       `json:"kinds"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var kinds []string
	for _, k := range s.catalog.Kinds() {
		kinds = append(kinds, string(k))
	}
	respondOK(w, reqID, discoveryResponse{
		Name:        "Cinedex API",
		Version:     "v1",
		Description: "Movie and series catalog with cached, paginated list queries",
		Kinds:       kinds,
		Endpoints: []endpointInfo{
			{"/api/v1/{kind}", []string{"GET", "POST"}, "Paginated list (page, pageSize, <kind>SortBy, <kind>AscOrDesc, search) and create"},
			{"/api/v1/{kind}/{id}", []string{"GET", "PUT", "DELETE"}, "Single record operations"},
			{"/api/v1/{kind}/{id}/reviews", []string{"GET", "POST"}, "Reviews of a movie or series"},
			{"/api/v1/{kind}/{id}/bookmark", []string{"POST"}, "Toggle a bookmark on a movie or series"},
			{"/api/v1/reviews/{id}/vote", []string{"POST"}, "Vote on a review (-1, 0, 1)"},
			{"/api/v1/bookmarks", []string{"GET"}, "The caller's bookmarks"},
			{"/api/v1/auth/login", []string{"POST"}, "Exchange credentials for a session"},
			{"/api/v1/auth/logout", []string{"POST"}, "End the current session"},
			{"/api/v1/auth/me", []string{"GET"}, "Describe the current session"},
			{"/api/v1/admin/cache", []string{"GET"}, "Cache statistics"},
			{"/api/v1/admin/cache/invalidate", []string{"POST"}, "Drop cached lists for a tag"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
