package dtos

import "forage-map/orchard/internal/models/entities"

type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

// PointListResponse is returned by GET /api/v1/points
type PointListResponse struct {
	Points []entities.Point       `json:"points"`
	Stats  entities.CategoryStats `json:"stats"`
	Shown  int                    `json:"shown"`
	Active int                    `json:"active"`
}

// CatalogEntry is one category offered to clients
type CatalogEntry struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// CatalogResponse is returned by GET /api/v1/catalog
type CatalogResponse struct {
	Categories []CatalogEntry `json:"categories"`
	Seasons    []string       `json:"seasons"`
}
