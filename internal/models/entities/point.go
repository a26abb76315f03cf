package entities

// Point is one active foraging location as seen by consumers of the store.
type Point struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Seasons   []string `json:"seasons"`
	UpdatedAt string   `json:"updated_at"`
}

// NewPoint carries the user supplied part of a point before it is persisted.
type NewPoint struct {
	Name    string
	Lat     float64
	Lon     float64
	Seasons []string
}

// PointFilter narrows a listing. Empty slices match everything.
type PointFilter struct {
	Categories []string
	Seasons    []string
}

// CategoryStats summarises a listing per category.
type CategoryStats struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}
