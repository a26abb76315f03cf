package dtos

import "forage-map/orchard/internal/common"

// AddPointReq is the body of POST /api/v1/points. Lat and Lon are nil when
// the key is absent or null.
type AddPointReq struct {
	Name    string                     `json:"name"`
	Lat     *common.FlexibleCoordinate `json:"lat"`
	Lon     *common.FlexibleCoordinate `json:"lon"`
	Seasons []string                   `json:"seasons"`
}
