package feed

// FeatureCollection models the USGS GeoJSON summary feed.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Metadata Metadata  `json:"metadata"`
	Features []Feature `json:"features"`
}

// Metadata is the feed header.
type Metadata struct {
	Generated int64  `json:"generated"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Count     int    `json:"count"`
}

// Feature is a single earthquake in the feed.
type Feature struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Properties Properties `json:"properties"`
	Geometry   Geometry   `json:"geometry"`
}

// Properties holds the earthquake attributes. USGS sends null for several of
// them on freshly reported events.
type Properties struct {
	Mag     *float64 `json:"mag"`
	Place   *string  `json:"place"`
	Time    *int64   `json:"time"`
	URL     *string  `json:"url"`
	Title   *string  `json:"title"`
	Alert   *string  `json:"alert"`
	Tsunami *int     `json:"tsunami"`
	Type    *string  `json:"type"`
}

// Geometry holds [longitude, latitude, depth].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}
