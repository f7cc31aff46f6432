package model

// Event is a single earthquake as reported by the upstream feed.
// Time is milliseconds since the Unix epoch, as USGS reports it.
type Event struct {
	ID        string  `json:"id"`
	Magnitude float64 `json:"magnitude"`
	Place     string  `json:"place"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	DepthKm   float64 `json:"depth_km"`
	Time      int64   `json:"time"`
	URL       string  `json:"url,omitempty"`
	Title     string  `json:"title,omitempty"`
	Alert     string  `json:"alert,omitempty"`
	Tsunami   int     `json:"tsunami"`
}
