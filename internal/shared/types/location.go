package types

// Location pairs a free-text place description with coordinates.
// Incident reports carry the citizen's own wording plus the map pin.
type Location struct {
	Text string  `json:"text"`
	Lat  float64 `json:"lat,omitempty"`
	Lng  float64 `json:"lng,omitempty"`
}

// NewLocation creates a location from text and coordinates.
func NewLocation(text string, lat, lng float64) Location {
	return Location{Text: text, Lat: lat, Lng: lng}
}

// HasCoordinates reports whether a map pin was supplied.
func (l Location) HasCoordinates() bool {
	return l.Lat != 0 || l.Lng != 0
}

// ContactInfo represents contact information
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
