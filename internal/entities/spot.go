package entities

// SpotResult pairs a catalog spot with the address reported by the external
// places provider. The address is display-only and never persisted.
type SpotResult struct {
	ID           int     `json:"id"`
	Location     string  `json:"location"`
	Address      string  `json:"address,omitempty"`
	PricePerHour int     `json:"price_per_hour"`
	Available    bool    `json:"available"`
	FreeSpaces   int     `json:"free_spaces"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}
