package api

// User endpoints
type SetCarNumberRequest struct {
	CarNumber string `json:"car_number"`
}

type TopUpRequest struct {
	Amount int `json:"amount"`
}

// Reservation endpoints
type CreateReservationRequest struct {
	SpotID int `json:"spot_id"`
}

// Spot endpoints
type GenerateFreeSpotsRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Admin endpoints
type UpdateSpotRequest struct {
	PricePerHour int `json:"price_per_hour"`
	FreeSpaces   int `json:"free_spaces"`
}
