package entities

// UserProfile is returned to the chat layer after /start or a top-up.
// Registered is true once the user has provided a car number.
type UserProfile struct {
	ChatID     string `json:"chat_id"`
	Balance    int    `json:"balance"`
	CarNumber  string `json:"car_number,omitempty"`
	Registered bool   `json:"registered"`
}
