package model

import "time"

// Booking mirrors the `bookings` table. Reference is the opaque
// identifier handed to the payment provider when the checkout session
// was created; Paid flips to true once the provider confirms payment.
type Booking struct {
	ID        uint64    `json:"id"`
	TourID    uint64    `json:"tourId"`
	UserID    uint64    `json:"userId"`
	Reference string    `json:"reference"`
	Price     float64   `json:"price"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
