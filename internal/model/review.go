package model

import "time"

// Review mirrors the `reviews` table. A user may leave at most one
// review per tour (unique key over tour_id+user_id). AuthorName is
// joined from `users` for read paths and not a column of its own.
type Review struct {
	ID         uint64    `json:"id"`
	TourID     uint64    `json:"tourId"`
	UserID     uint64    `json:"userId"`
	Rating     int       `json:"rating"`
	Review     string    `json:"review"`
	AuthorName string    `json:"authorName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"-"`
}
