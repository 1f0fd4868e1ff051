package repository

import "github.com/traventa/tour-booking-api/internal/query"

// Query schemas declare, per entity, which API fields listing
// endpoints may filter, sort and project, and how the names map onto
// columns. Fields absent here (password hash, reset token columns)
// are unreachable from a query string.

// UserSchema always injects the active-only predicate, so
// soft-deleted accounts never surface in listings.
var UserSchema = query.Schema{
	Table: "users",
	Columns: map[string]string{
		"id":        "id",
		"name":      "name",
		"email":     "email",
		"role":      "role",
		"createdAt": "created_at",
	},
	Filterable: map[string]bool{"name": true, "email": true, "role": true},
	Sortable:   map[string]bool{"name": true, "email": true, "role": true, "createdAt": true},
	Base:       "active = 1",
}

// TourSchema excludes secret tours from every listing.
var TourSchema = query.Schema{
	Table: "tours",
	Columns: map[string]string{
		"id":              "id",
		"name":            "name",
		"slug":            "slug",
		"duration":        "duration",
		"maxGroupSize":    "max_group_size",
		"difficulty":      "difficulty",
		"ratingsAverage":  "ratings_average",
		"ratingsQuantity": "ratings_quantity",
		"price":           "price",
		"summary":         "summary",
		"createdAt":       "created_at",
	},
	Filterable: map[string]bool{
		"duration": true, "maxGroupSize": true, "difficulty": true,
		"ratingsAverage": true, "price": true, "name": true,
	},
	Sortable: map[string]bool{
		"name": true, "duration": true, "price": true,
		"ratingsAverage": true, "createdAt": true,
	},
	Base: "secret = 0",
}

var ReviewSchema = query.Schema{
	Table: "reviews",
	Columns: map[string]string{
		"id":        "r.id",
		"tourId":    "r.tour_id",
		"userId":    "r.user_id",
		"rating":    "r.rating",
		"createdAt": "r.created_at",
	},
	Filterable: map[string]bool{"tourId": true, "userId": true, "rating": true},
	Sortable:   map[string]bool{"rating": true, "createdAt": true},
}

var BookingSchema = query.Schema{
	Table: "bookings",
	Columns: map[string]string{
		"id":        "id",
		"tourId":    "tour_id",
		"userId":    "user_id",
		"price":     "price",
		"paid":      "paid",
		"createdAt": "created_at",
	},
	Filterable: map[string]bool{"tourId": true, "userId": true, "paid": true, "price": true},
	Sortable:   map[string]bool{"price": true, "createdAt": true},
}
