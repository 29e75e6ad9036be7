package domain

import "time"

// Order represents a confirmed customer order. The delivery engine only
// reads orders to validate existence; everything else about them is owned
// by the surrounding marketplace.
type Order struct {
	ID           string
	CustomerID   string
	RestaurantID string
	Total        float64
	CreatedAt    time.Time
}
