// Package domain defines persisted business entities.
package domain

import "time"

// Order is a completed book order archived after checkout.
type Order struct {
	ID        int64
	UserID    int64
	Name      string
	Address   string
	Email     string
	Book      string
	CreatedAt time.Time
}
