package model

import (
	"time"

	"github.com/lib/pq"
)

// SpotStatus is the review lifecycle state of a spot.
type SpotStatus string

const (
	StatusPending  SpotStatus = "pending"
	StatusVerified SpotStatus = "verified"
)

// SpotSource identifies how a spot entered the map.
type SpotSource string

const (
	SourceUser SpotSource = "user"
	SourceAuto SpotSource = "auto"
)

// Spot represents a mapped amala spot
type Spot struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Address     string         `json:"address" db:"address"`
	Latitude    float64        `json:"latitude" db:"latitude"`
	Longitude   float64        `json:"longitude" db:"longitude"`
	UserID      string         `json:"user_id" db:"user_id"`
	AddedBy     string         `json:"added_by" db:"added_by"`
	OpeningTime string         `json:"opening_time" db:"opening_time"`
	ClosingTime string         `json:"closing_time" db:"closing_time"`
	Price       float64        `json:"price" db:"price"`
	DineIn      bool           `json:"dine_in" db:"dine_in"`
	Source      SpotSource     `json:"source" db:"source"`
	Status      SpotStatus     `json:"status" db:"status"`
	Verified    bool           `json:"verified" db:"verified"`
	Images      pq.StringArray `json:"images" db:"images"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateSpotRequest is the payload accepted by the spot storage service.
// Submitter identity, display name and source are injected by the intake
// layer, never typed by the user.
type CreateSpotRequest struct {
	Name        string  `json:"name" binding:"required"`
	Address     string  `json:"address" binding:"required"`
	Latitude    float64 `json:"latitude" binding:"required"`
	Longitude   float64 `json:"longitude" binding:"required"`
	OpeningTime string  `json:"opening_time" binding:"required"`
	ClosingTime string  `json:"closing_time" binding:"required"`
	Price       float64 `json:"price" binding:"required"`
	DineIn      bool    `json:"dine_in"`
	UserID      string  `json:"user_id"`
	AddedBy     string  `json:"added_by"`
	Source      string  `json:"source"`
}
