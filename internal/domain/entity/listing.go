package entity

import (
	"time"
)

const (
	ListingStatusAvailable = "available"
	ListingStatusSold      = "sold"
)

// Listing is managed by the listings module. Chat reads the owner to pick the
// counterpart of a conversation and shows the rest as a summary.
type Listing struct {
	ID       string   `json:"id" firestore:"id"`
	OwnerID  string   `json:"owner_id" firestore:"ownerId"`
	Title    string   `json:"title" firestore:"title"`
	Price    float64  `json:"price" firestore:"price"`
	Category string   `json:"category,omitempty" firestore:"category,omitempty"`
	Images   []string `json:"images,omitempty" firestore:"images,omitempty"`
	Status   string   `json:"status" firestore:"status"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// ListingSummary is the slice of a listing embedded in conversation responses.
type ListingSummary struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Status string  `json:"status"`
}

func (l *Listing) Summary() *ListingSummary {
	return &ListingSummary{
		ID:     l.ID,
		Title:  l.Title,
		Price:  l.Price,
		Status: l.Status,
	}
}
