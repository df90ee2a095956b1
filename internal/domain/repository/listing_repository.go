package repository

import (
	"context"

	"campusmart/internal/domain/entity"
)

type ListingRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
}
