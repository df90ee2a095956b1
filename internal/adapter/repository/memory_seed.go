package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"campusmart/internal/domain/entity"
)

// Seed is the file format for STORE_DRIVER=memory: the users and listings
// that other services would normally own.
type Seed struct {
	Users    []*entity.User    `json:"users"`
	Listings []*entity.Listing `json:"listings"`
}

// LoadSeedFile reads a Seed from path into the store.
func (s *MemoryStore) LoadSeedFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return s.LoadSeed(seed)
}

func (s *MemoryStore) LoadSeed(seed Seed) error {
	for i, user := range seed.Users {
		if user == nil || user.ID == "" {
			return fmt.Errorf("seed user %d has no id", i)
		}
		if user.Role == "" {
			user.Role = entity.RoleUser
		}
		s.PutUser(user)
	}
	for i, listing := range seed.Listings {
		if listing == nil || listing.ID == "" || listing.OwnerID == "" {
			return fmt.Errorf("seed listing %d needs id and owner_id", i)
		}
		if listing.Status == "" {
			listing.Status = entity.ListingStatusAvailable
		}
		s.PutListing(listing)
	}
	return nil
}
