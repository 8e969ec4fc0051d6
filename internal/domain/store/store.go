package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the merchant a return belongs to. Its Code is embedded in every
// document number the store issues.
type Store struct {
	ID   uuid.UUID
	Code string
	Name string
	// ReturnWindowDays overrides the configured default when positive
	ReturnWindowDays int
	Currency         string
}

// ReturnWindow returns the store's window, or fallbackDays if none is set
func (s *Store) ReturnWindow(fallbackDays int) time.Duration {
	days := fallbackDays
	if s.ReturnWindowDays > 0 {
		days = s.ReturnWindowDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// Repository reads stores
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)
}
