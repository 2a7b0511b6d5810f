package memstore

import (
	"encoding/json"
	"fmt"
	"os"

	"bookswap/internal/catalog"
)

// SeedData is the shape of a seed file: catalog books plus who holds which
// book.
type SeedData struct {
	Books    []catalog.Book    `json:"books"`
	Holdings map[string]string `json:"holdings"` // ISBN to user ID
}

// Seed adds books and holdings. A holding for a book missing from the
// catalog is an error.
func (s *Store) Seed(data SeedData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	now := s.now()
	for _, b := range data.Books {
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = b.CreatedAt
		}
		next.books[b.ISBN] = b
	}
	for isbn, userID := range data.Holdings {
		if _, ok := next.books[isbn]; !ok {
			return fmt.Errorf("seed holding %s: book not in catalog", isbn)
		}
		next.holdings[isbn] = holding{userID: userID, acquiredAt: now}
	}
	s.state = next
	return nil
}

func LoadSeedFile(path string) (SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedData{}, err
	}
	var data SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return SeedData{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return data, nil
}
