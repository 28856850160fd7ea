package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/shadematch/backend/internal/domain"
)

// LocalSource reads per-retailer catalog snapshots from JSON files on disk.
// It is the last fallback tier when the document store is unreachable, so a
// deployment can keep matching against a bundled snapshot.
type LocalSource struct {
	dir string
}

// NewLocalSource creates a local source over a snapshot directory. Each store
// brand has one file named <brand>.json holding a product array.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

// Products loads the snapshot for a store brand.
func (s *LocalSource) Products(retailer string) ([]domain.Product, error) {
	path := filepath.Join(s.dir, retailer+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read local catalog %s: %w", path, err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode local catalog %s: %w", path, err)
	}

	for i := range products {
		if products[i].StoreBrand == "" {
			products[i].StoreBrand = retailer
		}
		products[i].HasColor = !products[i].ColorLab.IsZero()
	}

	log.Printf("[STORE] local snapshot %s: %d products", path, len(products))
	return products, nil
}
