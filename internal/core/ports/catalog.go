package ports

import (
	"errors"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// Catalog is the port interface for nomenclature lookup.
type Catalog interface {
	// Lookup finds a product by GTIN.
	Lookup(gtin string) (domain.Product, error)

	// FindByName finds a product by its exact display name.
	FindByName(name string) (domain.Product, error)

	// All returns every known product.
	All() []domain.Product
}

// ErrProductNotFound is returned when the catalog has no matching product.
var ErrProductNotFound = errors.New("product not found in catalog")
