// Package catalog loads the product nomenclature used to build order
// positions from short operator input.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// CSVCatalog is a read-only product catalog backed by a CSV file with a
// header row naming at least the name and gtin columns.
type CSVCatalog struct {
	products []domain.Product
	byGTIN   map[string]domain.Product
}

// LoadCSVCatalog reads and indexes the catalog file. The file is read
// once; restart to pick up nomenclature changes.
func LoadCSVCatalog(path string, logger *zap.Logger) (*CSVCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ConfigError(fmt.Sprintf("open catalog %s: %v", path, err))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, domain.ConfigError(fmt.Sprintf("read catalog header %s: %v", path, err))
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, ok := cols["name"]
	if !ok {
		return nil, domain.ConfigError(fmt.Sprintf("catalog %s: missing name column", path))
	}
	gtinIdx, ok := cols["gtin"]
	if !ok {
		return nil, domain.ConfigError(fmt.Sprintf("catalog %s: missing gtin column", path))
	}
	tnvedIdx, hasTNVED := cols["tnved"]

	c := &CSVCatalog{byGTIN: make(map[string]domain.Product)}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, domain.ConfigError(fmt.Sprintf("read catalog %s: %v", path, err))
	}
	for _, record := range records {
		p := domain.Product{
			Name: strings.TrimSpace(field(record, nameIdx)),
			GTIN: strings.TrimSpace(field(record, gtinIdx)),
		}
		if hasTNVED {
			p.TNVEDCode = strings.TrimSpace(field(record, tnvedIdx))
		}
		if p.Name == "" && p.GTIN == "" {
			continue
		}
		c.products = append(c.products, p)
		// First occurrence wins on duplicate GTINs.
		if _, exists := c.byGTIN[p.GTIN]; !exists {
			c.byGTIN[p.GTIN] = p
		}
	}

	if logger != nil {
		logger.Info("catalog loaded",
			zap.String("path", path),
			zap.Int("products", len(c.products)))
	}
	return c, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// Lookup finds a product by GTIN.
func (c *CSVCatalog) Lookup(gtin string) (domain.Product, error) {
	p, ok := c.byGTIN[strings.TrimSpace(gtin)]
	if !ok {
		return domain.Product{}, ports.ErrProductNotFound
	}
	return p, nil
}

// FindByName finds a product by display name. An exact case-insensitive
// match is preferred; otherwise the first product whose name contains
// the query wins.
func (c *CSVCatalog) FindByName(name string) (domain.Product, error) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return domain.Product{}, ports.ErrProductNotFound
	}
	for _, p := range c.products {
		if strings.ToLower(p.Name) == query {
			return p, nil
		}
	}
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), query) {
			return p, nil
		}
	}
	return domain.Product{}, ports.ErrProductNotFound
}

// All returns every known product.
func (c *CSVCatalog) All() []domain.Product {
	products := make([]domain.Product, len(c.products))
	copy(products, c.products)
	return products
}

// Ensure CSVCatalog implements ports.Catalog
var _ ports.Catalog = (*CSVCatalog)(nil)
