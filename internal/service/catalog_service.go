package service

import (
	"github.com/GTDGit/carniceria_api/internal/catalog"
)

// CatalogService serves the storefront projection of the Store.
type CatalogService struct {
	products StateSource
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(products StateSource) *CatalogService {
	return &CatalogService{products: products}
}

// Products returns the filtered catalog view. Inactive products are never
// shown to shoppers.
func (s *CatalogService) Products(f catalog.Filter) catalog.View {
	f.IncludeInactive = false
	return catalog.Derive(s.products.State(), f)
}

// Categories returns the sidebar categories.
func (s *CatalogService) Categories() []string {
	return catalog.Categories()
}
