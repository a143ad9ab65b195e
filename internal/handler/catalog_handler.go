package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/carniceria_api/internal/catalog"
	"github.com/GTDGit/carniceria_api/internal/service"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// CatalogHandler serves the public storefront.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListProducts handles GET /v1/catalog/products?category=&search=&sort=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	sort := catalog.Sort(c.Query("sort"))
	if !sort.Valid() {
		utils.Error(c, 400, "INVALID_SORT", "sort must be one of name, price_asc, price_desc")
		return
	}

	view := h.catalogService.Products(catalog.Filter{
		Category: c.Query("category"),
		Query:    c.Query("search"),
		Sort:     sort,
	})

	utils.Success(c, 200, "Products retrieved", view)
}

// ListCategories handles GET /v1/catalog/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	utils.Success(c, 200, "Categories retrieved", gin.H{
		"categories": h.catalogService.Categories(),
	})
}
