package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/carniceria_api/internal/service"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// AdminProductHandler drives the product Store from the admin panel.
type AdminProductHandler struct {
	productService *service.ProductService
}

// NewAdminProductHandler constructs an AdminProductHandler.
func NewAdminProductHandler(productService *service.ProductService) *AdminProductHandler {
	return &AdminProductHandler{productService: productService}
}

// ListProducts handles GET /v1/admin/products?search=&page=&limit=
func (h *AdminProductHandler) ListProducts(c *gin.Context) {
	products := h.productService.List(c.Query("search"))

	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, p := utils.Paginate(products, page, limit)
	utils.SuccessWithPagination(c, 200, "Products retrieved", items, p)
}

// GetState handles GET /v1/admin/state
func (h *AdminProductHandler) GetState(c *gin.Context) {
	st := h.productService.State()
	utils.Success(c, 200, "State retrieved", gin.H{
		"status":   st.Status(),
		"loading":  st.Loading,
		"error":    st.Error,
		"products": len(st.Products),
	})
}

// Refresh handles POST /v1/admin/products/refresh
func (h *AdminProductHandler) Refresh(c *gin.Context) {
	if err := h.productService.Refresh(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to refresh products")
		return
	}
	utils.Success(c, 200, "Products refreshed", h.productService.List(""))
}

// CreateProduct handles POST /v1/admin/products
func (h *AdminProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	p, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Error al agregar el producto")
		return
	}
	utils.Created(c, "Producto agregado", p)
}

// UpdatePrice handles PUT /v1/admin/products/:id/price
// The price is the raw form input, e.g. "18.900".
func (h *AdminProductHandler) UpdatePrice(c *gin.Context) {
	var req struct {
		Price string `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	id := c.Param("id")
	if err := h.productService.SetPrice(c.Request.Context(), id, req.Price); err != nil {
		respondError(c, err, "Error al actualizar el precio")
		return
	}
	h.respondProduct(c, id, "Precio de producto actualizado")
}

// UpdateName handles PUT /v1/admin/products/:id/name
func (h *AdminProductHandler) UpdateName(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	id := c.Param("id")
	if err := h.productService.SetName(c.Request.Context(), id, req.Name); err != nil {
		respondError(c, err, "Error al actualizar el nombre")
		return
	}
	h.respondProduct(c, id, "Nombre actualizado")
}

// UpdateImage handles PUT /v1/admin/products/:id/image
func (h *AdminProductHandler) UpdateImage(c *gin.Context) {
	var req struct {
		Image     string `json:"image"`
		ImageName string `json:"imageName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	id := c.Param("id")
	if err := h.productService.SetImage(c.Request.Context(), id, req.Image, req.ImageName); err != nil {
		respondError(c, err, "Error al actualizar la imagen")
		return
	}
	h.respondProduct(c, id, "Imagen actualizada exitosamente")
}

// ToggleStatus handles POST /v1/admin/products/:id/toggle-status
func (h *AdminProductHandler) ToggleStatus(c *gin.Context) {
	id := c.Param("id")
	if err := h.productService.ToggleStatus(c.Request.Context(), id); err != nil {
		respondError(c, err, "Error al cambiar el estado del producto")
		return
	}
	h.respondProduct(c, id, "Estado actualizado")
}

// ToggleOffer handles POST /v1/admin/products/:id/toggle-offer
func (h *AdminProductHandler) ToggleOffer(c *gin.Context) {
	id := c.Param("id")
	if err := h.productService.ToggleOffer(c.Request.Context(), id); err != nil {
		respondError(c, err, "Error al cambiar la oferta del producto")
		return
	}
	h.respondProduct(c, id, "Oferta actualizada")
}

// DeleteProduct handles DELETE /v1/admin/products/:id
func (h *AdminProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Error al eliminar el producto")
		return
	}
	utils.Success(c, 200, "Producto eliminado", nil)
}

// respondProduct answers with the product as the Store now holds it.
func (h *AdminProductHandler) respondProduct(c *gin.Context, id, message string) {
	p, ok := h.productService.Find(id)
	if !ok {
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
		return
	}
	utils.Success(c, 200, message, p)
}
