package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/service"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// CartHandler handles the shopping cart endpoints.
type CartHandler struct {
	cartService *service.CartService
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// CreateCart handles POST /v1/cart
func (h *CartHandler) CreateCart(c *gin.Context) {
	v, err := h.cartService.Create(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to create cart")
		return
	}
	utils.Created(c, "Cart created", v)
}

// GetCart handles GET /v1/cart/:cartId
func (h *CartHandler) GetCart(c *gin.Context) {
	v, err := h.cartService.Get(c.Request.Context(), c.Param("cartId"))
	if err != nil {
		respondError(c, err, "Failed to load cart")
		return
	}
	utils.Success(c, 200, "Cart retrieved", v)
}

// AddItem handles POST /v1/cart/:cartId/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "productId is required")
		return
	}

	v, outcome, err := h.cartService.AddItem(c.Request.Context(), c.Param("cartId"), req.ProductID)
	if err != nil {
		respondError(c, err, "Failed to add item")
		return
	}
	utils.Success(c, 200, outcome.Message, gin.H{
		"cart":    v,
		"outcome": outcome,
	})
}

// UpdateQuantity handles PUT /v1/cart/:cartId/items/:id
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req struct {
		Quantity *float64 `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "quantity is required")
		return
	}

	v, err := h.cartService.SetQuantity(c.Request.Context(), c.Param("cartId"), c.Param("id"), *req.Quantity)
	if err != nil {
		respondError(c, err, "Failed to update quantity")
		return
	}
	utils.Success(c, 200, "Cart updated", v)
}

// RemoveItem handles DELETE /v1/cart/:cartId/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	v, err := h.cartService.RemoveItem(c.Request.Context(), c.Param("cartId"), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to remove item")
		return
	}
	utils.Success(c, 200, "Item removed", v)
}

// PlaceOrder handles POST /v1/cart/:cartId/order
func (h *CartHandler) PlaceOrder(c *gin.Context) {
	var req models.CustomerInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	res, err := h.cartService.Order(c.Request.Context(), c.Param("cartId"), req)
	if err != nil {
		respondError(c, err, "Failed to compose order")
		return
	}
	utils.Success(c, 200, "Order composed", res)
}
