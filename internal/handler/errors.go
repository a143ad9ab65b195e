package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// respondError maps a service error onto the standard error envelope.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, utils.ErrValidation):
		utils.Error(c, 400, "VALIDATION_ERROR", validationMessage(err))
	case errors.Is(err, utils.ErrEmptyCart):
		utils.Error(c, 400, "EMPTY_CART", "Cart is empty")
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, utils.ErrImageUpload):
		utils.Error(c, 502, "IMAGE_UPLOAD_FAILED", "Image upload failed")
	case errors.Is(err, utils.ErrTransport):
		utils.Error(c, 502, "DOCUMENT_STORE_UNAVAILABLE", "Product document store unavailable")
	case errors.Is(err, models.ErrUnexpectedShape):
		utils.Error(c, 502, "DOCUMENT_SHAPE_ERROR", "Product document has an unexpected shape")
	case errors.Is(err, utils.ErrStoreClosed):
		utils.Error(c, 503, "SHUTTING_DOWN", "Service is shutting down")
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
		utils.Error(c, 500, "INTERNAL_ERROR", fallback)
	}
}

// validationMessage strips the sentinel prefix from a wrapped validation error.
func validationMessage(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, utils.ErrValidation.Error()+": "); ok {
		return rest
	}
	return msg
}
