package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/GTDGit/carniceria_api/internal/catalog"
	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/store"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// CreateProductRequest is the admin form for a new product.
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	PriceInput  string  `json:"priceInput"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Offer       bool    `json:"offer"`
	Image       string  `json:"image"` // base64, optionally a data URL
	ImageName   string  `json:"imageName"`
	ImageURL    string  `json:"imageUrl"`
}

// ProductService drives Store actions for the admin panel.
type ProductService struct {
	store *store.Store
}

// NewProductService constructs a ProductService.
func NewProductService(s *store.Store) *ProductService {
	return &ProductService{store: s}
}

// State returns the Store snapshot.
func (s *ProductService) State() store.State {
	return s.store.State()
}

// List returns every product, inactive ones included, searched by name.
func (s *ProductService) List(query string) []models.Product {
	return catalog.AdminList(s.store.State().Products, query)
}

// Refresh re-fetches the product document.
func (s *ProductService) Refresh(ctx context.Context) error {
	return s.store.FetchProducts(ctx)
}

// Create validates the form and adds the product.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	price := req.Price
	if strings.TrimSpace(req.PriceInput) != "" {
		parsed, err := models.ParsePrice(req.PriceInput)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", utils.ErrValidation, err)
		}
		price = parsed
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		return nil, err
	}

	return s.store.AddProduct(ctx, models.ProductDraft{
		Name:        req.Name,
		Price:       price,
		Category:    req.Category,
		Description: req.Description,
		Offer:       req.Offer,
		Image:       image,
		ImageName:   req.ImageName,
		ImageURL:    req.ImageURL,
	})
}

// SetPrice parses raw form input such as "18.900" and updates the price.
func (s *ProductService) SetPrice(ctx context.Context, id, raw string) error {
	return s.store.UpdateProductPriceInput(ctx, id, raw)
}

// SetName renames a product.
func (s *ProductService) SetName(ctx context.Context, id, name string) error {
	return s.store.UpdateProductName(ctx, id, name)
}

// SetImage decodes a base64 image and uploads it for the product.
func (s *ProductService) SetImage(ctx context.Context, id, encoded, name string) error {
	image, err := decodeImage(encoded)
	if err != nil {
		return err
	}
	return s.store.UpdateProductImage(ctx, id, image, name)
}

// ToggleStatus flips whether the product is shown in the catalog.
func (s *ProductService) ToggleStatus(ctx context.Context, id string) error {
	return s.store.ToggleProductStatus(ctx, id)
}

// ToggleOffer flips whether the product is listed under Ofertas.
func (s *ProductService) ToggleOffer(ctx context.Context, id string) error {
	return s.store.ToggleProductOffer(ctx, id)
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteProduct(ctx, id)
}

// Find returns the product with id from the current snapshot.
func (s *ProductService) Find(id string) (models.Product, bool) {
	return models.FindProduct(s.store.State().Products, id)
}

// decodeImage accepts plain base64 or a data URL. Empty input is no image.
func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if strings.HasPrefix(encoded, "data:") {
		_, after, ok := strings.Cut(encoded, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed data URL", utils.ErrValidation)
		}
		encoded = after
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: image is not valid base64", utils.ErrValidation)
	}
	return data, nil
}
