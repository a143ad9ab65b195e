package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// ProductRepository turns product intents into read-modify-write cycles
// against the document store. It never caches: every call fetches the whole
// document first.
//
// Mutations are serialized by default so that one mutation's GET only happens
// after the previous mutation's PUT. The document store itself gives no such
// guarantee across processes.
type ProductRepository struct {
	store     DocumentStore
	images    ImageUploader
	serialize bool
	timeout   time.Duration
	newID     func() string

	writeMu sync.Mutex
}

// Option configures a ProductRepository.
type Option func(*ProductRepository)

// WithoutWriteQueue lets mutations interleave freely, which reproduces the
// lost-update race of the bare document store.
func WithoutWriteQueue() Option {
	return func(r *ProductRepository) { r.serialize = false }
}

// WithTimeout bounds every operation.
func WithTimeout(d time.Duration) Option {
	return func(r *ProductRepository) { r.timeout = d }
}

// WithIDGenerator overrides the id generator used by CreateProduct.
func WithIDGenerator(fn func() string) Option {
	return func(r *ProductRepository) { r.newID = fn }
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(store DocumentStore, images ImageUploader, opts ...Option) *ProductRepository {
	r := &ProductRepository{
		store:     store,
		images:    images,
		serialize: true,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchAll returns the normalized product list. Errors are propagated; the
// caller decides what to keep on failure.
func (r *ProductRepository) FetchAll(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.fetch(ctx)
}

// UpdateFields merges patch into the product with the given id and writes the
// whole list back. An unknown id leaves the document untouched and returns
// utils.ErrProductNotFound.
func (r *ProductRepository) UpdateFields(ctx context.Context, id string, patch models.ProductPatch) ([]models.Product, error) {
	return r.Mutate(ctx, id, func(models.Product) models.ProductPatch { return patch })
}

// Mutate is UpdateFields with the patch computed from the freshly fetched
// product, so toggles flip the stored value rather than a stale local copy.
func (r *ProductRepository) Mutate(ctx context.Context, id string, fn func(models.Product) models.ProductPatch) ([]models.Product, error) {
	return r.write(ctx, "update", func(products []models.Product) ([]models.Product, bool, error) {
		for i, p := range products {
			if p.ID != id {
				continue
			}
			patch := fn(p)
			if patch.Empty() {
				return products, false, nil
			}
			products[i] = patch.Apply(p)
			return products, true, nil
		}
		log.Warn().Str("product_id", id).Msg("Update for unknown product rejected")
		return nil, false, fmt.Errorf("%w: %s", utils.ErrProductNotFound, id)
	})
}

// DeleteProduct removes the product with the given id. Deleting an unknown id
// is not an error.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) ([]models.Product, error) {
	return r.write(ctx, "delete", func(products []models.Product) ([]models.Product, bool, error) {
		out := make([]models.Product, 0, len(products))
		for _, p := range products {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out, len(out) != len(products), nil
	})
}

// CreateProduct uploads the draft image, appends a new product and writes the
// list back. A failed upload leaves the image empty.
func (r *ProductRepository) CreateProduct(ctx context.Context, draft models.ProductDraft) (*models.Product, error) {
	product, _, err := r.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create is CreateProduct that also returns the list as written.
func (r *ProductRepository) Create(ctx context.Context, draft models.ProductDraft) (models.Product, []models.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	image := draft.ImageURL
	if len(draft.Image) > 0 && r.images != nil {
		image = r.images.Upload(ctx, draft.Image, draft.ImageName)
	}

	product := models.Product{
		ID:          r.newID(),
		Name:        draft.Name,
		Price:       draft.Price,
		Category:    draft.Category,
		Description: draft.Description,
		Image:       image,
		Active:      true,
		Offer:       draft.Offer,
	}

	products, err := r.writeLocked(ctx, "create", func(products []models.Product) ([]models.Product, bool, error) {
		return append(products, product), true, nil
	})
	if err != nil {
		return models.Product{}, nil, err
	}
	return product, products, nil
}

// UpdateImage uploads a new image and stores its URL on the product.
func (r *ProductRepository) UpdateImage(ctx context.Context, id string, image []byte, name string) ([]models.Product, error) {
	if r.images == nil {
		return nil, fmt.Errorf("%w: no image host configured", utils.ErrImageUpload)
	}
	url := r.images.Upload(ctx, image, name)
	if url == "" {
		return nil, utils.ErrImageUpload
	}
	return r.UpdateFields(ctx, id, models.ProductPatch{Image: &url})
}

// write runs one read-modify-write cycle. fn reports whether it changed
// anything; unchanged lists are not written back.
func (r *ProductRepository) write(ctx context.Context, op string, fn func([]models.Product) ([]models.Product, bool, error)) ([]models.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.writeLocked(ctx, op, fn)
}

func (r *ProductRepository) writeLocked(ctx context.Context, op string, fn func([]models.Product) ([]models.Product, bool, error)) ([]models.Product, error) {
	if r.serialize {
		r.writeMu.Lock()
		defer r.writeMu.Unlock()
	}

	current, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	next, changed, err := fn(current)
	if err != nil {
		return nil, err
	}
	if !changed {
		return next, nil
	}

	if err := r.put(ctx, next); err != nil {
		return nil, err
	}
	log.Debug().Str("op", op).Int("products", len(next)).Msg("Product document written")
	return next, nil
}

func (r *ProductRepository) fetch(ctx context.Context) ([]models.Product, error) {
	body, err := r.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch products: %w", utils.ErrTransport, err)
	}

	records, shape, err := models.UnwrapRecords(body)
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(body)).Msg("Product document has an unexpected shape")
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	if shape == models.ShapeNestedRecord {
		log.Warn().Str("shape", string(shape)).Msg("Product document is double-wrapped")
	}

	return models.NormalizeAll(records), nil
}

func (r *ProductRepository) put(ctx context.Context, products []models.Product) error {
	body, err := models.MarshalDocument(products)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	if err := r.store.Put(ctx, body); err != nil {
		return fmt.Errorf("%w: write products: %w", utils.ErrTransport, err)
	}
	return nil
}

func (r *ProductRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// IsTransport reports whether err came from the document store transport.
func IsTransport(err error) bool {
	return errors.Is(err, utils.ErrTransport)
}
