package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// ProductRepo is what the Store needs from the product repository.
type ProductRepo interface {
	FetchAll(ctx context.Context) ([]models.Product, error)
	UpdateFields(ctx context.Context, id string, patch models.ProductPatch) ([]models.Product, error)
	Mutate(ctx context.Context, id string, fn func(models.Product) models.ProductPatch) ([]models.Product, error)
	DeleteProduct(ctx context.Context, id string) ([]models.Product, error)
	Create(ctx context.Context, draft models.ProductDraft) (models.Product, []models.Product, error)
	UpdateImage(ctx context.Context, id string, image []byte, name string) ([]models.Product, error)
}

// Listener observes every transition. Listeners run in dispatch order and
// must not dispatch themselves.
type Listener func(prev, next State, action Action)

// Store owns the canonical product list. Every successful mutation replaces
// the list with the repository's returned snapshot; nothing is patched
// locally.
type Store struct {
	repo ProductRepo

	mu    sync.RWMutex
	state State

	dispatchMu sync.Mutex
	listeners  map[int]Listener
	nextID     int

	seq     atomic.Uint64
	fetches singleflight.Group
	closed  atomic.Bool
}

// New creates an empty Store.
func New(repo ProductRepo) *Store {
	return &Store{
		repo:      repo,
		state:     State{Products: []models.Product{}},
		listeners: make(map[int]Listener),
	}
}

// State returns a copy of the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Products = models.CloneProducts(st.Products)
	return st
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.dispatchMu.Lock()
		defer s.dispatchMu.Unlock()
		delete(s.listeners, id)
	}
}

// Close stops the store from applying any further result. Actions still in
// flight finish their network calls but their outcome is dropped.
func (s *Store) Close() {
	s.closed.Store(true)
}

// FetchProducts loads the product list. Concurrent calls share one request.
func (s *Store) FetchProducts(ctx context.Context) error {
	if s.closed.Load() {
		return utils.ErrStoreClosed
	}
	_, err, shared := s.fetches.Do("fetch", func() (any, error) {
		seq := s.begin(KindFetch, "")
		products, err := s.repo.FetchAll(ctx)
		if err != nil {
			s.fail(KindFetch, "", seq, err)
			return nil, err
		}
		s.succeed(Action{Kind: KindFetch, Seq: seq, Products: products})
		return nil, nil
	})
	if shared {
		log.Debug().Msg("Product fetch joined an in-flight request")
	}
	return err
}

// ToggleProductStatus flips the active flag of a product.
func (s *Store) ToggleProductStatus(ctx context.Context, id string) error {
	if err := s.requireKnown(KindToggleStatus, id); err != nil {
		return err
	}
	return s.mutate(ctx, KindToggleStatus, id, func(ctx context.Context) ([]models.Product, error) {
		return s.repo.Mutate(ctx, id, func(p models.Product) models.ProductPatch {
			v := !p.Active
			return models.ProductPatch{Active: &v}
		})
	})
}

// ToggleProductOffer flips the offer flag of a product.
func (s *Store) ToggleProductOffer(ctx context.Context, id string) error {
	if err := s.requireKnown(KindToggleOffer, id); err != nil {
		return err
	}
	return s.mutate(ctx, KindToggleOffer, id, func(ctx context.Context) ([]models.Product, error) {
		return s.repo.Mutate(ctx, id, func(p models.Product) models.ProductPatch {
			v := !p.Offer
			return models.ProductPatch{Offer: &v}
		})
	})
}

// UpdateProductPrice sets a product's price.
func (s *Store) UpdateProductPrice(ctx context.Context, id string, price float64) error {
	if err := validPrice(price); err != nil {
		return s.reject(KindUpdatePrice, id, err)
	}
	if err := s.requireKnown(KindUpdatePrice, id); err != nil {
		return err
	}
	return s.mutate(ctx, KindUpdatePrice, id, func(ctx context.Context) ([]models.Product, error) {
		return s.repo.UpdateFields(ctx, id, models.ProductPatch{Price: &price})
	})
}

// UpdateProductPriceInput parses a price typed into a form ("18.900",
// "18.900,00") and sets it.
func (s *Store) UpdateProductPriceInput(ctx context.Context, id, raw string) error {
	price, err := models.ParsePrice(raw)
	if err != nil {
		return s.reject(KindUpdatePrice, id, err)
	}
	return s.UpdateProductPrice(ctx, id, price)
}

// UpdateProductName renames a product.
func (s *Store) UpdateProductName(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.reject(KindUpdateName, id, errors.New("name is required"))
	}
	if err := s.requireKnown(KindUpdateName, id); err != nil {
		return err
	}
	return s.mutate(ctx, KindUpdateName, id, func(ctx context.Context) ([]models.Product, error) {
		return s.repo.UpdateFields(ctx, id, models.ProductPatch{Name: &name})
	})
}

// UpdateProductImage uploads a new image for a product.
func (s *Store) UpdateProductImage(ctx context.Context, id string, image []byte, name string) error {
	if len(image) == 0 {
		return s.reject(KindUpdateImage, id, errors.New("image is required"))
	}
	if err := s.requireKnown(KindUpdateImage, id); err != nil {
		return err
	}
	return s.mutate(ctx, KindUpdateImage, id, func(ctx context.Context) ([]models.Product, error) {
		return s.repo.UpdateImage(ctx, id, image, name)
	})
}

// DeleteProduct removes a product.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.mutate(ctx, KindDelete, id, func(ctx context.Context) ([]models.Product, error) {
		return s.repo.DeleteProduct(ctx, id)
	})
}

// AddProduct creates a product and returns it.
func (s *Store) AddProduct(ctx context.Context, draft models.ProductDraft) (*models.Product, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Category = strings.TrimSpace(draft.Category)
	switch {
	case draft.Name == "":
		return nil, s.reject(KindAdd, "", errors.New("name is required"))
	case draft.Category == "":
		return nil, s.reject(KindAdd, "", errors.New("category is required"))
	}
	if err := validPrice(draft.Price); err != nil {
		return nil, s.reject(KindAdd, "", err)
	}

	if s.closed.Load() {
		return nil, utils.ErrStoreClosed
	}
	seq := s.begin(KindAdd, "")
	created, products, err := s.repo.Create(ctx, draft)
	if err != nil {
		s.fail(KindAdd, "", seq, err)
		return nil, err
	}
	s.succeed(Action{Kind: KindAdd, Seq: seq, ProductID: created.ID, Products: products, Product: &created})
	return &created, nil
}

func (s *Store) mutate(ctx context.Context, kind Kind, id string, call func(context.Context) ([]models.Product, error)) error {
	if s.closed.Load() {
		return utils.ErrStoreClosed
	}
	seq := s.begin(kind, id)
	products, err := call(ctx)
	if err != nil {
		s.fail(kind, id, seq, err)
		return err
	}
	s.succeed(Action{Kind: kind, Seq: seq, ProductID: id, Products: products})
	return nil
}

func (s *Store) requireKnown(kind Kind, id string) error {
	s.mu.RLock()
	_, ok := models.FindProduct(s.state.Products, id)
	s.mu.RUnlock()
	if !ok {
		s.dispatch(Action{Kind: kind, Phase: PhaseRejected, ProductID: id, Err: "product not found"})
		return fmt.Errorf("%w: %s", utils.ErrProductNotFound, id)
	}
	return nil
}

func (s *Store) begin(kind Kind, id string) uint64 {
	seq := s.seq.Add(1)
	s.dispatch(Action{Kind: kind, Phase: PhaseStart, Seq: seq, ProductID: id})
	return seq
}

func (s *Store) succeed(a Action) {
	a.Phase = PhaseSuccess
	a.Done = s.seq.Add(1)
	s.dispatch(a)
}

func (s *Store) fail(kind Kind, id string, seq uint64, err error) {
	log.Error().Err(err).Str("action", string(kind)).Str("product_id", id).Msg("Product action failed")
	s.dispatch(Action{Kind: kind, Phase: PhaseFailure, Seq: seq, ProductID: id, Err: err.Error()})
}

func (s *Store) reject(kind Kind, id string, err error) error {
	s.dispatch(Action{Kind: kind, Phase: PhaseRejected, ProductID: id, Err: err.Error()})
	return fmt.Errorf("%w: %w", utils.ErrValidation, err)
}

// dispatch applies a through Reduce and notifies listeners. After Close the
// action is dropped.
func (s *Store) dispatch(a Action) {
	if s.closed.Load() {
		log.Debug().Str("action", a.Type()).Msg("Store closed, dropping action")
		return
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	s.state = next
	s.mu.Unlock()

	log.Debug().Str("action", a.Type()).Str("product_id", a.ProductID).Bool("loading", next.Loading).Msg("Store transition")

	for _, l := range s.listeners {
		l(prev, next, a)
	}
}

func validPrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return fmt.Errorf("%w: must be a positive number", models.ErrInvalidPrice)
	}
	return nil
}
