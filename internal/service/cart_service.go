package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/carniceria_api/internal/cache"
	"github.com/GTDGit/carniceria_api/internal/cart"
	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/notify"
	"github.com/GTDGit/carniceria_api/internal/store"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// StateSource exposes the current product snapshot.
type StateSource interface {
	State() store.State
}

// Publisher delivers a notification to every sink.
type Publisher interface {
	Publish(n notify.Notification)
}

// CartView is a cart as returned to the storefront.
type CartView struct {
	ID             string            `json:"cartId"`
	Items          []models.CartItem `json:"items"`
	Total          decimal.Decimal   `json:"total"`
	FormattedTotal string            `json:"formattedTotal"`
}

// OrderResult is the composed WhatsApp order.
type OrderResult struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}

// CartService keeps carts by id and composes orders. Writes to one cart are
// serialized within the process; replicas sharing Redis are not coordinated.
type CartService struct {
	carts        cache.CartStore
	locks        cartLocks
	products     StateSource
	notifier     Publisher
	whatsappBase string
}

// NewCartService constructs a CartService.
func NewCartService(carts cache.CartStore, products StateSource, notifier Publisher, whatsappBase string) *CartService {
	return &CartService{carts: carts, products: products, notifier: notifier, whatsappBase: whatsappBase}
}

// Create starts an empty cart.
func (s *CartService) Create(ctx context.Context) (*CartView, error) {
	id, err := utils.GenerateCartID()
	if err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, id, nil); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return view(id, cart.New(nil)), nil
}

// Get returns the cart. An unknown id is an empty cart.
func (s *CartService) Get(ctx context.Context, id string) (*CartView, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(id, c), nil
}

// AddItem adds one step of an active product and publishes one notification
// naming it.
func (s *CartService) AddItem(ctx context.Context, id, productID string) (*CartView, *cart.Outcome, error) {
	p, ok := models.FindProduct(s.products.State().Products, productID)
	if !ok || !p.Active || !p.Valid() {
		return nil, nil, fmt.Errorf("%w: %s", utils.ErrProductNotFound, productID)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	outcome := c.AddItem(p)
	if err := s.carts.Save(ctx, id, c.Items()); err != nil {
		return nil, nil, fmt.Errorf("save cart: %w", err)
	}

	n := notify.Success(outcome.Message)
	n.Action = "CART_ITEM_" + strings.ToUpper(string(outcome.Change))
	n.ProductID = p.ID
	s.notifier.Publish(n)

	return view(id, c), &outcome, nil
}

// SetQuantity sets a line's kilograms; zero or less removes the line.
func (s *CartService) SetQuantity(ctx context.Context, id, productID string, qty float64) (*CartView, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.SetQuantity(productID, qty) {
		if err := s.carts.Save(ctx, id, c.Items()); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
	}
	return view(id, c), nil
}

// RemoveItem drops a line.
func (s *CartService) RemoveItem(ctx context.Context, id, productID string) (*CartView, error) {
	return s.SetQuantity(ctx, id, productID, 0)
}

// Order composes the order message and its WhatsApp link. Opening the link is
// left to the caller.
func (s *CartService) Order(ctx context.Context, id string, info models.CustomerInfo) (*OrderResult, error) {
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrValidation, err)
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Len() == 0 {
		return nil, utils.ErrEmptyCart
	}

	msg := c.ComposeOrderMessage(info)
	log.Info().Str("cart_id", id).Int("items", c.Len()).Str("total", c.Total().StringFixed(2)).Msg("Order composed")

	return &OrderResult{
		Message: msg,
		Link:    cart.WhatsAppLink(s.whatsappBase, msg),
	}, nil
}

func (s *CartService) load(ctx context.Context, id string) (*cart.Cart, error) {
	items, err := s.carts.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart.New(items), nil
}

// cartLocks hands out one mutex per cart id and forgets it once nobody holds
// or waits on it.
type cartLocks struct {
	mu    sync.Mutex
	byKey map[string]*cartLock
}

type cartLock struct {
	sync.Mutex
	refs int
}

func (l *cartLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	if l.byKey == nil {
		l.byKey = make(map[string]*cartLock)
	}
	m, ok := l.byKey[id]
	if !ok {
		m = &cartLock{}
		l.byKey[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.byKey, id)
		}
		l.mu.Unlock()
	}
}

func (l *cartLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

func view(id string, c *cart.Cart) *CartView {
	return &CartView{
		ID:             id,
		Items:          c.Items(),
		Total:          c.Total(),
		FormattedTotal: c.FormattedTotal(),
	}
}
