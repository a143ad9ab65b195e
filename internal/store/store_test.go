package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/repository"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

const seed = `{"record":[
	{"id":"1","name":"lomo","price":"18.900","category":"vacuno"},
	{"id":"2","name":"pechuga","price":6500,"category":"pollo","active":false}
]}`

type uploader struct{}

func (uploader) Upload(context.Context, []byte, string) string { return "https://img.example/a.png" }

func newStore(t *testing.T) (*Store, *repository.MemoryDocumentStore) {
	t.Helper()
	docs := repository.NewMemoryDocumentStore([]byte(seed))
	repo := repository.NewProductRepository(docs, uploader{}, repository.WithIDGenerator(func() string { return "new" }))
	return New(repo), docs
}

func loaded(t *testing.T) (*Store, *repository.MemoryDocumentStore) {
	t.Helper()
	s, docs := newStore(t)
	require.NoError(t, s.FetchProducts(context.Background()))
	return s, docs
}

type recorder struct {
	mu      sync.Mutex
	actions []Action
}

func (r *recorder) listen(_, _ State, a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.Type()
	}
	return out
}

func TestFetchProducts(t *testing.T) {
	s, _ := newStore(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	require.NoError(t, s.FetchProducts(context.Background()))

	st := s.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	require.Len(t, st.Products, 2)
	assert.Equal(t, 18900.0, st.Products[0].Price)
	assert.Equal(t, []string{"FETCH_PRODUCTS_START", "FETCH_PRODUCTS_SUCCESS"}, rec.types())
}

type slowRepo struct {
	ProductRepo
	calls   atomic.Int32
	release chan struct{}
}

func (r *slowRepo) FetchAll(ctx context.Context) ([]models.Product, error) {
	r.calls.Add(1)
	<-r.release
	return r.ProductRepo.FetchAll(ctx)
}

func TestFetchProductsSharesInflightRequest(t *testing.T) {
	docs := repository.NewMemoryDocumentStore([]byte(seed))
	repo := &slowRepo{ProductRepo: repository.NewProductRepository(docs, nil), release: make(chan struct{})}
	s := New(repo)

	started := make(chan struct{})
	var once sync.Once
	s.Subscribe(func(_, _ State, a Action) {
		if a.Phase == PhaseStart {
			once.Do(func() { close(started) })
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.FetchProducts(context.Background()))
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.FetchProducts(context.Background()))
	}()

	close(repo.release)
	wg.Wait()

	assert.Equal(t, int32(1), repo.calls.Load())
	assert.Len(t, s.State().Products, 2)
}

type brokenRepo struct {
	ProductRepo
	err error
}

func (r brokenRepo) FetchAll(context.Context) ([]models.Product, error) { return nil, r.err }

func (r brokenRepo) UpdateFields(context.Context, string, models.ProductPatch) ([]models.Product, error) {
	return nil, r.err
}

func TestFetchFailureKeepsPreviousProducts(t *testing.T) {
	s, _ := loaded(t)
	s.repo = brokenRepo{err: errors.New("network down")}

	err := s.FetchProducts(context.Background())
	require.Error(t, err)

	st := s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "network down", st.Error)
	assert.Len(t, st.Products, 2)
}

func TestToggleProductStatus(t *testing.T) {
	s, _ := loaded(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	require.NoError(t, s.ToggleProductStatus(context.Background(), "2"))

	p, ok := models.FindProduct(s.State().Products, "2")
	require.True(t, ok)
	assert.True(t, p.Active)
	assert.Equal(t, []string{"TOGGLE_PRODUCT_STATUS_START", "TOGGLE_PRODUCT_STATUS_SUCCESS"}, rec.types())
}

func TestToggleProductOfferUnknownID(t *testing.T) {
	s, docs := loaded(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	err := s.ToggleProductOffer(context.Background(), "missing")
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
	assert.Equal(t, []string{"VALIDATION_FAILED"}, rec.types())

	_, puts := docs.Calls()
	assert.Zero(t, puts)
}

func TestUpdateProductPrice(t *testing.T) {
	s, _ := loaded(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateProductPrice(ctx, "1", 9990))
	p, _ := models.FindProduct(s.State().Products, "1")
	assert.Equal(t, 9990.0, p.Price)

	t.Run("RejectsInvalidPrice", func(t *testing.T) {
		for _, price := range []float64{0, -5} {
			err := s.UpdateProductPrice(ctx, "1", price)
			assert.ErrorIs(t, err, utils.ErrValidation)
		}
		p, _ := models.FindProduct(s.State().Products, "1")
		assert.Equal(t, 9990.0, p.Price)
	})

	t.Run("ParsesFormInput", func(t *testing.T) {
		require.NoError(t, s.UpdateProductPriceInput(ctx, "1", "18.900,50"))
		p, _ := models.FindProduct(s.State().Products, "1")
		assert.Equal(t, 18900.5, p.Price)

		err := s.UpdateProductPriceInput(ctx, "1", "abc")
		assert.ErrorIs(t, err, utils.ErrValidation)
	})
}

func TestValidationMakesNoNetworkCall(t *testing.T) {
	s, docs := loaded(t)
	ctx := context.Background()
	getsBefore, putsBefore := docs.Calls()

	assert.ErrorIs(t, s.UpdateProductName(ctx, "1", "   "), utils.ErrValidation)
	assert.ErrorIs(t, s.UpdateProductPrice(ctx, "1", 0), utils.ErrValidation)
	assert.ErrorIs(t, s.UpdateProductImage(ctx, "1", nil, "x"), utils.ErrValidation)
	_, err := s.AddProduct(ctx, models.ProductDraft{Name: "x", Price: 10})
	assert.ErrorIs(t, err, utils.ErrValidation)

	getsAfter, putsAfter := docs.Calls()
	assert.Equal(t, getsBefore, getsAfter)
	assert.Equal(t, putsBefore, putsAfter)
	assert.False(t, s.State().Loading)
}

func TestUpdateProductNameAndImage(t *testing.T) {
	s, _ := loaded(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateProductName(ctx, "1", "  lomo premium "))
	require.NoError(t, s.UpdateProductImage(ctx, "1", []byte("png"), "lomo.png"))

	p, _ := models.FindProduct(s.State().Products, "1")
	assert.Equal(t, "lomo premium", p.Name)
	assert.Equal(t, "https://img.example/a.png", p.Image)
}

func TestDeleteProduct(t *testing.T) {
	s, _ := loaded(t)

	require.NoError(t, s.DeleteProduct(context.Background(), "1"))
	_, found := models.FindProduct(s.State().Products, "1")
	assert.False(t, found)
	assert.Len(t, s.State().Products, 1)
}

func TestAddProduct(t *testing.T) {
	s, _ := loaded(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	created, err := s.AddProduct(context.Background(), models.ProductDraft{
		Name:     "matambre",
		Price:    12000,
		Category: "vacuno",
		Image:    []byte("jpeg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, "https://img.example/a.png", created.Image)

	st := s.State()
	assert.Len(t, st.Products, 3)

	rec.mu.Lock()
	last := rec.actions[len(rec.actions)-1]
	rec.mu.Unlock()
	require.NotNil(t, last.Product)
	assert.Equal(t, "new", last.ProductID)
}

func TestMutationFailureSetsError(t *testing.T) {
	s, _ := loaded(t)
	s.repo = brokenRepo{err: errors.New("503")}

	err := s.UpdateProductPrice(context.Background(), "1", 100)
	require.Error(t, err)

	st := s.State()
	assert.Equal(t, "503", st.Error)
	assert.False(t, st.Loading)
	p, _ := models.FindProduct(st.Products, "1")
	assert.Equal(t, 18900.0, p.Price)
}

func TestUnsubscribe(t *testing.T) {
	s, _ := newStore(t)
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.listen)
	unsubscribe()

	require.NoError(t, s.FetchProducts(context.Background()))
	assert.Empty(t, rec.types())
}

func TestClosedStoreDropsResults(t *testing.T) {
	s, _ := loaded(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)
	s.Close()

	assert.ErrorIs(t, s.FetchProducts(context.Background()), utils.ErrStoreClosed)
	assert.ErrorIs(t, s.DeleteProduct(context.Background(), "1"), utils.ErrStoreClosed)
	assert.Empty(t, rec.types())
	assert.Len(t, s.State().Products, 2)
}

func TestCloseDuringInflightDropsResult(t *testing.T) {
	docs := repository.NewMemoryDocumentStore([]byte(seed))
	repo := &slowRepo{ProductRepo: repository.NewProductRepository(docs, nil), release: make(chan struct{})}
	s := New(repo)

	started := make(chan struct{})
	var once sync.Once
	s.Subscribe(func(_, _ State, a Action) {
		if a.Phase == PhaseStart {
			once.Do(func() { close(started) })
		}
	})

	done := make(chan error)
	go func() { done <- s.FetchProducts(context.Background()) }()
	<-started
	s.Close()
	close(repo.release)
	require.NoError(t, <-done)

	assert.Empty(t, s.State().Products)
}

// gatedDocs holds the first PUT until release is closed.
type gatedDocs struct {
	*repository.MemoryDocumentStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedDocs) Put(ctx context.Context, body []byte) error {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.MemoryDocumentStore.Put(ctx, body)
}

func TestFetchFinishingDuringMutationKeepsMutationResult(t *testing.T) {
	docs := &gatedDocs{
		MemoryDocumentStore: repository.NewMemoryDocumentStore([]byte(seed)),
		entered:             make(chan struct{}),
		release:             make(chan struct{}),
	}
	s := New(repository.NewProductRepository(docs, nil))
	ctx := context.Background()
	require.NoError(t, s.FetchProducts(ctx))

	done := make(chan error)
	go func() { done <- s.ToggleProductStatus(ctx, "2") }()
	<-docs.entered

	// reads the document before the toggle's PUT lands
	require.NoError(t, s.FetchProducts(ctx))
	p, _ := models.FindProduct(s.State().Products, "2")
	assert.False(t, p.Active)

	close(docs.release)
	require.NoError(t, <-done)

	st := s.State()
	assert.False(t, st.Loading)
	p, _ = models.FindProduct(st.Products, "2")
	assert.True(t, p.Active)

	stored, err := repository.NewProductRepository(docs.MemoryDocumentStore, nil).FetchAll(ctx)
	require.NoError(t, err)
	p, _ = models.FindProduct(stored, "2")
	assert.True(t, p.Active)
}

func TestUpdatesForUnknownIDAreRejected(t *testing.T) {
	s, docs := loaded(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)
	ctx := context.Background()

	assert.ErrorIs(t, s.UpdateProductPrice(ctx, "nope", 100), utils.ErrProductNotFound)
	assert.ErrorIs(t, s.UpdateProductPriceInput(ctx, "nope", "18.900"), utils.ErrProductNotFound)
	assert.ErrorIs(t, s.UpdateProductName(ctx, "nope", "x"), utils.ErrProductNotFound)
	assert.ErrorIs(t, s.UpdateProductImage(ctx, "nope", []byte("png"), "x"), utils.ErrProductNotFound)

	assert.Equal(t, []string{"VALIDATION_FAILED", "VALIDATION_FAILED", "VALIDATION_FAILED", "VALIDATION_FAILED"}, rec.types())
	_, puts := docs.Calls()
	assert.Zero(t, puts)
	assert.Len(t, s.State().Products, 2)
}

func TestUpdateForProductDeletedElsewhereFails(t *testing.T) {
	s, docs := loaded(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)
	ctx := context.Background()

	// another client removed product 1 after our last fetch
	_, err := repository.NewProductRepository(docs, nil).DeleteProduct(ctx, "1")
	require.NoError(t, err)

	err = s.UpdateProductPrice(ctx, "1", 100)
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
	assert.Equal(t, []string{"UPDATE_PRODUCT_PRICE_START", "UPDATE_PRODUCT_PRICE_FAILURE"}, rec.types())
	assert.False(t, s.State().Loading)
}
