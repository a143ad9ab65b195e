package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/repository"
	"github.com/GTDGit/carniceria_api/internal/store"
)

const seed = `{"record":[
	{"id":"1","name":"Lomo","price":"18.900","category":"Vacuno"},
	{"id":"2","name":"Pechuga","price":6500,"category":"Pollo","active":false}
]}`

type memorySink struct {
	mu   sync.Mutex
	sent []Notification
}

func (s *memorySink) Send(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
}

func (s *memorySink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, n := range s.sent {
		out[i] = n.Message
	}
	return out
}

type failingDocs struct{ *repository.MemoryDocumentStore }

func (failingDocs) Put(context.Context, []byte) error { return errors.New("503") }

func setup(t *testing.T, window time.Duration) (*store.Store, *memorySink) {
	t.Helper()
	docs := repository.NewMemoryDocumentStore([]byte(seed))
	s := store.New(repository.NewProductRepository(docs, nil))
	require.NoError(t, s.FetchProducts(context.Background()))

	sink := &memorySink{}
	NewNotifier(NewMemoryDeduper(), window, sink).Attach(s)
	return s, sink
}

func TestOneNotificationPerMutation(t *testing.T) {
	s, sink := setup(t, 0)
	ctx := context.Background()

	require.NoError(t, s.ToggleProductStatus(ctx, "2"))
	require.NoError(t, s.UpdateProductPrice(ctx, "1", 9990))
	require.NoError(t, s.UpdateProductName(ctx, "1", "Lomo premium"))
	require.NoError(t, s.DeleteProduct(ctx, "2"))

	assert.Equal(t, []string{
		"Producto Pechuga activado",
		"Precio de producto actualizado",
		"Nombre actualizado",
		"Producto eliminado",
	}, sink.messages())
}

func TestFetchSuccessIsSilent(t *testing.T) {
	s, sink := setup(t, 0)
	require.NoError(t, s.FetchProducts(context.Background()))
	assert.Empty(t, sink.messages())
}

func TestRepeatedInvocationNotifiesOnce(t *testing.T) {
	s, sink := setup(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.ToggleProductOffer(ctx, "1"))
	}
	require.Len(t, sink.messages(), 1)
	assert.Equal(t, "Producto Lomo en oferta", sink.messages()[0])

	require.NoError(t, s.ToggleProductOffer(ctx, "2"))
	assert.Len(t, sink.messages(), 2, "another product has its own key")
}

func TestFailureNotifiesError(t *testing.T) {
	docs := repository.NewMemoryDocumentStore([]byte(seed))
	s := store.New(repository.NewProductRepository(failingDocs{docs}, nil))
	require.NoError(t, s.FetchProducts(context.Background()))

	sink := &memorySink{}
	NewNotifier(nil, 0, sink).Attach(s)

	require.Error(t, s.DeleteProduct(context.Background(), "1"))
	require.Len(t, sink.sent, 1)
	assert.Equal(t, LevelError, sink.sent[0].Level)
	assert.Equal(t, "Error al eliminar el producto", sink.sent[0].Message)
	assert.Equal(t, "DELETE_PRODUCT_FAILURE", sink.sent[0].Action)
	assert.Equal(t, "1", sink.sent[0].ProductID)
}

func TestValidationNotifies(t *testing.T) {
	s, sink := setup(t, 0)

	require.Error(t, s.UpdateProductPriceInput(context.Background(), "1", "abc"))
	require.Len(t, sink.sent, 1)
	assert.Equal(t, LevelError, sink.sent[0].Level)
	assert.Equal(t, "VALIDATION_FAILED", sink.sent[0].Action)
}

func TestRejectionDoesNotHideFollowingSuccess(t *testing.T) {
	s, sink := setup(t, time.Minute)
	ctx := context.Background()

	require.Error(t, s.UpdateProductPriceInput(ctx, "1", "abc"))
	require.NoError(t, s.UpdateProductPriceInput(ctx, "1", "18.900"))

	require.Len(t, sink.sent, 2)
	assert.Equal(t, LevelError, sink.sent[0].Level)
	assert.Equal(t, "UPDATE_PRODUCT_PRICE_SUCCESS", sink.sent[1].Action)
	assert.Equal(t, "Precio de producto actualizado", sink.sent[1].Message)
}

func TestFailureDoesNotHideFollowingSuccess(t *testing.T) {
	docs := repository.NewMemoryDocumentStore([]byte(seed))
	s := store.New(repository.NewProductRepository(docs, nil))
	require.NoError(t, s.FetchProducts(context.Background()))
	sink := &memorySink{}
	NewNotifier(NewMemoryDeduper(), time.Minute, sink).Attach(s)
	ctx := context.Background()

	// product 1 disappears upstream, then comes back under the same id
	_, err := repository.NewProductRepository(docs, nil).DeleteProduct(ctx, "1")
	require.NoError(t, err)
	require.Error(t, s.ToggleProductOffer(ctx, "1"))

	require.NoError(t, docs.Put(ctx, []byte(seed)))
	require.NoError(t, s.ToggleProductOffer(ctx, "1"))

	require.Len(t, sink.sent, 2)
	assert.Equal(t, "TOGGLE_PRODUCT_OFFER_FAILURE", sink.sent[0].Action)
	assert.Equal(t, "TOGGLE_PRODUCT_OFFER_SUCCESS", sink.sent[1].Action)
}

func TestAddProductNamesProduct(t *testing.T) {
	s, sink := setup(t, 0)

	_, err := s.AddProduct(context.Background(), models.ProductDraft{Name: "Matambre", Price: 12000, Category: "Vacuno"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Producto Matambre agregado"}, sink.messages())
}

func TestPublishSkipsDedup(t *testing.T) {
	sink := &memorySink{}
	n := NewNotifier(NewMemoryDeduper(), time.Minute, sink)

	n.Publish(Info("uno"))
	n.Publish(Info("uno"))
	assert.Len(t, sink.messages(), 2)
}

func TestMemoryDeduperWindow(t *testing.T) {
	d := NewMemoryDeduper()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := d.Allow(ctx, "k", 2*time.Second)
	assert.True(t, ok)
	ok, _ = d.Allow(ctx, "k", 2*time.Second)
	assert.False(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = d.Allow(ctx, "k", 2*time.Second)
	assert.True(t, ok)
}

type brokenDeduper struct{}

func (brokenDeduper) Allow(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestDedupErrorStillNotifies(t *testing.T) {
	docs := repository.NewMemoryDocumentStore([]byte(seed))
	s := store.New(repository.NewProductRepository(docs, nil))
	require.NoError(t, s.FetchProducts(context.Background()))

	sink := &memorySink{}
	NewNotifier(brokenDeduper{}, time.Minute, sink).Attach(s)

	require.NoError(t, s.UpdateProductPrice(context.Background(), "1", 100))
	assert.Len(t, sink.messages(), 1)
}
