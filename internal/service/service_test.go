package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/carniceria_api/internal/cache"
	"github.com/GTDGit/carniceria_api/internal/catalog"
	"github.com/GTDGit/carniceria_api/internal/config"
	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/notify"
	"github.com/GTDGit/carniceria_api/internal/repository"
	"github.com/GTDGit/carniceria_api/internal/store"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

const seed = `{"record":[
	{"id":"1","name":"Lomo","price":"18.900","category":"Vacuno"},
	{"id":"2","name":"Pechuga","price":6500,"category":"Pollo","active":false},
	{"id":"3","name":"Chorizo","price":"5.200","category":"Embutidos","offer":true}
]}`

type captured struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (c *captured) Publish(n notify.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
}

type fakeUploader struct{ url string }

func (f fakeUploader) Upload(_ context.Context, image []byte, _ string) string {
	if len(image) == 0 {
		return ""
	}
	return f.url
}

func loadedStore(t *testing.T) *store.Store {
	t.Helper()
	docs := repository.NewMemoryDocumentStore([]byte(seed))
	s := store.New(repository.NewProductRepository(docs, fakeUploader{url: "https://img.example/x.png"}))
	require.NoError(t, s.FetchProducts(context.Background()))
	return s
}

func TestAuthService(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService(&config.AdminConfig{Username: "admin", PasswordHash: string(hash)}, cache.NewMemorySessions())
	ctx := context.Background()

	_, err = svc.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, utils.ErrInvalidCredential)
	_, err = svc.Login(ctx, "root", "secreto")
	assert.ErrorIs(t, err, utils.ErrInvalidCredential)

	id, err := svc.Login(ctx, "admin", "secreto")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "sess_"))
	assert.NoError(t, svc.Authenticate(ctx, id))

	require.NoError(t, svc.Logout(ctx, id))
	assert.ErrorIs(t, svc.Authenticate(ctx, id), utils.ErrInvalidSession)
	assert.ErrorIs(t, svc.Authenticate(ctx, ""), utils.ErrInvalidSession)
}

func TestHashPasswordVerifies(t *testing.T) {
	hash, err := HashPassword("clave")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("clave")))
}

func TestCartServiceFlow(t *testing.T) {
	pub := &captured{}
	svc := NewCartService(cache.NewMemoryCarts(), loadedStore(t), pub, "https://wa.me/91173680952")
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)
	id := created.ID
	assert.Empty(t, created.Items)

	_, outcome, err := svc.AddItem(ctx, id, "1")
	require.NoError(t, err)
	assert.Equal(t, "added", string(outcome.Change))

	v, outcome, err := svc.AddItem(ctx, id, "1")
	require.NoError(t, err)
	assert.Equal(t, "incremented", string(outcome.Change))
	require.Len(t, v.Items, 1)
	assert.Equal(t, 1.5, v.Items[0].Quantity)
	assert.Equal(t, "28.350,00", v.FormattedTotal)

	require.Len(t, pub.sent, 2, "one notification per AddItem")
	assert.Contains(t, pub.sent[1].Message, "Lomo")
	assert.Equal(t, "CART_ITEM_INCREMENTED", pub.sent[1].Action)

	v, err = svc.SetQuantity(ctx, id, "1", -2)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

// slowCarts widens the gap between load and save.
type slowCarts struct{ cache.CartStore }

func (s slowCarts) Load(ctx context.Context, id string) ([]models.CartItem, error) {
	items, err := s.CartStore.Load(ctx, id)
	time.Sleep(time.Millisecond)
	return items, err
}

func TestCartServiceConcurrentAddsKeepEveryIncrement(t *testing.T) {
	svc := NewCartService(slowCarts{cache.NewMemoryCarts()}, loadedStore(t), &captured{}, "https://wa.me/1")
	ctx := context.Background()

	const adds = 20
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.AddItem(ctx, "shared", "1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := svc.Get(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 1+0.5*(adds-1), v.Items[0].Quantity)
	assert.Zero(t, svc.locks.held())
}

func TestCartServiceRejectsInactiveProduct(t *testing.T) {
	svc := NewCartService(cache.NewMemoryCarts(), loadedStore(t), &captured{}, "https://wa.me/1")

	_, _, err := svc.AddItem(context.Background(), "c", "2")
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
	_, _, err = svc.AddItem(context.Background(), "c", "missing")
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
}

func TestCartServiceOrder(t *testing.T) {
	svc := NewCartService(cache.NewMemoryCarts(), loadedStore(t), &captured{}, "https://wa.me/91173680952")
	ctx := context.Background()
	info := models.CustomerInfo{Name: "Ana", Location: "Centro", PaymentMethod: models.PaymentCash}

	_, err := svc.Order(ctx, "c", info)
	assert.ErrorIs(t, err, utils.ErrEmptyCart)

	_, _, err = svc.AddItem(ctx, "c", "3")
	require.NoError(t, err)

	_, err = svc.Order(ctx, "c", models.CustomerInfo{Name: "Ana", PaymentMethod: models.PaymentCash})
	assert.ErrorIs(t, err, utils.ErrValidation)

	res, err := svc.Order(ctx, "c", info)
	require.NoError(t, err)
	assert.Contains(t, res.Message, "- Chorizo: 1kg x $5.200,00 = $5.200,00")
	assert.Contains(t, res.Message, "*Método de Pago:* Efectivo")
	assert.True(t, strings.HasPrefix(res.Link, "https://wa.me/91173680952?text=%2ANuevo%20Pedido%2A"))
}

func TestCatalogServiceHidesInactive(t *testing.T) {
	svc := NewCatalogService(loadedStore(t))

	v := svc.Products(catalog.Filter{IncludeInactive: true})
	assert.Equal(t, catalog.StatusReady, v.Status)
	assert.Equal(t, 2, v.Total)

	v = svc.Products(catalog.Filter{Category: catalog.Offers})
	require.Len(t, v.Products, 1)
	assert.Equal(t, "Chorizo", v.Products[0].Name)
}

func TestProductServiceCreate(t *testing.T) {
	svc := NewProductService(loadedStore(t))
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductRequest{
		Name:       "Matambre",
		PriceInput: "12.000",
		Category:   "Vacuno",
		Image:      "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png")),
	})
	require.NoError(t, err)
	assert.Equal(t, 12000.0, p.Price)
	assert.Equal(t, "https://img.example/x.png", p.Image)
	assert.Len(t, svc.List(""), 4)

	_, err = svc.Create(ctx, CreateProductRequest{Name: "x", Category: "y", PriceInput: "abc"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.Create(ctx, CreateProductRequest{Name: "x", Category: "y", Price: 1, Image: "%%%"})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestProductServiceMutations(t *testing.T) {
	svc := NewProductService(loadedStore(t))
	ctx := context.Background()

	require.NoError(t, svc.SetPrice(ctx, "1", "20.500"))
	require.NoError(t, svc.SetName(ctx, "1", "Lomo especial"))
	require.NoError(t, svc.ToggleOffer(ctx, "1"))
	require.NoError(t, svc.ToggleStatus(ctx, "2"))
	require.NoError(t, svc.SetImage(ctx, "1", base64.StdEncoding.EncodeToString([]byte("jpg")), "lomo.jpg"))

	p, ok := svc.Find("1")
	require.True(t, ok)
	assert.Equal(t, 20500.0, p.Price)
	assert.Equal(t, "Lomo especial", p.Name)
	assert.True(t, p.Offer)
	assert.Equal(t, "https://img.example/x.png", p.Image)

	p, _ = svc.Find("2")
	assert.True(t, p.Active)

	require.NoError(t, svc.Delete(ctx, "3"))
	assert.Len(t, svc.List(""), 2)
	assert.Len(t, svc.List("lomo"), 1)
}

type fakeCounter struct {
	n   int64
	err error
}

func (f fakeCounter) Pageviews(context.Context) (int64, error) { return f.n, f.err }

func TestAnalyticsService(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, PageviewStats{Available: true, Pageviews: 42}, NewAnalyticsService(fakeCounter{n: 42}).Pageviews(ctx))
	assert.Equal(t, PageviewStats{}, NewAnalyticsService(fakeCounter{err: errors.New("401")}).Pageviews(ctx))
	assert.Equal(t, PageviewStats{}, NewAnalyticsService(nil).Pageviews(ctx))
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3ServiceUpload(t *testing.T) {
	putter := &fakePutter{}
	svc := newS3Service(putter, &config.S3Config{Bucket: "carniceria", Region: "sa-east-1"})

	png := []byte("\x89PNG\r\n\x1a\n0000")
	url := svc.Upload(context.Background(), png, "")
	require.NotEmpty(t, url)
	assert.True(t, strings.HasPrefix(url, "https://carniceria.s3.sa-east-1.amazonaws.com/products/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	assert.Equal(t, "image/png", *putter.input.ContentType)
	assert.Equal(t, png, putter.body)

	t.Run("PublicBaseURL", func(t *testing.T) {
		svc := newS3Service(&fakePutter{}, &config.S3Config{Bucket: "b", PublicBaseURL: "https://cdn.example/"})
		url := svc.Upload(context.Background(), []byte("jpeg"), "lomo.JPG")
		assert.True(t, strings.HasPrefix(url, "https://cdn.example/products/"))
		assert.True(t, strings.HasSuffix(url, ".jpg"))
	})

	t.Run("FailureYieldsEmpty", func(t *testing.T) {
		svc := newS3Service(&fakePutter{err: errors.New("denied")}, &config.S3Config{Bucket: "b"})
		assert.Empty(t, svc.Upload(context.Background(), []byte("jpeg"), "x.jpg"))
		assert.Empty(t, svc.Upload(context.Background(), nil, "x.jpg"))
	})
}

func TestSyncService(t *testing.T) {
	docs := repository.NewMemoryDocumentStore([]byte(seed))
	s := store.New(repository.NewProductRepository(docs, nil))

	require.NoError(t, NewSyncService(s).SyncProducts(context.Background()))
	assert.Len(t, s.State().Products, 3)
}
