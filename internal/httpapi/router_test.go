package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	accountapp "github.com/teakspice/cart-backend/internal/account/app"
	accountmem "github.com/teakspice/cart-backend/internal/account/infra/memory"
	cartapp "github.com/teakspice/cart-backend/internal/cart/app"
	cart "github.com/teakspice/cart-backend/internal/cart/domain"
	cartmem "github.com/teakspice/cart-backend/internal/cart/infra/memory"
	catalogapp "github.com/teakspice/cart-backend/internal/catalog/app"
	catalog "github.com/teakspice/cart-backend/internal/catalog/domain"
	catalogmem "github.com/teakspice/cart-backend/internal/catalog/infra/memory"
	order "github.com/teakspice/cart-backend/internal/order/domain"
	orderapp "github.com/teakspice/cart-backend/internal/order/app"
	ordermem "github.com/teakspice/cart-backend/internal/order/infra/memory"
	"github.com/teakspice/cart-backend/pkg/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	products *catalogmem.ProductRepo
	issuer   *token.Issuer
	deps     Deps
}

func newTestServer(t *testing.T, mod func(d *Deps)) *testServer {
	t.Helper()
	products := catalogmem.NewProductRepo()
	orders := ordermem.NewOrderRepo()
	issuer := token.NewIssuer("test-secret", time.Hour)

	d := Deps{
		Cart:     cartapp.NewService(cartmem.NewCartRepo(), products, orders, nil, 4),
		Catalog:  catalogapp.NewService(products),
		Orders:   orderapp.NewService(orders),
		Accounts: accountapp.NewService(accountmem.NewUserRepo(), issuer),
		Tokens:   issuer,
	}
	if mod != nil {
		mod(&d)
	}
	return &testServer{router: NewRouter(d), products: products, issuer: issuer, deps: d}
}

func (s *testServer) login(t *testing.T) (string, string) {
	t.Helper()
	userID := primitive.NewObjectID().Hex()
	tok, err := s.issuer.Issue(userID)
	require.NoError(t, err)
	return userID, tok
}

func (s *testServer) do(t *testing.T, method, path string, body any, tok string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := s.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Message
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestHealthNotReady(t *testing.T) {
	s := newTestServer(t, func(d *Deps) {
		d.Ready = func(context.Context) error { return errors.New("no primary") }
	})

	w := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestIdentity(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("no credentials", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/cart", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized. Login first", message(t, w))
	})

	t.Run("bad token", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/cart", nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token from another secret", func(t *testing.T) {
		tok, err := token.NewIssuer("other", time.Hour).Issue(primitive.NewObjectID().Hex())
		require.NoError(t, err)
		w := s.do(t, http.MethodGet, "/cart", nil, tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("query identity disabled by default", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/cart?userId="+primitive.NewObjectID().Hex(), nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		_, tok := s.login(t)
		w := s.do(t, http.MethodGet, "/cart", nil, tok)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"items":[]}`, w.Body.String())
	})
}

func TestLegacyQueryIdentity(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.AllowQueryIdentity = true })

	w := s.do(t, http.MethodGet, "/cart?userId="+primitive.NewObjectID().Hex(), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/cart?userId=../../etc", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartFlow(t *testing.T) {
	s := newTestServer(t, nil)
	pepper := s.products.Put(catalog.Product{Name: "Pepper", Price: 250, Category: "spices", Stock: 5})
	_, tok := s.login(t)

	w := s.do(t, http.MethodPost, "/cart/add", gin.H{"productId": pepper.ID, "quantity": 3}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	added := decode[struct {
		Message string    `json:"message"`
		Cart    cart.Cart `json:"cart"`
	}](t, w)
	assert.Equal(t, "Cart updated", added.Message)
	assert.Equal(t, []cart.Item{{ProductID: pepper.ID, Quantity: 3}}, added.Cart.Items)

	t.Run("get resolves products", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/cart", nil, tok)
		require.Equal(t, http.StatusOK, w.Code)
		view := decode[cart.View](t, w)
		require.Len(t, view.Items, 1)
		require.NotNil(t, view.Items[0].Product)
		assert.Equal(t, "Pepper", view.Items[0].Product.Name)
	})

	t.Run("add beyond stock", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/cart/add", gin.H{"productId": pepper.ID, "quantity": 3}, tok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Not enough stock for Pepper. Available: 5", message(t, w))
	})

	t.Run("add missing product", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/cart/add", gin.H{"productId": primitive.NewObjectID().Hex()}, tok)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Product not found", message(t, w))
	})

	t.Run("add invalid quantity", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/cart/add", gin.H{"productId": pepper.ID, "quantity": 0}, tok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("add malformed body", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/cart/add", `{"productId":`, tok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid input", message(t, w))
	})

	t.Run("set quantity", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/cart/"+pepper.ID, gin.H{"quantity": 4}, tok)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do(t, http.MethodPut, "/cart/"+pepper.ID, gin.H{}, tok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("checkout", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/cart/checkout", nil, tok)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decode[struct {
			Message string      `json:"message"`
			Order   order.Order `json:"order"`
		}](t, w)
		assert.Equal(t, "Order placed successfully. Stock updated.", got.Message)
		assert.Equal(t, int64(1000), got.Order.Total)
		assert.Equal(t, 1, s.stock(t, pepper.ID))

		w = s.do(t, http.MethodGet, "/cart", nil, tok)
		view := decode[cart.View](t, w)
		assert.Empty(t, view.Items)

		w = s.do(t, http.MethodGet, "/orders", nil, tok)
		require.Equal(t, http.StatusOK, w.Code)
		orders := decode[[]order.Order](t, w)
		require.Len(t, orders, 1)
		assert.Equal(t, got.Order.ID, orders[0].ID)

		w = s.do(t, http.MethodGet, "/orders/"+got.Order.ID, nil, tok)
		assert.Equal(t, http.StatusOK, w.Code)

		_, otherTok := s.login(t)
		w = s.do(t, http.MethodGet, "/orders/"+got.Order.ID, nil, otherTok)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Order not found", message(t, w))
	})

	t.Run("checkout empty cart", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/cart/checkout", nil, tok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Cart is empty", message(t, w))
		assert.Equal(t, 1, s.stock(t, pepper.ID))
	})
}

func TestCheckoutInsufficientStock(t *testing.T) {
	s := newTestServer(t, nil)
	clove := s.products.Put(catalog.Product{Name: "Clove", Price: 100, Stock: 5})
	_, tok := s.login(t)

	w := s.do(t, http.MethodPost, "/cart/add", gin.H{"productId": clove.ID, "quantity": 3}, tok)
	require.Equal(t, http.StatusOK, w.Code)

	clove.Stock = 2
	s.products.Put(clove)

	w = s.do(t, http.MethodPost, "/cart/checkout", nil, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Not enough stock for Clove. Available: 2", message(t, w))
	assert.Equal(t, 2, s.stock(t, clove.ID))

	w = s.do(t, http.MethodGet, "/cart", nil, tok)
	view := decode[cart.View](t, w)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	s := newTestServer(t, nil)
	p := s.products.Put(catalog.Product{Name: "Mace", Stock: 5})
	_, tok := s.login(t)

	w := s.do(t, http.MethodDelete, "/cart/remove/"+p.ID, nil, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Cart not found", message(t, w))

	w = s.do(t, http.MethodPost, "/cart/clear", nil, tok)
	assert.Equal(t, http.StatusOK, w.Code)

	s.do(t, http.MethodPost, "/cart/add", gin.H{"productId": p.ID}, tok)

	w = s.do(t, http.MethodDelete, "/cart/remove/"+primitive.NewObjectID().Hex(), nil, tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Item removed from cart", message(t, w))

	w = s.do(t, http.MethodDelete, "/cart/remove/"+p.ID, nil, tok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/cart", nil, tok)
	assert.Empty(t, decode[cart.View](t, w).Items)
}

func TestProducts(t *testing.T) {
	s := newTestServer(t, nil)
	s.products.Put(catalog.Product{Name: "Pepper", Category: "spices", Stock: 1})
	tea := s.products.Put(catalog.Product{Name: "Assam", Category: "tea", Stock: 1})

	w := s.do(t, http.MethodGet, "/products?category=tea", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]catalog.Product](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, tea.ID, list[0].ID)

	w = s.do(t, http.MethodGet, "/products/"+tea.ID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/products/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccountFlow(t *testing.T) {
	s := newTestServer(t, nil)
	creds := gin.H{"name": "Asha", "email": "asha@example.com", "password": "secret1"}

	w := s.do(t, http.MethodPost, "/register", creds, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret1")

	w = s.do(t, http.MethodPost, "/register", creds, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/register", gin.H{"email": "x@y.z", "password": "123"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/login", gin.H{"email": "asha@example.com", "password": "wrong-pw"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/login", gin.H{"email": "asha@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Token string `json:"token"`
	}](t, w)
	require.NotEmpty(t, got.Token)

	w = s.do(t, http.MethodGet, "/user/profile", nil, got.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"asha@example.com"`)

	w = s.do(t, http.MethodPut, "/user/profile", gin.H{"phone": "555-0100"}, got.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phone":"555-0100"`)

	_, stranger := s.login(t)
	w = s.do(t, http.MethodGet, "/user/profile", nil, stranger)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type brokenCarts struct{}

func (brokenCarts) Get(context.Context, string) (cart.Cart, error) {
	return cart.Cart{}, errors.New("connection reset")
}

func (brokenCarts) Save(context.Context, cart.Cart) (cart.Cart, error) {
	return cart.Cart{}, errors.New("connection reset")
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	s := newTestServer(t, func(d *Deps) {
		products := catalogmem.NewProductRepo()
		d.Cart = cartapp.NewService(brokenCarts{}, products, ordermem.NewOrderRepo(), nil, 4)
	})
	_, tok := s.login(t)

	w := s.do(t, http.MethodPost, "/cart/checkout", nil, tok)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error during checkout", message(t, w))
	assert.NotContains(t, w.Body.String(), "connection reset")
}
