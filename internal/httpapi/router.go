package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accountapp "github.com/teakspice/cart-backend/internal/account/app"
	account "github.com/teakspice/cart-backend/internal/account/domain"
	cart "github.com/teakspice/cart-backend/internal/cart/domain"
	catalog "github.com/teakspice/cart-backend/internal/catalog/domain"
	order "github.com/teakspice/cart-backend/internal/order/domain"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (cart.View, error)
	AddItem(ctx context.Context, userID, productID string, qty int) (cart.Cart, error)
	SetQuantity(ctx context.Context, userID, productID string, qty int) (cart.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (cart.Cart, error)
	ClearCart(ctx context.Context, userID string) error
	Checkout(ctx context.Context, userID string) (order.Order, error)
}

type CatalogService interface {
	ListProducts(ctx context.Context, category string) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type OrderService interface {
	ListOrders(ctx context.Context, userID string) ([]order.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (order.Order, error)
}

type AccountService interface {
	Register(ctx context.Context, in accountapp.RegisterInput) (account.User, error)
	Login(ctx context.Context, email, password string) (account.User, string, error)
	Profile(ctx context.Context, userID string) (account.User, error)
	UpdateProfile(ctx context.Context, userID string, upd accountapp.ProfileUpdate) (account.User, error)
}

type Deps struct {
	Cart     CartService
	Catalog  CatalogService
	Orders   OrderService
	Accounts AccountService
	Tokens   TokenParser
	Log      *zap.Logger

	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error

	CORSOrigins        []string
	AllowQueryIdentity bool
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log))
	if len(d.CORSOrigins) > 0 {
		r.Use(CORS(d.CORSOrigins))
	}

	h := &handlers{
		cart:     d.Cart,
		catalog:  d.Catalog,
		orders:   d.Orders,
		accounts: d.Accounts,
		ready:    d.Ready,
		log:      log,
	}

	r.GET("/healthz", h.health)

	r.POST("/register", h.register)
	r.POST("/login", h.login)

	r.GET("/products", h.listProducts)
	r.GET("/products/:id", h.getProduct)

	auth := r.Group("/", Identity(d.Tokens, d.AllowQueryIdentity))
	{
		auth.GET("/user/profile", h.getProfile)
		auth.PUT("/user/profile", h.updateProfile)

		auth.GET("/cart", h.getCart)
		auth.POST("/cart/add", h.addToCart)
		auth.PUT("/cart/:productId", h.updateCartItem)
		auth.DELETE("/cart/remove/:productId", h.removeCartItem)
		auth.POST("/cart/clear", h.clearCart)
		auth.POST("/cart/checkout", h.checkout)

		auth.GET("/orders", h.listOrders)
		auth.GET("/orders/:orderId", h.getOrder)
	}

	return r
}

type handlers struct {
	cart     CartService
	catalog  CatalogService
	orders   OrderService
	accounts AccountService
	ready    func(ctx context.Context) error
	log      *zap.Logger
}
