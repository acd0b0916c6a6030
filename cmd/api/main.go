package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	accountapp "github.com/teakspice/cart-backend/internal/account/app"
	accountmem "github.com/teakspice/cart-backend/internal/account/infra/memory"
	accountmongo "github.com/teakspice/cart-backend/internal/account/infra/mongo"
	cartapp "github.com/teakspice/cart-backend/internal/cart/app"
	cartmem "github.com/teakspice/cart-backend/internal/cart/infra/memory"
	cartmongo "github.com/teakspice/cart-backend/internal/cart/infra/mongo"
	catalogapp "github.com/teakspice/cart-backend/internal/catalog/app"
	catalogmem "github.com/teakspice/cart-backend/internal/catalog/infra/memory"
	catalogmongo "github.com/teakspice/cart-backend/internal/catalog/infra/mongo"
	"github.com/teakspice/cart-backend/internal/httpapi"
	orderapp "github.com/teakspice/cart-backend/internal/order/app"
	ordermem "github.com/teakspice/cart-backend/internal/order/infra/memory"
	ordermongo "github.com/teakspice/cart-backend/internal/order/infra/mongo"
	"github.com/teakspice/cart-backend/pkg/config"
	"github.com/teakspice/cart-backend/pkg/logger"
	"github.com/teakspice/cart-backend/pkg/mongodb"
	"github.com/teakspice/cart-backend/pkg/shutdown"
	"github.com/teakspice/cart-backend/pkg/token"
)

type productRepo interface {
	catalogapp.ProductRepo
	cartapp.ProductStore
}

type stores struct {
	products productRepo
	carts    cartapp.CartRepo
	orders   orderapp.OrderRepo
	users    accountapp.UserRepo

	ready func(ctx context.Context) error
	close func(ctx context.Context) error
}

func main() {
	cfg := config.Load()
	log, err := logger.New(logger.Options{Service: "cart-api", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("open stores", zap.Error(err), zap.String("driver", cfg.StoreDriver))
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn("close stores", zap.Error(err))
		}
	}()

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Cart:     cartapp.NewService(st.carts, st.products, st.orders, log.Named("cart"), cfg.LookupConcurrency),
		Catalog:  catalogapp.NewService(st.products),
		Orders:   orderapp.NewService(st.orders),
		Accounts: accountapp.NewService(st.users, issuer),
		Tokens:   issuer,
		Log:      log.Named("http"),
		Ready:    st.ready,

		CORSOrigins:        cfg.CORSOrigins,
		AllowQueryIdentity: cfg.AllowQueryIdentity,
	})
	if cfg.AllowQueryIdentity {
		log.Warn("userId query parameter accepted as identity")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http starting", zap.String("addr", srv.Addr), zap.String("driver", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		log.Warn("graceful stop timeout, forcing close", zap.Error(err))
		_ = srv.Close()
	}

	wg.Wait()
	log.Info("bye")
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	case config.DriverMemory:
		return openMemory(cfg, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openMongo(ctx context.Context, cfg config.Config) (*stores, error) {
	client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}

	products := catalogmongo.NewProductRepo(db)
	carts := cartmongo.NewCartRepo(db)
	orders := ordermongo.NewOrderRepo(db)
	users := accountmongo.NewUserRepo(db)

	for _, idx := range []interface {
		EnsureIndexes(ctx context.Context) error
	}{products, carts, orders, users} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}

	return &stores{
		products: products,
		carts:    carts,
		orders:   orders,
		users:    users,
		ready:    pinger(client),
		close:    client.Disconnect,
	}, nil
}

func pinger(client *mongo.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return client.Ping(ctx, readpref.Primary())
	}
}

func openMemory(cfg config.Config, log *zap.Logger) (*stores, error) {
	products := catalogmem.NewProductRepo()
	if cfg.CatalogSeed != "" {
		seed, err := catalogmem.LoadSeed(cfg.CatalogSeed)
		if err != nil {
			return nil, err
		}
		for _, p := range seed {
			products.Put(p)
		}
		log.Info("catalog seeded", zap.String("path", cfg.CatalogSeed), zap.Int("products", len(seed)))
	}

	return &stores{
		products: products,
		carts:    cartmem.NewCartRepo(),
		orders:   ordermem.NewOrderRepo(),
		users:    accountmem.NewUserRepo(),
		close:    func(context.Context) error { return nil },
	}, nil
}
