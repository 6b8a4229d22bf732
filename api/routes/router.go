package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tradepost-backend/api/controllers"
	"github.com/angelmondragon/tradepost-backend/api/middleware"
	"github.com/angelmondragon/tradepost-backend/internal/cargo"
	"github.com/angelmondragon/tradepost-backend/internal/inventory"
	"github.com/angelmondragon/tradepost-backend/internal/ledger"
	"github.com/angelmondragon/tradepost-backend/internal/trades"
	"github.com/angelmondragon/tradepost-backend/pkg/config"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/tradepost-backend/pkg/redis"
)

// Services groups the domain services mounted under /api/v1.
type Services struct {
	Inventory inventory.Service
	Trades    trades.Service
	Cargo     cargo.Service
	Journal   ledger.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/inventories", func(r chi.Router) {
			r.Post("/", controllers.InventoryCreate(svc.Inventory, logg))
			r.Get("/", controllers.InventoryList(svc.Inventory, logg))
			r.Route("/{stationId}", func(r chi.Router) {
				r.Get("/", controllers.InventoryGet(svc.Inventory, logg))
				r.Delete("/", controllers.InventoryDelete(svc.Inventory, logg))
				r.Post("/items", controllers.InventoryAddItems(svc.Inventory, logg))
				r.Patch("/items/{itemId}", controllers.InventoryUpdateItem(svc.Inventory, logg))
				r.Delete("/items/{itemId}", controllers.InventoryDeleteItem(svc.Inventory, logg))
			})
		})

		r.Route("/trades", func(r chi.Router) {
			r.Post("/", controllers.TradeCreate(svc.Trades, logg))
			r.Get("/", controllers.TradeList(svc.Trades, logg))
			r.Route("/{transactionId}", func(r chi.Router) {
				r.Get("/", controllers.TradeGet(svc.Trades, logg))
				r.Patch("/status", controllers.TradeUpdateStatus(svc.Trades, logg))
				r.Get("/movements", controllers.TradeMovements(svc.Trades, svc.Journal, logg))
			})
		})

		r.Route("/cargo", func(r chi.Router) {
			r.Post("/", controllers.CargoCreate(svc.Cargo, logg))
			r.Route("/{shipmentId}", func(r chi.Router) {
				r.Get("/", controllers.CargoGet(svc.Cargo, logg))
				r.Post("/items", controllers.CargoAppendItems(svc.Cargo, logg))
			})
		})
	})

	return r
}
