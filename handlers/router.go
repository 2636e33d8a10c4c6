package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/assistant"
	"github.com/camden-git/eventmealsbackend/database"
	"github.com/camden-git/eventmealsbackend/logging"
	"github.com/camden-git/eventmealsbackend/permissions"
	"github.com/camden-git/eventmealsbackend/repository"
	"github.com/camden-git/eventmealsbackend/services"
)

const defaultRequestTimeout = 60 * time.Second

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	DB          *gorm.DB
	Admins      repository.AdminRepository
	People      repository.PersonRepositoryInterface
	Consumption repository.ConsumptionRepositoryInterface
	Stats       *database.StatsStore

	Ledger    *services.Ledger
	Approvals *services.Approvals
	Catalog   *services.Catalog

	// Orchestrator is nil when no completion model is configured; the
	// chatbot routes then answer 503.
	Orchestrator *assistant.Orchestrator
	Lookups      LookupInvalidator

	OrderFeed      http.Handler
	MetricsHandler http.Handler

	JWTSecret      []byte
	JWTExpiry      time.Duration
	AllowedOrigins []string
	RequestTimeout time.Duration
	Now            func() time.Time
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.HTTPMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	if cfg.OrderFeed != nil {
		r.Get("/ws/orders", cfg.OrderFeed.ServeHTTP)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	meals := &MealHandler{Ledger: cfg.Ledger, Approvals: cfg.Approvals, Catalog: cfg.Catalog, Logger: logger}
	auth := NewAuthHandler(cfg.Admins, cfg.JWTSecret, cfg.JWTExpiry, logger)
	setup := NewSetupHandler(cfg.DB, logger)
	perms := NewPermissionsHandler(cfg.Admins, logger)
	people := &PersonHandler{People: cfg.People, Ledger: cfg.Ledger, Lookups: cfg.Lookups, Logger: logger}
	admin := &AdminHandler{
		Approvals:   cfg.Approvals,
		Catalog:     cfg.Catalog,
		People:      cfg.People,
		Consumption: cfg.Consumption,
		Stats:       cfg.Stats,
		Now:         cfg.Now,
		Logger:      logger,
	}
	imports := &ImportHandler{DB: cfg.DB, Lookups: cfg.Lookups, Now: cfg.Now, Logger: logger}
	chat := &ChatbotHandler{Orchestrator: cfg.Orchestrator, Logger: logger}

	requireAdmin := func(next http.Handler) http.Handler {
		return AuthMiddleware(cfg.Admins, cfg.JWTSecret, next)
	}
	requireAssistant := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Orchestrator == nil {
				WriteAPIError(w, http.StatusServiceUnavailable, "assistant_disabled", "The assistant is not configured")
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Post("/lunch", meals.ConsumeLunch)
		r.Post("/dinner", meals.ConsumeDinner)
		r.Post("/drink", meals.RequestDrink)
		r.Get("/person", meals.PersonStatus)
		r.Route("/drinks", func(r chi.Router) {
			r.Get("/", meals.ListDrinks)
			r.Post("/stock", meals.SetDrinkStock)
			r.Get("/transactions", meals.DrinkTransactions)
		})

		r.Route("/chatbot", func(r chi.Router) {
			r.Use(requireAssistant)
			r.Post("/send", chat.Send)
			r.Get("/conversations", chat.Conversations)
			r.Get("/conversations/{conversation_id}", chat.History)
		})

		r.Post("/auth/login", auth.Login)
		r.Post("/setup/first-admin", setup.CreateFirstAdmin)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/me", auth.CurrentAdmin)
			r.With(GuardAny(permissions.OrderList, permissions.PersonList)).Get("/dashboard", admin.Dashboard)

			r.Route("/orders", func(r chi.Router) {
				r.With(GuardAny(permissions.OrderList, permissions.OrderApprove)).Get("/pending", admin.PendingOrders)
				r.With(Guard(permissions.OrderApprove)).Post("/{order_id}/approve", admin.ApproveOrder)
				r.With(Guard(permissions.OrderApprove)).Post("/{order_id}/deny", admin.DenyOrder)
			})

			r.Route("/people", func(r chi.Router) {
				r.With(Guard(permissions.PersonList)).Get("/", people.ListPeople)
				r.With(Guard(permissions.PersonList)).Get("/{person_id}", people.GetPerson)
				r.With(Guard(permissions.PersonEdit)).Put("/{person_id}", people.UpdatePerson)
				r.With(Guard(permissions.PersonDelete)).Delete("/{person_id}", people.DeletePerson)
			})

			r.Route("/drinks", func(r chi.Router) {
				r.Use(Guard(permissions.InventoryEdit))
				r.Post("/", admin.AddDrink)
				r.Put("/{drink_id}", admin.EditDrink)
				r.Delete("/{drink_id}", admin.DeleteDrink)
			})

			r.With(Guard(permissions.MealLogView)).Get("/meal-logs", admin.MealLogs)
			r.With(Guard(permissions.RegistryImport)).Post("/import", imports.ImportEventData)

			r.Route("/chatbot", func(r chi.Router) {
				r.Use(Guard(permissions.AssistantUse), requireAssistant)
				r.Get("/conversations", chat.AdminConversations)
				r.Post("/conversations", chat.AdminSend)
				r.Get("/conversations/{conversation_id}", chat.AdminHistory)
				r.Post("/conversations/{conversation_id}", chat.AdminSend)
			})

			r.Route("/permissions", func(r chi.Router) {
				r.Use(Guard(permissions.PermissionsView))
				r.Get("/", perms.ListDefinedPermissions)
				r.Get("/keys", perms.ListDefinedPermissionKeys)
			})

			r.Route("/admins", func(r chi.Router) {
				r.Use(Guard(permissions.AdminManage))
				r.Get("/", perms.ListAdmins)
				r.Post("/", perms.CreateAdmin)
				r.Put("/{admin_id}/permissions", perms.UpdateAdminPermissions)
			})
		})
	})

	return r
}
