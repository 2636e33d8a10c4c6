package handlers

import (
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/camden-git/eventmealsbackend/database"
	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
	"github.com/camden-git/eventmealsbackend/services"
)

const (
	dashboardRecentOrders = 5
	defaultPendingLimit   = 100
	maxPendingLimit       = 1000
	defaultMealLogLimit   = 100
	maxMealLogLimit       = 1000
)

// AdminHandler serves the operator surface: the approval queue, inventory
// maintenance, meal logs and the dashboard.
type AdminHandler struct {
	Approvals   *services.Approvals
	Catalog     *services.Catalog
	People      repository.PersonRepositoryInterface
	Consumption repository.ConsumptionRepositoryInterface
	Stats       *database.StatsStore
	Now         func() time.Time
	Logger      *zap.Logger
}

type DrinkPayload struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

type DrinkUpdatePayload struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Quantity *int    `json:"quantity" validate:"omitempty,min=0"`
}

type Dashboard struct {
	TotalPeople    int64                        `json:"total_people"`
	TotalDrinks    int                          `json:"total_drinks"`
	PendingOrders  int                          `json:"pending_orders"`
	MealsToday     map[models.MealKind]int64    `json:"meals_today"`
	Registration   database.RegistrationTallies `json:"registration"`
	RecentOrders   []models.DrinkOrder          `json:"recent_orders"`
	LowStockDrinks []models.DrinkType           `json:"low_stock_drinks"`
	GeneratedAt    time.Time                    `json:"generated_at"`
}

func (h *AdminHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	total, err := h.People.Count(ctx)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	drinks, err := h.Catalog.List(ctx)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	pending, err := h.Approvals.Pending(ctx, 0)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	recent, err := h.Approvals.List(ctx, repository.OrderFilter{Limit: dashboardRecentOrders})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	meals, err := h.Stats.MealTalliesSince(ctx, today)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	tallies, err := h.Stats.RegistrationTallies(ctx)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	low := []models.DrinkType{}
	for _, d := range drinks {
		if d.AvailableQuantity < models.LowStockThreshold {
			low = append(low, d)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].AvailableQuantity < low[j].AvailableQuantity })

	writeJSON(w, http.StatusOK, Dashboard{
		TotalPeople:    total,
		TotalDrinks:    len(drinks),
		PendingOrders:  len(pending),
		MealsToday:     meals,
		Registration:   tallies,
		RecentOrders:   recent,
		LowStockDrinks: low,
		GeneratedAt:    now,
	})
}

// PendingOrders lists the approval queue, oldest first.
func (h *AdminHandler) PendingOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Approvals.Pending(r.Context(), queryLimit(r, defaultPendingLimit, maxPendingLimit))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if orders == nil {
		orders = []models.DrinkOrder{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "order_id")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	order, err := h.Approvals.Approve(r.Context(), orderID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) DenyOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "order_id")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	order, err := h.Approvals.Deny(r.Context(), orderID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// AddDrink creates a catalog entry, or restocks the existing one with the same name.
func (h *AdminHandler) AddDrink(w http.ResponseWriter, r *http.Request) {
	var payload DrinkPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	result, err := h.Catalog.UpsertStock(r.Context(), payload.Name, payload.Quantity)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	status := http.StatusOK
	if result.Created() {
		status = http.StatusCreated
	}
	writeJSON(w, status, result.Drink)
}

func (h *AdminHandler) EditDrink(w http.ResponseWriter, r *http.Request) {
	drinkID, err := idParam(r, "drink_id")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	var payload DrinkUpdatePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	drink, err := h.Catalog.Update(r.Context(), drinkID, payload.Name, payload.Quantity)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, drink)
}

func (h *AdminHandler) DeleteDrink(w http.ResponseWriter, r *http.Request) {
	drinkID, err := idParam(r, "drink_id")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if err := h.Catalog.Delete(r.Context(), drinkID); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// MealLogs lists the newest consumption records with their person.
func (h *AdminHandler) MealLogs(w http.ResponseWriter, r *http.Request) {
	records, err := h.Consumption.ListRecent(r.Context(), queryLimit(r, defaultMealLogLimit, maxMealLogLimit))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if records == nil {
		records = []models.ConsumptionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
