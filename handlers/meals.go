package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
	"github.com/camden-git/eventmealsbackend/services"
)

const (
	defaultTransactionLimit = 200
	maxTransactionLimit     = 1000
)

// MealHandler serves the public endpoints used at serving points.
type MealHandler struct {
	Ledger    *services.Ledger
	Approvals *services.Approvals
	Catalog   *services.Catalog
	Logger    *zap.Logger
}

type DrinkRequestPayload struct {
	services.Identity
	ServingPoint string `json:"serving_point" validate:"required"`
	DrinkName    string `json:"drink_name" validate:"required"`
	Quantity     *int   `json:"quantity" validate:"omitempty,min=1"`
}

type DrinkRequestResponse struct {
	Message string             `json:"message"`
	Status  models.OrderStatus `json:"status"`
	Person  *models.Person     `json:"person"`
	Order   *models.DrinkOrder `json:"order"`
}

type StockPayload struct {
	DrinkName string `json:"drink_name" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"required,min=0"`
}

type StockResponse struct {
	Message string            `json:"message"`
	Drink   *models.DrinkType `json:"drink"`
}

func (h *MealHandler) ConsumeLunch(w http.ResponseWriter, r *http.Request) {
	h.consume(w, r, models.MealLunch)
}

func (h *MealHandler) ConsumeDinner(w http.ResponseWriter, r *http.Request) {
	h.consume(w, r, models.MealDinner)
}

func (h *MealHandler) consume(w http.ResponseWriter, r *http.Request, kind models.MealKind) {
	var id services.Identity
	if err := decodeJSON(w, r, &id); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	person, err := h.Ledger.ResolvePerson(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	updated, err := h.Ledger.Consume(r.Context(), kind, person.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// RequestDrink files a pending drink order; nothing is deducted until an
// admin approves it.
func (h *MealHandler) RequestDrink(w http.ResponseWriter, r *http.Request) {
	var payload DrinkRequestPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	quantity := 1
	if payload.Quantity != nil {
		quantity = *payload.Quantity
	}

	person, err := h.Ledger.ResolvePerson(r.Context(), payload.Identity)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	order, err := h.Ledger.RequestDrink(r.Context(), person.ID, payload.DrinkName, quantity, payload.ServingPoint)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, DrinkRequestResponse{
		Message: "Drink order submitted for approval",
		Status:  order.Status,
		Person:  order.Person,
		Order:   order,
	})
}

// PersonStatus looks a person up by query parameters and returns their
// current allowances.
func (h *MealHandler) PersonStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	person, err := h.Ledger.Status(r.Context(), services.Identity{
		FirstName: q.Get("first_name"),
		LastName:  q.Get("last_name"),
		Gender:    q.Get("gender"),
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (h *MealHandler) ListDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.Catalog.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, drinks)
}

// SetDrinkStock creates the drink if needed and sets its available quantity.
func (h *MealHandler) SetDrinkStock(w http.ResponseWriter, r *http.Request) {
	var payload StockPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	result, err := h.Catalog.UpsertStock(r.Context(), payload.DrinkName, *payload.Quantity)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	verb := "Updated"
	if result.Created() {
		verb = "Created"
	}
	writeJSON(w, http.StatusOK, StockResponse{
		Message: fmt.Sprintf("%s %s", verb, result.Drink.Name),
		Drink:   result.Drink,
	})
}

// DrinkTransactions lists orders newest first, optionally filtered by
// serving point, person name and status.
func (h *MealHandler) DrinkTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.OrderFilter{
		Status:       models.OrderStatus(q.Get("status")),
		ServingPoint: q.Get("serving_point"),
		FirstName:    q.Get("first_name"),
		LastName:     q.Get("last_name"),
		Limit:        queryLimit(r, defaultTransactionLimit, maxTransactionLimit),
	}
	switch filter.Status {
	case "", models.OrderPending, models.OrderApproved, models.OrderDenied:
	default:
		writeError(w, h.Logger, apperrors.Invalid("", "status must be one of pending, approved, denied"))
		return
	}

	orders, err := h.Approvals.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
