package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
	"github.com/camden-git/eventmealsbackend/services"
)

const (
	defaultPeopleLimit  = 500
	maxPeopleLimit      = 5000
	personHistoryLength = 50
)

// LookupInvalidator drops cached name lookups after the registry changes.
type LookupInvalidator interface {
	Invalidate(ctx context.Context) error
}

type PersonHandler struct {
	People  repository.PersonRepositoryInterface
	Ledger  *services.Ledger
	Lookups LookupInvalidator
	Logger  *zap.Logger
}

type PersonUpdatePayload struct {
	FirstName           *string `json:"first_name" validate:"omitempty,min=1"`
	LastName            *string `json:"last_name" validate:"omitempty,min=1"`
	Gender              *string `json:"gender"`
	Club                *string `json:"club"`
	Membership          *string `json:"membership"`
	District            *string `json:"district"`
	DietaryRequirements *string `json:"dietary_requirements"`
	HasFridayLunch      *bool   `json:"has_friday_lunch"`
	HasSaturdayLunch    *bool   `json:"has_saturday_lunch"`
	HasBBQ              *bool   `json:"has_bbq"`
	LunchesRemaining    *int    `json:"lunches" validate:"omitempty,min=0"`
	DinnersRemaining    *int    `json:"dinners" validate:"omitempty,min=0"`
	DrinksRemaining     *int    `json:"drinks" validate:"omitempty,min=0"`
}

type PersonDetail struct {
	*models.Person
	PaymentStatus string                     `json:"payment_status"`
	History       []models.ConsumptionRecord `json:"history"`
}

func (h *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.People.List(r.Context(), queryLimit(r, defaultPeopleLimit, maxPeopleLimit))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if people == nil {
		people = []models.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

func (h *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := idParam(r, "person_id")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	person, err := h.People.GetByID(r.Context(), personID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	history, err := h.Ledger.History(r.Context(), personID, personHistoryLength)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, PersonDetail{Person: person, PaymentStatus: person.PaymentStatus(), History: history})
}

// UpdatePerson applies the fields present in the body.
func (h *PersonHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	personID, err := idParam(r, "person_id")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	var payload PersonUpdatePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	person, err := h.People.GetByID(r.Context(), personID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	payload.apply(person)

	if err := h.People.Update(r.Context(), person); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.invalidateLookups(r.Context())
	h.Logger.Info("Person updated", zap.Uint("person_id", personID))
	writeJSON(w, http.StatusOK, person)
}

func (p PersonUpdatePayload) apply(person *models.Person) {
	if p.FirstName != nil {
		person.FirstName = models.NormalizeName(*p.FirstName)
	}
	if p.LastName != nil {
		person.LastName = models.NormalizeName(*p.LastName)
	}
	if p.Gender != nil {
		person.Gender = models.NormalizeGender(*p.Gender)
	}
	setOptional(&person.Club, p.Club)
	setOptional(&person.Membership, p.Membership)
	setOptional(&person.District, p.District)
	setOptional(&person.DietaryRequirements, p.DietaryRequirements)
	if p.HasFridayLunch != nil {
		person.HasFridayLunch = *p.HasFridayLunch
	}
	if p.HasSaturdayLunch != nil {
		person.HasSaturdayLunch = *p.HasSaturdayLunch
	}
	if p.HasBBQ != nil {
		person.HasBBQ = *p.HasBBQ
	}
	if p.LunchesRemaining != nil {
		person.LunchesRemaining = *p.LunchesRemaining
	}
	if p.DinnersRemaining != nil {
		person.DinnersRemaining = *p.DinnersRemaining
	}
	if p.DrinksRemaining != nil {
		person.DrinksRemaining = *p.DrinksRemaining
	}
}

// setOptional stores a trimmed value; an empty string clears the field.
func setOptional(dst **string, value *string) {
	if value == nil {
		return
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		*dst = nil
		return
	}
	*dst = &v
}

// DeletePerson removes the person with their consumption records and orders.
func (h *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	personID, err := idParam(r, "person_id")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if err := h.People.Delete(r.Context(), personID); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.invalidateLookups(r.Context())
	h.Logger.Info("Person deleted", zap.Uint("person_id", personID))
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *PersonHandler) invalidateLookups(ctx context.Context) {
	if h.Lookups == nil {
		return
	}
	if err := h.Lookups.Invalidate(ctx); err != nil {
		h.Logger.Warn("Failed to invalidate name lookups", zap.Error(err))
	}
}
