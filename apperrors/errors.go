// Package apperrors holds the error taxonomy shared by services, the assistant
// pipeline and the HTTP handlers. Every typed error unwraps to one of the
// category sentinels so callers can branch with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrExternal   = errors.New("external call failed")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an unknown person, drink, order or conversation.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound is shorthand for a NotFoundError.
func NotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

// AllowanceExhaustedError is returned when a person does not have enough of
// an allowance left for the requested consumption.
type AllowanceExhaustedError struct {
	Kind      string
	Remaining int
	Requested int
}

func (e *AllowanceExhaustedError) Error() string {
	if e.Requested <= 1 && e.Remaining <= 0 {
		return fmt.Sprintf("no %s remaining", plural(e.Kind))
	}
	return fmt.Sprintf("insufficient allowance: only %d %s remaining, %d requested", e.Remaining, plural(e.Kind), e.Requested)
}

func plural(kind string) string {
	if strings.HasSuffix(kind, "ch") {
		return kind + "es"
	}
	return kind + "s"
}

func (e *AllowanceExhaustedError) Unwrap() error { return ErrConflict }

// InsufficientStockError is returned when the catalog holds less than the
// requested quantity of a drink.
type InsufficientStockError struct {
	Drink     string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: only %d %s available, %d requested", e.Available, e.Drink, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrConflict }

// EligibilityError is returned when a day-restricted person asks for lunch on
// a day they did not register for.
type EligibilityError struct {
	AllowedDays []string
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("only registered for %s lunch", strings.Join(e.AllowedDays, " and "))
}

func (e *EligibilityError) Unwrap() error { return ErrForbidden }

// ForbiddenError reports access to something owned by another session.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// Forbidden is shorthand for a ForbiddenError.
func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

// OrderStateError is returned when approving or denying an order that has
// already been resolved.
type OrderStateError struct {
	OrderID uint
	Status  string
}

func (e *OrderStateError) Error() string {
	return fmt.Sprintf("drink order %d is %s, not pending", e.OrderID, e.Status)
}

func (e *OrderStateError) Unwrap() error { return ErrConflict }

// DuplicateError is returned when a write would give two rows the same
// case-insensitive identity.
type DuplicateError struct {
	Resource string
	Key      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.Resource, e.Key)
}

func (e *DuplicateError) Unwrap() error { return ErrConflict }

func Duplicate(resource, key string) error {
	return &DuplicateError{Resource: resource, Key: key}
}

// External wraps a failure of an outside collaborator (the completion model).
func External(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrExternal, err)
}
