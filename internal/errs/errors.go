// Package errs defines the failure modes of the inventory engine. Services
// return these sentinels (usually wrapped with context via fmt.Errorf and %w)
// and HTTP handlers translate them with errors.Is.
package errs

import (
	"errors"
	"net/http"
)

var (
	ErrUnknownEvent          = errors.New("event not found")
	ErrUnknownTier           = errors.New("ticket tier not found")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidCapacity       = errors.New("capacity must be positive")
	ErrInvalidQuantity       = errors.New("quantity must be at least one")
	ErrInvalidSeat           = errors.New("seat index out of range")
	ErrEventExpired          = errors.New("event has already started")
	ErrSoldOut               = errors.New("tier is sold out")
	ErrInsufficientInventory = errors.New("not enough tickets available for this tier")
	ErrSeatAlreadySold       = errors.New("seat is already sold")
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrNotOwner              = errors.New("not the ticket owner")
)

// HTTPStatus maps an engine error to a response status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownEvent),
		errors.Is(err, ErrUnknownTier),
		errors.Is(err, ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidCapacity),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidSeat):
		return http.StatusBadRequest
	case errors.Is(err, ErrEventExpired):
		return http.StatusGone
	case errors.Is(err, ErrSoldOut),
		errors.Is(err, ErrInsufficientInventory),
		errors.Is(err, ErrSeatAlreadySold):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
