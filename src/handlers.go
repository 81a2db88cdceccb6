package main

import (
	"errors"
	"net/http"
	"ticketr/src/types"
)

// statusForError maps engine errors onto the HTTP surface. Anything
// unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, types.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, types.ErrEventCancelled):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrEventNotStarted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrPaymentFailed):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
