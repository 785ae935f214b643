package response

import (
	"ctchen222/tictac/internal/apperror"
	"errors"
	"net/http"
)

type Error struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Extras  string `json:"extras"`
}

func (e Error) Error() string {
	return e.Extras
}

func NewError(success bool, code int, message string) Error {
	return Error{
		Success: success,
		Code:    code,
		Extras:  message,
	}
}

// FromError maps a domain error onto the HTTP status it is reported with.
func FromError(err error) Error {
	return NewError(false, StatusCode(err), err.Error())
}

// StatusCode returns the HTTP status for err.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrInvalidOperation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
