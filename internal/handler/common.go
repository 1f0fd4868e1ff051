// Package handler implements the HTTP endpoints. Handlers bind and
// validate request payloads, call repositories with bounded contexts,
// and return apperr values that the centralized error responder turns
// into the {status, message} envelope.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/apperr"
	"github.com/traventa/tour-booking-api/internal/repository"
)

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// envelope is the uniform response shape: status is "success" on 2xx,
// "fail" on 4xx, "error" on 5xx.
type envelope struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Results *int64 `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
	Detail  string `json:"error,omitempty"`
}

// respond wraps a single named payload: {"status":"success","data":{key:v}}.
func respond(c echo.Context, code int, key string, v any) error {
	return c.JSON(code, envelope{Status: "success", Data: map[string]any{key: v}})
}

// respondList adds the total match count next to the page of items.
func respondList(c echo.Context, key string, items any, total int64) error {
	return c.JSON(http.StatusOK, envelope{
		Status:  "success",
		Results: &total,
		Data:    map[string]any{key: items},
	})
}

func respondMessage(c echo.Context, code int, msg string) error {
	return c.JSON(code, envelope{Status: "success", Message: msg})
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("invalid " + name)
	}
	return id, nil
}

// repoErr maps repository sentinels onto operational errors; anything
// unrecognized becomes an internal error.
func repoErr(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(notFoundMsg)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("a record with these values already exists")
	default:
		return apperr.Internal(err)
	}
}

// ErrorHandler is the single boundary every handler error funnels
// through. Operational errors keep their message; unexpected ones are
// logged and, outside development, masked behind a generic message.
func ErrorHandler(isProd bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "something went wrong"
		detail := ""

		if e, ok := apperr.As(err); ok {
			code = e.Code
			msg = e.Message
			if e.Err != nil {
				log.Printf("%s %s: %v", c.Request().Method, c.Request().URL.Path, e.Err)
				if !isProd {
					detail = e.Err.Error()
				}
			}
		} else if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		} else {
			log.Printf("%s %s: unexpected: %v", c.Request().Method, c.Request().URL.Path, err)
			if !isProd {
				detail = err.Error()
			}
		}

		status := "error"
		if code < http.StatusInternalServerError {
			status = "fail"
		}
		if werr := c.JSON(code, envelope{Status: status, Message: msg, Detail: detail}); werr != nil {
			log.Printf("error response write failed: %v", werr)
		}
	}
}
