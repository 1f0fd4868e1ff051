package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/apperr"
	"github.com/traventa/tour-booking-api/internal/query"
)

// The CRUD factory builds handlers parametrized over an entity type
// and its payload. Repositories plug in through the narrow interfaces
// below; whether Delete is physical or a soft delete is the repo's
// business.

type Lister[T any] interface {
	List(ctx context.Context, spec query.Spec) ([]T, int64, error)
}

type Getter[T any] interface {
	Get(ctx context.Context, id uint64) (T, error)
}

type Creator[T, P any] interface {
	Create(ctx context.Context, p P) (T, error)
}

type Updater[T, P any] interface {
	Update(ctx context.Context, id uint64, p P) (T, error)
}

type Deleter interface {
	Delete(ctx context.Context, id uint64) error
}

// CreateValidator checks a full create payload and returns the list
// of violated constraints.
type CreateValidator interface {
	Validate() []string
}

// PatchValidator checks only the fields present in a partial update.
type PatchValidator interface {
	ValidatePartial() []string
}

func validationErr(violations []string) error {
	return apperr.BadRequest("invalid input data: " + strings.Join(violations, ". "))
}

// ListAll builds the list endpoint: query parameters are parsed
// against the entity schema, executed, and the page of items is
// returned with the total count. A page past the end yields an empty
// list, not an error.
func ListAll[T any](repo Lister[T], sch query.Schema, def query.Defaults, key string) echo.HandlerFunc {
	return func(c echo.Context) error {
		spec := query.Parse(c.QueryParams(), sch, def)

		ctx, cancel := reqCtx(c)
		defer cancel()

		items, total, err := repo.List(ctx, spec)
		if err != nil {
			return apperr.Internal(err)
		}
		if len(spec.Fields) > 0 {
			return respondList(c, key, query.ProjectAll(items, spec.Fields), total)
		}
		return respondList(c, key, items, total)
	}
}

// GetOne builds the single-entity endpoint; a missing id is 404.
func GetOne[T any](repo Getter[T], key, notFoundMsg string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		ctx, cancel := reqCtx(c)
		defer cancel()

		item, err := repo.Get(ctx, id)
		if err != nil {
			return repoErr(err, notFoundMsg)
		}
		return respond(c, http.StatusOK, key, item)
	}
}

// CreateOne binds and validates the payload, then inserts. The
// optional prep hook runs between bind and validate so routes can
// inject server-derived fields (review author, booking reference).
func CreateOne[T any, P CreateValidator](repo Creator[T, P], key string, prep func(echo.Context, *P) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		var p P
		if err := c.Bind(&p); err != nil {
			return apperr.BadRequest("invalid request body")
		}
		if prep != nil {
			if err := prep(c, &p); err != nil {
				return err
			}
		}
		if violations := p.Validate(); len(violations) > 0 {
			return validationErr(violations)
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		item, err := repo.Create(ctx, p)
		if err != nil {
			return repoErr(err, "")
		}
		return respond(c, http.StatusCreated, key, item)
	}
}

// UpdateOne applies a partial update; a missing id is 404.
func UpdateOne[T any, P PatchValidator](repo Updater[T, P], key, notFoundMsg string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var p P
		if err := c.Bind(&p); err != nil {
			return apperr.BadRequest("invalid request body")
		}
		if violations := p.ValidatePartial(); len(violations) > 0 {
			return validationErr(violations)
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		item, err := repo.Update(ctx, id, p)
		if err != nil {
			return repoErr(err, notFoundMsg)
		}
		return respond(c, http.StatusOK, key, item)
	}
}

// DeleteOne removes an entity and returns 204 with an empty body.
func DeleteOne(repo Deleter, notFoundMsg string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		ctx, cancel := reqCtx(c)
		defer cancel()

		if err := repo.Delete(ctx, id); err != nil {
			return repoErr(err, notFoundMsg)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
