package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/query"
	"github.com/traventa/tour-booking-api/internal/repository"
)

// memTourStore is an in-memory stand-in for the tour repository,
// implementing the factory interfaces.
type memTourStore struct {
	tours  map[uint64]model.Tour
	nextID uint64
}

func newMemTourStore(tours ...model.Tour) *memTourStore {
	s := &memTourStore{tours: map[uint64]model.Tour{}, nextID: 1}
	for _, t := range tours {
		s.tours[t.ID] = t
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	return s
}

func (s *memTourStore) List(_ context.Context, spec query.Spec) ([]model.Tour, int64, error) {
	all := make([]model.Tour, 0, len(s.tours))
	for _, t := range s.tours {
		all = append(all, t)
	}
	total := int64(len(all))
	if spec.Offset() >= len(all) {
		return []model.Tour{}, total, nil
	}
	return all[spec.Offset():], total, nil
}

func (s *memTourStore) Get(_ context.Context, id uint64) (model.Tour, error) {
	t, ok := s.tours[id]
	if !ok {
		return model.Tour{}, repository.ErrNotFound
	}
	return t, nil
}

func (s *memTourStore) Create(_ context.Context, p repository.TourInput) (model.Tour, error) {
	t := model.Tour{ID: s.nextID, Name: p.Name, Duration: p.Duration,
		MaxGroupSize: p.MaxGroupSize, Difficulty: p.Difficulty, Price: p.Price}
	s.tours[t.ID] = t
	s.nextID++
	return t, nil
}

func (s *memTourStore) Update(_ context.Context, id uint64, p repository.TourInput) (model.Tour, error) {
	t, ok := s.tours[id]
	if !ok {
		return model.Tour{}, repository.ErrNotFound
	}
	if p.Name != "" {
		t.Name = p.Name
	}
	if p.Price > 0 {
		t.Price = p.Price
	}
	s.tours[id] = t
	return t, nil
}

func (s *memTourStore) Delete(_ context.Context, id uint64) error {
	if _, ok := s.tours[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.tours, id)
	return nil
}

func factoryApp(store *memTourStore) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(false)
	def := query.Defaults{Limit: 100, MaxLimit: 100}
	e.GET("/tours", ListAll[model.Tour](store, repository.TourSchema, def, "tours"))
	e.GET("/tours/:id", GetOne[model.Tour](store, "tour", "no tour found with that id"))
	e.POST("/tours", CreateOne[model.Tour, repository.TourInput](store, "tour", nil))
	e.PATCH("/tours/:id", UpdateOne[model.Tour, repository.TourInput](store, "tour", "no tour found with that id"))
	e.DELETE("/tours/:id", DeleteOne(store, "no tour found with that id"))
	return e
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListEnvelope(t *testing.T) {
	t.Parallel()
	e := factoryApp(newMemTourStore(
		model.Tour{ID: 1, Name: "The Forest Hiker", Price: 397},
		model.Tour{ID: 2, Name: "The Sea Explorer", Price: 497},
	))

	rec := doJSON(e, http.MethodGet, "/tours", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  string `json:"status"`
		Results int64  `json:"results"`
		Data    struct {
			Tours []model.Tour `json:"tours"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, int64(2), body.Results)
	assert.Len(t, body.Data.Tours, 2)
}

func TestListProjection(t *testing.T) {
	t.Parallel()
	e := factoryApp(newMemTourStore(model.Tour{ID: 1, Name: "The Forest Hiker", Price: 397}))

	rec := doJSON(e, http.MethodGet, "/tours?fields=name", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Tours []map[string]any `json:"tours"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Tours, 1)
	item := body.Data.Tours[0]
	assert.Contains(t, item, "id")
	assert.Contains(t, item, "name")
	assert.NotContains(t, item, "price")
}

func TestListPagePastEnd(t *testing.T) {
	t.Parallel()
	e := factoryApp(newMemTourStore(model.Tour{ID: 1, Name: "The Forest Hiker"}))

	rec := doJSON(e, http.MethodGet, "/tours?page=99&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results int64 `json:"results"`
		Data    struct {
			Tours []model.Tour `json:"tours"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Results)
	assert.Empty(t, body.Data.Tours)
}

func TestGetOneNotFound(t *testing.T) {
	t.Parallel()
	e := factoryApp(newMemTourStore())

	rec := doJSON(e, http.MethodGet, "/tours/42", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "no tour found with that id", body.Message)
}

func TestGetOneBadID(t *testing.T) {
	t.Parallel()
	e := factoryApp(newMemTourStore())

	rec := doJSON(e, http.MethodGet, "/tours/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOneValidation(t *testing.T) {
	t.Parallel()
	e := factoryApp(newMemTourStore())

	rec := doJSON(e, http.MethodPost, "/tours", `{"name":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fail", body.Status)
	assert.Contains(t, body.Message, "invalid input data:")
}

func TestCreateOne(t *testing.T) {
	t.Parallel()
	e := factoryApp(newMemTourStore())

	rec := doJSON(e, http.MethodPost, "/tours",
		`{"name":"The Forest Hiker","duration":5,"maxGroupSize":25,"difficulty":"easy","price":397}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data struct {
			Tour model.Tour `json:"tour"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotZero(t, body.Data.Tour.ID)
	assert.Equal(t, "The Forest Hiker", body.Data.Tour.Name)
}

func TestUpdateOne(t *testing.T) {
	t.Parallel()
	e := factoryApp(newMemTourStore(model.Tour{ID: 1, Name: "The Forest Hiker", Price: 397}))

	rec := doJSON(e, http.MethodPatch, "/tours/1", `{"price":450}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Tour model.Tour `json:"tour"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(450), body.Data.Tour.Price)
}

func TestDeleteOne(t *testing.T) {
	t.Parallel()
	store := newMemTourStore(model.Tour{ID: 1, Name: "The Forest Hiker"})
	e := factoryApp(store)

	rec := doJSON(e, http.MethodDelete, "/tours/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, store.tours)

	rec = doJSON(e, http.MethodDelete, "/tours/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
