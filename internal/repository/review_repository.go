package repository

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/query"
)

// ChangeHook is invoked after a review mutation commits, with the id
// of the affected tour. The registered hook recomputes that tour's
// rating aggregates; it must stay idempotent because it can fire more
// than once for the same state.
type ChangeHook func(ctx context.Context, tourID uint64) error

// ReviewRepo persists reviews and notifies registered hooks after
// every mutation. Hooks are explicit callbacks wired at startup, not
// implicit lifecycle magic.
type ReviewRepo struct {
	DB    *sql.DB
	hooks []ChangeHook
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// OnChange registers a post-commit hook.
func (r *ReviewRepo) OnChange(h ChangeHook) { r.hooks = append(r.hooks, h) }

func (r *ReviewRepo) notify(ctx context.Context, tourID uint64) {
	for _, h := range r.hooks {
		if err := h(ctx, tourID); err != nil {
			log.Printf("review hook failed for tour %d: %v", tourID, err)
		}
	}
}

const reviewCols = "r.id, r.tour_id, r.user_id, r.rating, r.review, u.name, r.created_at, r.updated_at"
const reviewFrom = "FROM reviews r JOIN users u ON u.id = r.user_id"

func scanReview(sc interface{ Scan(...any) error }) (model.Review, error) {
	var rv model.Review
	err := sc.Scan(&rv.ID, &rv.TourID, &rv.UserID, &rv.Rating, &rv.Review,
		&rv.AuthorName, &rv.CreatedAt, &rv.UpdatedAt)
	if err == sql.ErrNoRows {
		return rv, ErrNotFound
	}
	return rv, err
}

// ReviewInput is the create/update payload for a review. UserID is
// never bound from the body; the handler stamps the authenticated
// user so nobody reviews on someone else's behalf.
type ReviewInput struct {
	Review string `json:"review"`
	Rating int    `json:"rating"`
	TourID uint64 `json:"tourId"`
	UserID uint64 `json:"-"`
}

func (p ReviewInput) Validate() []string {
	var v []string
	if strings.TrimSpace(p.Review) == "" {
		v = append(v, "review can not be empty")
	}
	if p.Rating < 1 || p.Rating > 5 {
		v = append(v, "rating must be between 1 and 5")
	}
	return v
}

func (p ReviewInput) ValidatePartial() []string {
	var v []string
	if p.Rating != 0 && (p.Rating < 1 || p.Rating > 5) {
		v = append(v, "rating must be between 1 and 5")
	}
	return v
}

// Create inserts a review and fires the change hooks. A second review
// by the same user on the same tour violates the unique key and
// yields ErrDuplicate.
func (r *ReviewRepo) Create(ctx context.Context, p ReviewInput) (model.Review, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (tour_id, user_id, rating, review) VALUES (?,?,?,?)",
		p.TourID, p.UserID, p.Rating, p.Review)
	if err != nil {
		if isDuplicateErr(err) {
			return model.Review{}, ErrDuplicate
		}
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	r.notify(ctx, p.TourID)
	return r.Get(ctx, uint64(id))
}

// Get fetches one review with its author's name.
func (r *ReviewRepo) Get(ctx context.Context, id uint64) (model.Review, error) {
	return scanReview(r.DB.QueryRowContext(ctx,
		"SELECT "+reviewCols+" "+reviewFrom+" WHERE r.id=? LIMIT 1", id))
}

// List returns reviews matching the spec plus the total match count.
// Nested routes scope to a tour by adding a tourId filter to the spec.
func (r *ReviewRepo) List(ctx context.Context, spec query.Spec) ([]model.Review, int64, error) {
	cl := query.Build(spec, ReviewSchema)

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) "+reviewFrom+" WHERE "+cl.Where, cl.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlStr := "SELECT " + reviewCols + " " + reviewFrom + " WHERE " + cl.Where
	if cl.Order != "" {
		sqlStr += " " + cl.Order
	}
	sqlStr += " LIMIT ? OFFSET ?"
	args := append(append([]any{}, cl.Args...), cl.Limit, cl.Offset)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Review, 0, cl.Limit)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	return out, total, rows.Err()
}

// Update applies a partial update and fires the change hooks.
func (r *ReviewRepo) Update(ctx context.Context, id uint64, p ReviewInput) (model.Review, error) {
	set := []string{}
	args := []any{}
	if p.Review != "" {
		set = append(set, "review=?")
		args = append(args, p.Review)
	}
	if p.Rating != 0 {
		set = append(set, "rating=?")
		args = append(args, p.Rating)
	}
	if len(set) == 0 {
		return r.Get(ctx, id)
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE reviews SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		return model.Review{}, err
	}
	rv, err := r.Get(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	r.notify(ctx, rv.TourID)
	return rv, nil
}

// Delete removes a review permanently and fires the change hooks for
// the tour it belonged to.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	var tourID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT tour_id FROM reviews WHERE id=? LIMIT 1", id).Scan(&tourID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	r.notify(ctx, tourID)
	return nil
}
