package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/query"
	"github.com/traventa/tour-booking-api/internal/utils"
)

// TourRepo persists tours. Secret tours are filtered from listings by
// the schema's base predicate but remain reachable by id for staff
// flows.
type TourRepo struct{ DB *sql.DB }

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{DB: db} }

const tourCols = "id, name, slug, duration, max_group_size, difficulty, ratings_average, ratings_quantity, price, price_discount, summary, description, image_cover, secret, created_at, updated_at"

func scanTour(sc interface{ Scan(...any) error }) (model.Tour, error) {
	var t model.Tour
	var discount sql.NullFloat64
	var summary, description, cover sql.NullString
	err := sc.Scan(&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
		&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &discount,
		&summary, &description, &cover, &t.Secret, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if discount.Valid {
		d := discount.Float64
		t.PriceDiscount = &d
	}
	t.Summary = summary.String
	t.Description = description.String
	t.ImageCover = cover.String
	return t, nil
}

// TourInput is the create/update payload for a tour. On update the
// zero values of optional fields mean "leave unchanged"; Create
// requires the full set.
type TourInput struct {
	Name          string   `json:"name"`
	Duration      int      `json:"duration"`
	MaxGroupSize  int      `json:"maxGroupSize"`
	Difficulty    string   `json:"difficulty"`
	Price         float64  `json:"price"`
	PriceDiscount *float64 `json:"priceDiscount"`
	Summary       string   `json:"summary"`
	Description   string   `json:"description"`
	ImageCover    string   `json:"imageCover"`
	Secret        *bool    `json:"secret"`
}

func (p TourInput) Validate() []string {
	var v []string
	if p.Name == "" {
		v = append(v, "a tour must have a name")
	} else if len(p.Name) < 10 || len(p.Name) > 40 {
		v = append(v, "a tour name must have between 10 and 40 characters")
	}
	if p.Duration <= 0 {
		v = append(v, "a tour must have a duration")
	}
	if p.MaxGroupSize <= 0 {
		v = append(v, "a tour must have a group size")
	}
	if !model.ValidDifficulty(p.Difficulty) {
		v = append(v, "difficulty is either: easy, medium, difficult")
	}
	if p.Price <= 0 {
		v = append(v, "a tour must have a price")
	}
	if p.PriceDiscount != nil && *p.PriceDiscount >= p.Price {
		v = append(v, "price discount must be below the regular price")
	}
	return v
}

// ValidatePartial checks only the fields present in a PATCH payload.
func (p TourInput) ValidatePartial() []string {
	var v []string
	if p.Name != "" && (len(p.Name) < 10 || len(p.Name) > 40) {
		v = append(v, "a tour name must have between 10 and 40 characters")
	}
	if p.Difficulty != "" && !model.ValidDifficulty(p.Difficulty) {
		v = append(v, "difficulty is either: easy, medium, difficult")
	}
	if p.PriceDiscount != nil && p.Price > 0 && *p.PriceDiscount >= p.Price {
		v = append(v, "price discount must be below the regular price")
	}
	return v
}

// Create inserts a tour, deriving the slug from its name.
func (r *TourRepo) Create(ctx context.Context, p TourInput) (model.Tour, error) {
	secret := p.Secret != nil && *p.Secret
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tours (name, slug, duration, max_group_size, difficulty, price, price_discount, summary, description, image_cover, secret)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, utils.Slugify(p.Name), p.Duration, p.MaxGroupSize, p.Difficulty,
		p.Price, p.PriceDiscount, p.Summary, p.Description, p.ImageCover, secret)
	if err != nil {
		if isDuplicateErr(err) {
			return model.Tour{}, ErrDuplicate
		}
		return model.Tour{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Tour{}, err
	}
	return r.Get(ctx, uint64(id))
}

// Get fetches a tour by id, secret ones included.
func (r *TourRepo) Get(ctx context.Context, id uint64) (model.Tour, error) {
	return scanTour(r.DB.QueryRowContext(ctx,
		"SELECT "+tourCols+" FROM tours WHERE id=? LIMIT 1", id))
}

// GetBySlug fetches a public tour by its slug.
func (r *TourRepo) GetBySlug(ctx context.Context, slug string) (model.Tour, error) {
	return scanTour(r.DB.QueryRowContext(ctx,
		"SELECT "+tourCols+" FROM tours WHERE slug=? AND secret=0 LIMIT 1", slug))
}

// List returns tours matching the spec plus the total match count.
func (r *TourRepo) List(ctx context.Context, spec query.Spec) ([]model.Tour, int64, error) {
	cl := query.Build(spec, TourSchema)

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tours WHERE "+cl.Where, cl.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlStr := "SELECT " + tourCols + " FROM tours WHERE " + cl.Where
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

	out := make([]model.Tour, 0, cl.Limit)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// Update applies a partial update and returns the fresh row.
func (r *TourRepo) Update(ctx context.Context, id uint64, p TourInput) (model.Tour, error) {
	set := []string{}
	args := []any{}
	if p.Name != "" {
		set = append(set, "name=?", "slug=?")
		args = append(args, p.Name, utils.Slugify(p.Name))
	}
	if p.Duration > 0 {
		set = append(set, "duration=?")
		args = append(args, p.Duration)
	}
	if p.MaxGroupSize > 0 {
		set = append(set, "max_group_size=?")
		args = append(args, p.MaxGroupSize)
	}
	if p.Difficulty != "" {
		set = append(set, "difficulty=?")
		args = append(args, p.Difficulty)
	}
	if p.Price > 0 {
		set = append(set, "price=?")
		args = append(args, p.Price)
	}
	if p.PriceDiscount != nil {
		set = append(set, "price_discount=?")
		args = append(args, *p.PriceDiscount)
	}
	if p.Summary != "" {
		set = append(set, "summary=?")
		args = append(args, p.Summary)
	}
	if p.Description != "" {
		set = append(set, "description=?")
		args = append(args, p.Description)
	}
	if p.ImageCover != "" {
		set = append(set, "image_cover=?")
		args = append(args, p.ImageCover)
	}
	if p.Secret != nil {
		set = append(set, "secret=?")
		args = append(args, *p.Secret)
	}
	if len(set) == 0 {
		return r.Get(ctx, id)
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tours SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicateErr(err) {
			return model.Tour{}, ErrDuplicate
		}
		return model.Tour{}, err
	}
	return r.Get(ctx, id)
}

// Delete removes a tour permanently.
func (r *TourRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tours WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecalcRatings recomputes the denormalized rating aggregates for one
// tour from its reviews in a single atomic statement. Tours with no
// reviews fall back to the 4.5/0 defaults. Safe to re-run at any time.
func (r *TourRepo) RecalcRatings(ctx context.Context, tourID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE tours t
		 LEFT JOIN (
		     SELECT tour_id, COUNT(*) AS n, AVG(rating) AS avg_rating
		     FROM reviews WHERE tour_id=? GROUP BY tour_id
		 ) agg ON agg.tour_id = t.id
		 SET t.ratings_quantity = COALESCE(agg.n, 0),
		     t.ratings_average  = COALESCE(ROUND(agg.avg_rating, 1), 4.5)
		 WHERE t.id=?`,
		tourID, tourID)
	return err
}

// Stats aggregates tours grouped by difficulty.
func (r *TourRepo) Stats(ctx context.Context) ([]model.TourStats, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT difficulty, COUNT(*) AS num_tours, COALESCE(SUM(ratings_quantity),0) AS num_ratings,
		        COALESCE(AVG(ratings_average),0), COALESCE(AVG(price),0),
		        COALESCE(MIN(price),0), COALESCE(MAX(price),0)
		 FROM tours WHERE secret=0 AND ratings_average >= 1
		 GROUP BY difficulty ORDER BY AVG(price)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TourStats
	for rows.Next() {
		var s model.TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings,
			&s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
