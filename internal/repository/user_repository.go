package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/query"
	"github.com/traventa/tour-booking-api/internal/utils"
)

// UserRepo persists users. Every read path filters on active = 1;
// soft-deleted rows stay in storage but are invisible to the
// application. The password hash is selected only by the *WithPassword
// variants.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id, name, email, role, photo, password_changed_at, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var photo sql.NullString
	var changed sql.NullTime
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &photo, &changed, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.Photo = photo.String
	if changed.Valid {
		u.PasswordChangedAt = changed.Time
	}
	u.Active = true
	return u, nil
}

// Create inserts a new user with a freshly hashed password and
// returns the stored row. A duplicate email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, cost int) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, role, password_hash) VALUES (?,?,?,?)",
		name, email, model.RoleUser, hash)
	if err != nil {
		if isDuplicateErr(err) {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.Get(ctx, uint64(id))
}

// Get fetches an active user by id without the password hash.
func (r *UserRepo) Get(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? AND active=1 LIMIT 1", id))
}

// GetByEmailWithPassword fetches an active user by normalized email,
// selecting the password hash for credential verification.
func (r *UserRepo) GetByEmailWithPassword(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	var photo sql.NullString
	var changed sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email, role, photo, password_hash, password_changed_at, created_at, updated_at FROM users WHERE email=? AND active=1 LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &photo, &u.PasswordHash, &changed, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.Photo = photo.String
	if changed.Valid {
		u.PasswordChangedAt = changed.Time
	}
	u.Active = true
	return u, nil
}

// GetWithPassword fetches an active user by id including the hash,
// used by the update-password flow to verify the current password.
func (r *UserRepo) GetWithPassword(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email, role, password_hash, password_changed_at FROM users WHERE id=? AND active=1 LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.PasswordChangedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.Active = true
	return u, nil
}

// List returns users matching the spec plus the total match count.
func (r *UserRepo) List(ctx context.Context, spec query.Spec) ([]model.User, int64, error) {
	cl := query.Build(spec, UserSchema)

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+cl.Where, cl.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlStr := "SELECT " + userCols + " FROM users WHERE " + cl.Where
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

	out := make([]model.User, 0, cl.Limit)
	for rows.Next() {
		var u model.User
		var photo sql.NullString
		var changed sql.NullTime
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &photo, &changed, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		u.Photo = photo.String
		if changed.Valid {
			u.PasswordChangedAt = changed.Time
		}
		u.Active = true
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// UserUpdate is the admin-editable subset of a user row. Password
// changes go through UpdatePassword exclusively.
type UserUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (p UserUpdate) ValidatePartial() []string {
	var v []string
	if p.Name == "" && p.Email == "" && p.Role == "" {
		v = append(v, "nothing to update")
	}
	if p.Role != "" && !model.ValidRole(p.Role) {
		v = append(v, "role must be one of: user, guide, lead-guide, admin")
	}
	return v
}

// Update applies a partial admin update and returns the fresh row.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserUpdate) (model.User, error) {
	set := []string{}
	args := []any{}
	if p.Name != "" {
		set = append(set, "name=?")
		args = append(args, p.Name)
	}
	if p.Email != "" {
		set = append(set, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(p.Email)))
	}
	if p.Role != "" {
		set = append(set, "role=?")
		args = append(args, p.Role)
	}
	if len(set) == 0 {
		return r.Get(ctx, id)
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=? AND active=1", args...)
	if err != nil {
		if isDuplicateErr(err) {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, err
	}
	// RowsAffected is 0 both for a missing row and a no-op change, so
	// the follow-up Get decides between 200 and 404.
	return r.Get(ctx, id)
}

// UpdateProfile lets a user change their own name, email and photo.
// Empty arguments leave the current value in place.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email, photo string) (model.User, error) {
	set := []string{}
	args := []any{}
	if name != "" {
		set = append(set, "name=?")
		args = append(args, name)
	}
	if email != "" {
		set = append(set, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(email)))
	}
	if photo != "" {
		set = append(set, "photo=?")
		args = append(args, photo)
	}
	if len(set) == 0 {
		return r.Get(ctx, id)
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=? AND active=1", args...)
	if err != nil {
		if isDuplicateErr(err) {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, err
	}
	return r.Get(ctx, id)
}

// UpdatePassword stores a new hash and bumps password_changed_at so
// tokens issued earlier stop verifying.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, password_changed_at=NOW() WHERE id=? AND active=1",
		hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores the hash and expiry of a freshly generated
// password reset token. The plain token is never persisted.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, hash string, expires time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=?, reset_token_expires_at=? WHERE id=? AND active=1",
		hash, expires, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByResetTokenHash resolves the user holding an outstanding reset
// token. Expiry is checked by the caller against the returned fields.
func (r *UserRepo) GetByResetTokenHash(ctx context.Context, hash string) (model.User, error) {
	var u model.User
	var expires sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email, role, reset_token_hash, reset_token_expires_at FROM users WHERE reset_token_hash=? AND active=1 LIMIT 1",
		hash).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.ResetTokenHash, &expires)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	if expires.Valid {
		t := expires.Time
		u.ResetTokenExpiresAt = &t
	}
	u.Active = true
	return u, nil
}

// ClearResetToken consumes the outstanding reset token, if any.
func (r *UserRepo) ClearResetToken(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=NULL, reset_token_expires_at=NULL WHERE id=?", id)
	return err
}

// Delete soft-deletes a user by flipping the active flag. The row
// remains in storage but disappears from all reads.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET active=0 WHERE id=? AND active=1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
