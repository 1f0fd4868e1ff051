package model

import "time"

// Role enumerates the access tiers a user can hold. The values are
// stored verbatim in the `users.role` column and embedded in JWT
// claims, so they must stay stable.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user record as stored in the
// `users` table. PasswordHash is only populated when a query
// explicitly selects it (login, password update) and is never
// serialized into responses.
//
// Fields:
//  ID                  – primary key identifier of the user.
//  Name                – display name.
//  Email               – unique, normalized email address.
//  Role                – access tier (user, guide, lead-guide, admin).
//  Photo               – stored filename of the profile photo.
//  PasswordHash        – bcrypt hashed password; selected on demand only.
//  PasswordChangedAt   – when the password was last set; tokens issued
//                        before this instant are rejected.
//  ResetTokenHash      – SHA-256 hex digest of the outstanding password
//                        reset token (nullable).
//  ResetTokenExpiresAt – absolute expiry of the reset token (nullable).
//  Active              – soft-delete marker; inactive users are excluded
//                        from default queries but kept in storage.
type User struct {
	ID                  uint64     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Role                Role       `json:"role"`
	Photo               string     `json:"photo,omitempty"`
	PasswordHash        string     `json:"-"`
	PasswordChangedAt   time.Time  `json:"-"`
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	Active              bool       `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"-"`
}

// ChangedPasswordAfter reports whether the user's password was changed
// after the given token issue time. A one second grace absorbs the
// truncation of JWT iat claims to whole seconds.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt.Add(time.Second))
}
