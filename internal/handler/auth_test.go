package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/traventa/tour-booking-api/internal/config"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/repository"
	"github.com/traventa/tour-booking-api/internal/service"
	"github.com/traventa/tour-booking-api/internal/utils"
)

// recordMailer captures sent mail; fail makes every send error so the
// compensation paths can be exercised.
type recordMailer struct {
	template string
	to       string
	vars     map[string]string
	fail     bool
}

func (m *recordMailer) Send(_ context.Context, template, to string, vars map[string]string) error {
	if m.fail {
		return errors.New("broker unreachable")
	}
	m.template, m.to, m.vars = template, to, vars
	return nil
}

func authApp(t *testing.T, mailer service.Mailer) (*echo.Echo, *AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		Env:           "dev",
		AppURL:        "http://localhost:8080",
		JWTSecret:     "handler-test-secret",
		CookieTTLDays: 90,
		BcryptCost:    bcrypt.MinCost,
		ResetTTLMin:   10,
	}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db),
		utils.NewTokenService(cfg.JWTSecret, 60), mailer)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(false)
	e.POST("/api/v1/users/signup", h.Signup)
	e.POST("/api/v1/users/login", h.Login)
	e.GET("/api/v1/users/logout", h.Logout)
	e.POST("/api/v1/users/forgotPassword", h.ForgotPassword)
	e.PATCH("/api/v1/users/resetPassword/:token", h.ResetPassword)
	e.PATCH("/api/v1/users/updatePassword", h.UpdatePassword,
		middleware.Protect(h.Tokens, h.Users))
	return e, h, mock
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.CookieName {
			return ck
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func storedUserRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "role", "photo", "password_changed_at", "created_at", "updated_at",
	}).AddRow(7, "Lena", "lena@example.com", "user", nil, nil, now, now)
}

func TestSignup(t *testing.T) {
	mailer := &recordMailer{}
	e, _, mock := authApp(t, mailer)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("Lena", "lena@example.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=\\? AND active=1").
		WithArgs(uint64(7)).
		WillReturnRows(storedUserRows())

	rec := doJSON(e, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Lena","email":"Lena@Example.com","password":"pass12345","passwordConfirm":"pass12345"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Status string `json:"status"`
		Token  string `json:"token"`
		Data   struct {
			User map[string]any `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "lena@example.com", body.Data.User["email"])
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")

	ck := sessionCookie(t, rec)
	assert.Equal(t, body.Token, ck.Value)
	assert.True(t, ck.HttpOnly)

	assert.Equal(t, service.MailWelcome, mailer.template)
	assert.Equal(t, "lena@example.com", mailer.to)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupDuplicateEmail(t *testing.T) {
	e, _, mock := authApp(t, &recordMailer{})

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	rec := doJSON(e, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Lena","email":"lena@example.com","password":"pass12345","passwordConfirm":"pass12345"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupRejectsBadInput(t *testing.T) {
	e, _, _ := authApp(t, &recordMailer{})

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"a@b.com","password":"pass12345","passwordConfirm":"pass12345"}`},
		{"bad email", `{"name":"Lena","email":"not-an-email","password":"pass12345","passwordConfirm":"pass12345"}`},
		{"short password", `{"name":"Lena","email":"a@b.com","password":"short","passwordConfirm":"short"}`},
		{"mismatch", `{"name":"Lena","email":"a@b.com","password":"pass12345","passwordConfirm":"other1234"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/v1/users/signup", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func loginRows(t *testing.T, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "role", "photo", "password_hash", "password_changed_at", "created_at", "updated_at",
	}).AddRow(7, "Lena", "lena@example.com", "user", nil, hash, nil, now, now)
}

func TestLogin(t *testing.T) {
	e, _, mock := authApp(t, &recordMailer{})

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\? AND active=1").
		WithArgs("lena@example.com").
		WillReturnRows(loginRows(t, "pass12345"))

	rec := doJSON(e, http.MethodPost, "/api/v1/users/login",
		`{"email":"lena@example.com","password":"pass12345"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "hash")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	e, _, mock := authApp(t, &recordMailer{})

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\? AND active=1").
		WithArgs("lena@example.com").
		WillReturnRows(loginRows(t, "pass12345"))

	rec := doJSON(e, http.MethodPost, "/api/v1/users/login",
		`{"email":"lena@example.com","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "incorrect email or password", body.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmail(t *testing.T) {
	e, _, mock := authApp(t, &recordMailer{})

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\? AND active=1").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := doJSON(e, http.MethodPost, "/api/v1/users/login",
		`{"email":"ghost@example.com","password":"whatever1"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "incorrect email or password", body.Message)
}

func TestLogoutOverwritesCookie(t *testing.T) {
	e, _, _ := authApp(t, &recordMailer{})

	rec := doJSON(e, http.MethodGet, "/api/v1/users/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	ck := sessionCookie(t, rec)
	assert.Equal(t, "loggedout", ck.Value)
	assert.WithinDuration(t, time.Now().Add(10*time.Second), ck.Expires, time.Minute)
}

func TestForgotPassword(t *testing.T) {
	mailer := &recordMailer{}
	e, _, mock := authApp(t, mailer)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\? AND active=1").
		WithArgs("lena@example.com").
		WillReturnRows(loginRows(t, "pass12345"))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE users SET reset_token_hash=?, reset_token_expires_at=? WHERE id=? AND active=1")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(e, http.MethodPost, "/api/v1/users/forgotPassword",
		`{"email":"lena@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, service.MailPasswordReset, mailer.template)
	url := mailer.vars["url"]
	require.NotEmpty(t, url)
	prefix := "http://localhost:8080/api/v1/users/resetPassword/"
	require.True(t, strings.HasPrefix(url, prefix))
	assert.Len(t, strings.TrimPrefix(url, prefix), 64)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	e, _, mock := authApp(t, &recordMailer{})

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\? AND active=1").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := doJSON(e, http.MethodPost, "/api/v1/users/forgotPassword",
		`{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForgotPasswordMailFailureClearsToken(t *testing.T) {
	e, _, mock := authApp(t, &recordMailer{fail: true})

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\? AND active=1").
		WithArgs("lena@example.com").
		WillReturnRows(loginRows(t, "pass12345"))
	mock.ExpectExec("UPDATE users SET reset_token_hash=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE users SET reset_token_hash=NULL, reset_token_expires_at=NULL WHERE id=?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(e, http.MethodPost, "/api/v1/users/forgotPassword",
		`{"email":"lena@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func resetTokenRows(plain string, expires time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "role", "reset_token_hash", "reset_token_expires_at",
	}).AddRow(7, "Lena", "lena@example.com", "user", utils.HashResetToken(plain), expires)
}

func TestResetPassword(t *testing.T) {
	e, _, mock := authApp(t, &recordMailer{})
	plain := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

	mock.ExpectQuery("SELECT .+ FROM users WHERE reset_token_hash=\\? AND active=1").
		WithArgs(utils.HashResetToken(plain)).
		WillReturnRows(resetTokenRows(plain, time.Now().Add(5*time.Minute)))
	mock.ExpectExec("UPDATE users SET password_hash=\\?, password_changed_at=NOW\\(\\)").
		WithArgs(sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET reset_token_hash=NULL").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=\\? AND active=1").
		WithArgs(uint64(7)).
		WillReturnRows(storedUserRows())

	rec := doJSON(e, http.MethodPatch, "/api/v1/users/resetPassword/"+plain,
		`{"password":"newpass123","passwordConfirm":"newpass123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPasswordUnknownToken(t *testing.T) {
	e, _, mock := authApp(t, &recordMailer{})

	mock.ExpectQuery("SELECT .+ FROM users WHERE reset_token_hash=\\? AND active=1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := doJSON(e, http.MethodPatch, "/api/v1/users/resetPassword/deadbeef",
		`{"password":"newpass123","passwordConfirm":"newpass123"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "token is invalid or has expired", body.Message)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	e, _, mock := authApp(t, &recordMailer{})
	plain := "feedfacefeedface"

	mock.ExpectQuery("SELECT .+ FROM users WHERE reset_token_hash=\\? AND active=1").
		WillReturnRows(resetTokenRows(plain, time.Now().Add(-time.Minute)))

	rec := doJSON(e, http.MethodPatch, "/api/v1/users/resetPassword/"+plain,
		`{"password":"newpass123","passwordConfirm":"newpass123"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "token is invalid or has expired", body.Message)
}

func TestUpdatePassword(t *testing.T) {
	e, h, mock := authApp(t, &recordMailer{})
	token, _, err := h.Tokens.Issue(7)
	require.NoError(t, err)

	hash, err := utils.HashPassword("oldpass123", bcrypt.MinCost)
	require.NoError(t, err)

	// Protect resolves the subject first, then the handler re-reads the
	// row with the hash to verify the current password.
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=\\? AND active=1").
		WithArgs(uint64(7)).
		WillReturnRows(storedUserRows())
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, email, role, password_hash, password_changed_at FROM users WHERE id=? AND active=1 LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "role", "password_hash", "password_changed_at",
		}).AddRow(7, "Lena", "lena@example.com", "user", hash, time.Now().Add(-time.Hour)))
	mock.ExpectExec("UPDATE users SET password_hash=\\?, password_changed_at=NOW\\(\\)").
		WithArgs(sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=\\? AND active=1").
		WithArgs(uint64(7)).
		WillReturnRows(storedUserRows())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/updatePassword",
		strings.NewReader(`{"passwordCurrent":"oldpass123","password":"newpass123","passwordConfirm":"newpass123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.NotEqual(t, token, body.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePasswordWrongCurrent(t *testing.T) {
	e, h, mock := authApp(t, &recordMailer{})
	token, _, err := h.Tokens.Issue(7)
	require.NoError(t, err)

	hash, err := utils.HashPassword("oldpass123", bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id=\\? AND active=1").
		WithArgs(uint64(7)).
		WillReturnRows(storedUserRows())
	mock.ExpectQuery("SELECT id, name, email, role, password_hash, password_changed_at FROM users").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "role", "password_hash", "password_changed_at",
		}).AddRow(7, "Lena", "lena@example.com", "user", hash, time.Now().Add(-time.Hour)))

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/updatePassword",
		strings.NewReader(`{"passwordCurrent":"not-my-password","password":"newpass123","passwordConfirm":"newpass123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "your current password is wrong", body.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}
