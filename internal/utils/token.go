package utils // helpers for credential issuing and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Verify for any token that fails
// signature, shape or expiry checks. Callers should not distinguish
// further; the response is 401 either way.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService issues and verifies the HS256 session tokens the API
// uses as bearer credentials. Tokens are stateless: the subject id,
// issued-at and expiry live in the claims, and invalidation after a
// password change is enforced by comparing iat against the user's
// password_changed_at at verification time (middleware.Protect).
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a TokenService signing with secret and
// issuing tokens valid for ttlMin minutes.
func NewTokenService(secret string, ttlMin int) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: time.Duration(ttlMin) * time.Minute}
}

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	UserID   uint64
	IssuedAt time.Time
	Expires  time.Time
}

// Issue signs a token for the given user. Claims carry the subject
// (sub), issued-at (iat) and expiry (exp) as Unix timestamps.
func (s *TokenService) Issue(userID uint64) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates a raw token string. Only HMAC-signed
// tokens are accepted; anything else fails with ErrInvalidToken.
func (s *TokenService) Verify(raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}

	var out TokenClaims
	switch sub := claims["sub"].(type) {
	case string:
		n, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return TokenClaims{}, ErrInvalidToken
		}
		out.UserID = n
	case float64:
		out.UserID = uint64(sub)
	default:
		return TokenClaims{}, ErrInvalidToken
	}
	if iat, ok := claims["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.Expires = time.Unix(int64(exp), 0).UTC()
	}
	if out.UserID == 0 {
		return TokenClaims{}, ErrInvalidToken
	}
	return out, nil
}
