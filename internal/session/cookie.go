package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "hammer_session"

var ErrInvalidCookie = errors.New("session: invalid cookie")

type cookieClaims struct {
	Token string `json:"tok"`
	jwt.RegisteredClaims
}

// CookieCodec signs credentials into an HS256 token for the session cookie.
type CookieCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewCookieCodec(secret string, ttl time.Duration) *CookieCodec {
	return &CookieCodec{key: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *CookieCodec) Encode(creds Credentials) (string, error) {
	now := c.now()
	claims := cookieClaims{
		Token: creds.Token,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   creds.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

func (c *CookieCodec) Decode(raw string) (Credentials, error) {
	var claims cookieClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if claims.Token == "" {
		return Credentials{}, ErrInvalidCookie
	}
	return Credentials{Token: claims.Token, Username: claims.Subject}, nil
}

func (c *CookieCodec) TTL() time.Duration {
	return c.ttl
}

// CookieStore binds a Session to one HTTP request/response pair.
type CookieStore struct {
	W      http.ResponseWriter
	R      *http.Request
	Codec  *CookieCodec
	Secure bool
}

// Load treats a missing, tampered or expired cookie as an anonymous session.
func (s CookieStore) Load() (Credentials, error) {
	c, err := s.R.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Credentials{}, nil
	}
	creds, err := s.Codec.Decode(c.Value)
	if err != nil {
		return Credentials{}, nil
	}
	return creds, nil
}

func (s CookieStore) Save(creds Credentials) error {
	value, err := s.Codec.Encode(creds)
	if err != nil {
		return err
	}
	http.SetCookie(s.W, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.Codec.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s CookieStore) Clear() error {
	http.SetCookie(s.W, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
