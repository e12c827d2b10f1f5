package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/models/user"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultCookieName = "session-token"

var ErrInvalidToken = errors.New("недействительный токен сессии")

type Claims struct {
	Name   string `json:"name,omitempty"`
	UserID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// Authority выпускает и проверяет stateless-токены, сервер ничего не хранит
type Authority struct {
	secret     []byte
	ttl        time.Duration
	issuer     string
	cookieName string
	now        func() time.Time
}

type Option func(*Authority)

func WithCookieName(name string) Option {
	return func(a *Authority) {
		if name != "" {
			a.cookieName = name
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		a.now = now
	}
}

func New(secret string, ttl time.Duration, issuer string, opts ...Option) *Authority {
	a := &Authority{
		secret:     []byte(secret),
		ttl:        ttl,
		issuer:     issuer,
		cookieName: DefaultCookieName,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authority) CookieName() string {
	return a.cookieName
}

func (a *Authority) Issue(identity user.Identity) (string, time.Time, error) {
	if identity.Email == "" {
		return "", time.Time{}, errors.New("выпуск токена: пустой email")
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)

	claims := Claims{
		Name:   identity.Name,
		UserID: identity.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Email,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("подпись токена: %w", err)
	}
	return token, expiresAt, nil
}

func (a *Authority) Parse(tokenString string) (user.Identity, time.Time, error) {
	claims := &Claims{}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, parserOpts...)
	if err != nil {
		return user.Identity{}, time.Time{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return user.Identity{}, time.Time{}, ErrInvalidToken
	}

	identity := user.Identity{
		ID:    claims.UserID,
		Name:  claims.Name,
		Email: claims.Subject,
	}
	return identity, claims.ExpiresAt.Time, nil
}

// Validate достаёт токен из cookie или заголовка Authorization.
// Любая проблема с токеном означает "не аутентифицирован", а не ошибку.
func (a *Authority) Validate(r *http.Request) (user.Identity, bool) {
	identity, _, ok := a.Current(r)
	return identity, ok
}

// Current то же, что Validate, но дополнительно отдаёт срок жизни токена.
// Cookie проверяется первой; если она просрочена или испорчена, пробуем Bearer.
func (a *Authority) Current(r *http.Request) (user.Identity, time.Time, bool) {
	for _, tokenString := range a.tokensFromRequest(r) {
		identity, expiresAt, err := a.Parse(tokenString)
		if err == nil {
			return identity, expiresAt, true
		}
	}
	return user.Identity{}, time.Time{}, false
}

func (a *Authority) tokensFromRequest(r *http.Request) []string {
	var tokens []string
	if cookie, err := r.Cookie(a.cookieName); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if token := strings.TrimSpace(parts[1]); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func (a *Authority) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *Authority) ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
