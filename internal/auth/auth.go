// Package auth issues and verifies signed session tokens and carries them
// in an HTTP cookie. Tokens are signed, not encrypted: they hold only the
// user id and email. The server keeps no session state, so logout means
// the browser drops the cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/walletauth/internal/logger"
	"github.com/patric-chuzhbe/walletauth/internal/models"
	"github.com/patric-chuzhbe/walletauth/internal/respond"
)

// ErrInvalidToken is returned for a missing, malformed, forged or expired token.
var ErrInvalidToken = errors.New("invalid session token")

// Auth signs session tokens and manages the session cookie.
type Auth struct {
	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// signingKey is the HMAC key used to sign JWTs.
	signingKey []byte

	// ttl is both the token lifetime and the cookie Max-Age.
	ttl time.Duration

	// secureCookie sets the Secure attribute; on in production.
	secureCookie bool

	now func() time.Time
}

// Claims represents the JWT claims used by the system.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// ClaimsKey is the context key holding the *Claims of an authenticated request.
const ClaimsKey ContextKey = "claims"

// InitOption configures New.
type InitOption func(*Auth)

// WithClock replaces time.Now. Tests use it to produce expired tokens.
func WithClock(now func() time.Time) InitOption {
	return func(a *Auth) {
		a.now = now
	}
}

// New creates an Auth with the given cookie name, signing key and token lifetime.
func New(
	authCookieName string,
	signingKey []byte,
	ttl time.Duration,
	secureCookie bool,
	optionsProto ...InitOption,
) *Auth {
	a := &Auth{
		authCookieName: authCookieName,
		signingKey:     signingKey,
		ttl:            ttl,
		secureCookie:   secureCookie,
		now:            time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(a)
	}

	return a
}

// BuildJWTString mints a token for the user valid for the configured lifetime.
func (a *Auth) BuildJWTString(userID, email string) (string, error) {
	issuedAt := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(a.ttl)),
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parser := jwt.Parser{}
	token, err := parser.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(a.now()) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SetSessionCookie attaches the token as an httpOnly, SameSite=Strict cookie.
func (a *Auth) SetSessionCookie(response http.ResponseWriter, token string) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(a.ttl.Seconds()),
			HttpOnly: true,
			Secure:   a.secureCookie,
			SameSite: http.SameSiteStrictMode,
		},
	)
}

// ClearSessionCookie tells the browser to drop the session cookie.
func (a *Auth) ClearSessionCookie(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   a.secureCookie,
			SameSite: http.SameSiteStrictMode,
		},
	)
}

// AuthenticateUser is an HTTP middleware that verifies the session token
// found in the cookie or the Authorization header and stores its claims in
// the request context. Requests without a valid token get 401.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		claims, err := a.ParseToken(a.getTokenStringFromCookieOrAuthorizationHeader(request))
		if err != nil {
			logger.Log.Debugw("rejected session token", zap.Error(err))
			respond.Message(response, http.StatusUnauthorized, models.MsgUnauthorized)
			return
		}

		ctx := context.WithValue(request.Context(), ClaimsKey, claims)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// ClaimsFromContext returns the claims stored by AuthenticateUser.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

func (a *Auth) getTokenStringFromCookieOrAuthorizationHeader(request *http.Request) string {
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authorization := request.Header.Get("Authorization")
	if token, found := strings.CutPrefix(authorization, "Bearer "); found {
		return strings.TrimSpace(token)
	}

	return ""
}
