package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCookieName = "authToken"
	testTTL        = 30 * 24 * time.Hour
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestBuildAndParseToken(t *testing.T) {
	a := New(testCookieName, testKey, testTTL, false)

	token, err := a.BuildJWTString("user-1", "a@b.com")
	require.NoError(t, err)

	claims, err := a.ParseToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, time.Now().Add(testTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestParseTokenRejects(t *testing.T) {
	a := New(testCookieName, testKey, testTTL, false)

	expired := New(testCookieName, testKey, testTTL, false, WithClock(func() time.Time {
		return time.Now().Add(-31 * 24 * time.Hour)
	}))
	expiredToken, err := expired.BuildJWTString("user-1", "a@b.com")
	require.NoError(t, err)

	forger := New(testCookieName, []byte("another-key-another-key-another-k"), testTTL, false)
	forgedToken, err := forger.BuildJWTString("user-1", "a@b.com")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "expired", token: expiredToken},
		{name: "forged", token: forgedToken},
		{name: "alg_none", token: noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ParseToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSetSessionCookie(t *testing.T) {
	tests := []struct {
		name   string
		secure bool
	}{
		{name: "development", secure: false},
		{name: "production", secure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(testCookieName, testKey, testTTL, tt.secure)
			recorder := httptest.NewRecorder()

			a.SetSessionCookie(recorder, "token-value")

			cookies := recorder.Result().Cookies()
			require.Len(t, cookies, 1)
			cookie := cookies[0]
			assert.Equal(t, testCookieName, cookie.Name)
			assert.Equal(t, "token-value", cookie.Value)
			assert.Equal(t, "/", cookie.Path)
			assert.Equal(t, int(testTTL.Seconds()), cookie.MaxAge)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, tt.secure, cookie.Secure)
			assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		})
	}
}

func TestClearSessionCookie(t *testing.T) {
	a := New(testCookieName, testKey, testTTL, false)
	recorder := httptest.NewRecorder()

	a.ClearSessionCookie(recorder)

	assert.Contains(t, recorder.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestAuthenticateUser(t *testing.T) {
	a := New(testCookieName, testKey, testTTL, false)
	token, err := a.BuildJWTString("user-1", "a@b.com")
	require.NoError(t, err)

	var seen *Claims
	handler := a.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
	}{
		{
			name: "cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "bearer",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+token)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "tampered",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: testCookieName, Value: token + "x"})
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			tt.prepare(request)
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "user-1", seen.UserID)
			} else {
				assert.Nil(t, seen)
				assert.JSONEq(t, `{"message":"Unauthorized"}`, recorder.Body.String())
			}
		})
	}
}
