package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/walletauth/internal/auth"
	"github.com/patric-chuzhbe/walletauth/internal/authenticator"
	"github.com/patric-chuzhbe/walletauth/internal/cors"
	"github.com/patric-chuzhbe/walletauth/internal/logger"
	"github.com/patric-chuzhbe/walletauth/internal/models"
	"github.com/patric-chuzhbe/walletauth/internal/ratelimit"
	"github.com/patric-chuzhbe/walletauth/internal/respond"
	"github.com/patric-chuzhbe/walletauth/internal/securityheaders"
	"github.com/patric-chuzhbe/walletauth/internal/service"
	"github.com/patric-chuzhbe/walletauth/internal/user"
)

// MaxBodyBytes caps the size of a request body.
const MaxBodyBytes = 1 << 20

type authService interface {
	Register(ctx context.Context, credentials models.Credentials) (string, error)
	Login(ctx context.Context, credentials models.Credentials) (string, error)
	CurrentUser(ctx context.Context, userID string) (*user.User, error)
	Ping(ctx context.Context) error
}

// Router holds the dependencies of the HTTP handlers.
type Router struct {
	service authService
	auth    authenticator.Authenticator
}

// New builds the HTTP handler tree. Everything under /api passes through
// CORS, then rate limiting keyed by clientIP, then the security headers.
func New(
	svc authService,
	theAuth authenticator.Authenticator,
	limiter ratelimit.Limiter,
	clientIP logger.ClientIPResolver,
	allowedOrigins []string,
) *chi.Mux {
	myRouter := &Router{
		service: svc,
		auth:    theAuth,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware(clientIP),
		recoverer,
	)

	router.Get(`/ping`, myRouter.GetPing)

	router.Route(`/api`, func(api chi.Router) {
		api.Use(
			cors.Middleware(allowedOrigins),
			ratelimit.Middleware(limiter, ratelimit.KeyFunc(clientIP)),
			securityheaders.Middleware,
		)
		api.NotFound(func(response http.ResponseWriter, _ *http.Request) {
			respond.Message(response, http.StatusNotFound, models.MsgNotFound)
		})
		api.MethodNotAllowed(func(response http.ResponseWriter, _ *http.Request) {
			respond.Message(response, http.StatusMethodNotAllowed, models.MsgMethodNotAllowed)
		})

		api.Post(`/auth/register`, myRouter.PostRegister)
		api.Post(`/auth/login`, myRouter.PostLogin)
		api.Post(`/auth/logout`, myRouter.PostLogout)
		api.With(theAuth.AuthenticateUser).Get(`/auth/me`, myRouter.GetMe)
	})

	return router
}

// PostRegister creates an account: 201 on success, 409 when the email is taken.
func (router *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	credentials, err := decodeCredentials(response, request)
	if err == nil {
		_, err = router.service.Register(request.Context(), credentials)
	}
	if err != nil {
		router.writeError(response, request, err, models.MsgInvalidRegisterData)
		return
	}

	respond.Message(response, http.StatusCreated, models.MsgRegistered)
}

// PostLogin verifies credentials and sets the session cookie.
func (router *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	credentials, err := decodeCredentials(response, request)
	var token string
	if err == nil {
		token, err = router.service.Login(request.Context(), credentials)
	}
	if err != nil {
		router.writeError(response, request, err, models.MsgInvalidLoginData)
		return
	}

	router.auth.SetSessionCookie(response, token)
	respond.Message(response, http.StatusOK, models.MsgLoginSuccessful)
}

// PostLogout expires the session cookie.
func (router *Router) PostLogout(response http.ResponseWriter, _ *http.Request) {
	router.auth.ClearSessionCookie(response)
	respond.Message(response, http.StatusOK, models.MsgLogoutSuccessful)
}

// GetMe returns the account of the authenticated session.
func (router *Router) GetMe(response http.ResponseWriter, request *http.Request) {
	claims, ok := auth.ClaimsFromContext(request.Context())
	if !ok {
		respond.Message(response, http.StatusUnauthorized, models.MsgUnauthorized)
		return
	}

	usr, err := router.service.CurrentUser(request.Context(), claims.UserID)
	if err != nil {
		router.writeError(response, request, err, models.MsgUnauthorized)
		return
	}

	respond.JSON(response, http.StatusOK, models.SessionResponse{ID: usr.ID, Email: usr.Email})
}

// GetPing reports whether the credential store is reachable.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.service.Ping(request.Context()); err != nil {
		logger.Log.Errorw("store ping failed", logger.ErrorField(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func decodeCredentials(response http.ResponseWriter, request *http.Request) (models.Credentials, error) {
	var credentials models.Credentials

	request.Body = http.MaxBytesReader(response, request.Body, MaxBodyBytes)
	if err := json.NewDecoder(request.Body).Decode(&credentials); err != nil {
		return credentials, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	return credentials, nil
}

// writeError maps a handler failure to its status and client message.
// invalidInputMessage differs per endpoint.
func (router *Router) writeError(
	response http.ResponseWriter,
	request *http.Request,
	err error,
	invalidInputMessage string,
) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respond.Message(response, http.StatusBadRequest, invalidInputMessage)

	case errors.Is(err, service.ErrConflict):
		respond.Message(response, http.StatusConflict, models.MsgUserExists)

	case errors.Is(err, service.ErrInvalidCredentials):
		respond.Message(response, http.StatusUnauthorized, models.MsgInvalidCredentials)

	case errors.Is(err, service.ErrUnauthorized):
		respond.Message(response, http.StatusUnauthorized, models.MsgUnauthorized)

	default:
		logger.Log.Errorw("request failed",
			"uri", request.RequestURI,
			"request_id", middleware.GetReqID(request.Context()),
			logger.ErrorField(err),
		)
		respond.Message(response, http.StatusInternalServerError, models.MsgInternalError)
	}
}

// recoverer turns a handler panic into the same JSON 500 as any other
// internal failure. http.ErrAbortHandler is re-raised for net/http.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			logger.Log.Errorw("panic while serving request",
				"uri", request.RequestURI,
				"request_id", middleware.GetReqID(request.Context()),
				"panic", rvr,
				zap.StackSkip("stack", 2),
			)
			respond.Message(response, http.StatusInternalServerError, models.MsgInternalError)
		}()

		next.ServeHTTP(response, request)
	})
}
