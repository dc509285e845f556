// Package logger provides structured logging functionality
// using the Uber zap logging library. It supports log levels, a development
// and a production output format, and an HTTP request logging middleware.
package logger

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type responseData struct {
	status int
	size   int
}

type loggingResponseWriter struct {
	http.ResponseWriter
	responseData *responseData
}

// Log is a global SugaredLogger instance from the zap logging library.
// Log should be initialized via Init(); until then it discards everything.
var Log = zap.NewNop().Sugar()

var verbose bool

// ClientIPResolver extracts the client address the request is attributed to.
type ClientIPResolver func(request *http.Request) string

// Write implements the io.Writer interface for logger middleware.
// It writes log data to the underlying logger, capturing response size.
func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

// WriteHeader writes the HTTP status code to the response and remembers it.
func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.responseData.status = statusCode
}

// Init initializes the global logger. In development the console encoder is
// used and error causes are logged verbosely; otherwise JSON output is produced.
func Init(level string, development bool) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl.Sugar()
	verbose = development

	return nil
}

// Sync flushes any buffered log entries to the output.
// It should be called when shutting down to ensure all logs are written.
func Sync() error {
	if err := Log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}

	return nil
}

// ErrorField returns the zap field used to report err. Development builds
// keep the full cause chain, production only the message.
func ErrorField(err error) zap.Field {
	if verbose {
		return zap.Error(err)
	}
	if err == nil {
		return zap.Skip()
	}

	return zap.String("error", err.Error())
}

// WithLoggingHTTPMiddleware returns a middleware that logs method, URI,
// status, duration, size, client address and request id of every request.
func WithLoggingHTTPMiddleware(clientIP ClientIPResolver) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		logFn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			responseData := &responseData{
				status: 0,
				size:   0,
			}
			lw := loggingResponseWriter{
				ResponseWriter: w,
				responseData:   responseData,
			}
			h.ServeHTTP(&lw, r)

			duration := time.Since(start)

			ip := ""
			if clientIP != nil {
				ip = clientIP(r)
			}

			Log.Infow(
				"request served",
				"uri", r.RequestURI,
				"method", r.Method,
				"status", responseData.status,
				"duration", duration,
				"size", responseData.size,
				"ip", ip,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}

		return http.HandlerFunc(logFn)
	}
}
