// Package securityheaders sets the browser hardening headers on every response.
package securityheaders

import "net/http"

var headers = map[string]string{
	"Content-Security-Policy": "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'",
	"Referrer-Policy":         "no-referrer",
	"X-Frame-Options":         "DENY",
	"X-Content-Type-Options":  "nosniff",
	"X-XSS-Protection":        "1; mode=block",
}

// Middleware sets the headers before the next handler runs, so they are
// present on error responses too.
func Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		for name, value := range headers {
			response.Header().Set(name, value)
		}
		h.ServeHTTP(response, request)
	})
}
