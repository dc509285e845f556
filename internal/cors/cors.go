// Package cors answers cross-origin requests for an exact allow-list of origins.
package cors

import (
	"net/http"

	"github.com/thoas/go-funk"
)

const (
	allowedMethods = "GET,POST,PUT,DELETE,OPTIONS"
	allowedHeaders = "Content-Type,Authorization"
)

// Middleware adds CORS headers for requests whose Origin is in allowedOrigins.
// Every OPTIONS request is answered with 204 and goes no further; an origin
// outside the list gets the 204 without any Access-Control headers.
func Middleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			header := response.Header()
			header.Add("Vary", "Origin")

			origin := request.Header.Get("Origin")
			if origin != "" && funk.ContainsString(allowedOrigins, origin) {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", allowedMethods)
				header.Set("Access-Control-Allow-Headers", allowedHeaders)
				header.Set("Access-Control-Allow-Credentials", "true")
			}

			if request.Method == http.MethodOptions {
				response.WriteHeader(http.StatusNoContent)
				return
			}

			h.ServeHTTP(response, request)
		})
	}
}
