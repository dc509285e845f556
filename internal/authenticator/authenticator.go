// Package authenticator declares what the HTTP layer needs from the session machinery.
package authenticator

import "net/http"

type Authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	SetSessionCookie(response http.ResponseWriter, token string)
	ClearSessionCookie(response http.ResponseWriter)
}
