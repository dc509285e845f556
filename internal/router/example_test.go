package router

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

func ExampleRouter_GetPing() {
	server, _ := setupTestRouter()
	defer server.Close()

	resp, err := http.Get(server.URL + "/ping")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 200
}

func ExampleRouter_PostRegister() {
	server, _ := setupTestRouter()
	defer server.Close()

	resp, err := http.Post(
		server.URL+"/api/auth/register",
		"application/json",
		strings.NewReader(`{"email":"alice@example.com","password":"correct-horse"}`),
	)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Print("Body: ", string(b))

	// Output:
	// Status Code: 201
	// Body: {"message":"User registered successfully"}
}

func ExampleRouter_PostLogin() {
	server, _ := setupTestRouter()
	defer server.Close()

	body := `{"email":"alice@example.com","password":"correct-horse"}`

	resp, err := http.Post(server.URL+"/api/auth/register", "application/json", strings.NewReader(body))
	if err != nil {
		panic(err)
	}
	resp.Body.Close()

	resp, err = http.Post(server.URL+"/api/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == testCookieName {
			sessionCookie = c
		}
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Session cookie set:", sessionCookie != nil && sessionCookie.Value != "")
	fmt.Println("HttpOnly:", sessionCookie.HttpOnly)

	// Output:
	// Status Code: 200
	// Session cookie set: true
	// HttpOnly: true
}
