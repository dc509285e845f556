package secrets

import "log"

type credentials struct {
	Email    string
	Password string
}

func logAll(c credentials, jwtSecret string, attempts int) {
	log.Println("login attempt", c.Email, attempts)
	log.Println("login attempt", c.Password) // want "Password looks like a credential and must not be logged"
	log.Printf("key %s", jwtSecret)          // want "jwtSecret looks like a credential and must not be logged"
	log.Printf("password length %d", len(c.Password))
}
