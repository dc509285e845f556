package examples

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/walletauth/internal/auth"
	"github.com/patric-chuzhbe/walletauth/internal/db/memorystorage"
	"github.com/patric-chuzhbe/walletauth/internal/hasher"
	"github.com/patric-chuzhbe/walletauth/internal/models"
	"github.com/patric-chuzhbe/walletauth/internal/service"
)

func newService() (*service.Service, *auth.Auth) {
	db, err := memorystorage.New()
	if err != nil {
		panic(err)
	}

	h, err := hasher.New(bcrypt.MinCost, 2)
	if err != nil {
		panic(err)
	}

	theAuth := auth.New("authToken", []byte("an-example-signing-key-of-32-bytes"), 30*24*time.Hour, false)

	return service.New(db, h, theAuth), theAuth
}

func Example_registerAndLogin() {
	svc, theAuth := newService()
	ctx := context.Background()

	credentials := models.Credentials{Email: "Alice@Example.com", Password: "correct-horse"}

	if _, err := svc.Register(ctx, credentials); err != nil {
		panic(err)
	}

	token, err := svc.Login(ctx, credentials)
	if err != nil {
		panic(err)
	}

	claims, err := theAuth.ParseToken(token)
	if err != nil {
		panic(err)
	}

	fmt.Println("email in token:", claims.Email)

	// Output:
	// email in token: alice@example.com
}

func Example_duplicateRegistration() {
	svc, _ := newService()
	ctx := context.Background()

	credentials := models.Credentials{Email: "bob@example.com", Password: "correct-horse"}

	_, err := svc.Register(ctx, credentials)
	fmt.Println("first:", err)

	_, err = svc.Register(ctx, models.Credentials{Email: "BOB@example.com", Password: "another-one"})
	fmt.Println("second is a conflict:", errors.Is(err, service.ErrConflict))

	// Output:
	// first: <nil>
	// second is a conflict: true
}

func Example_loginFailure() {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Login(ctx, models.Credentials{Email: "nobody@example.com", Password: "correct-horse"})
	fmt.Println(errors.Is(err, service.ErrInvalidCredentials))

	// Output:
	// true
}
