package router

import (
	"net/http/httptest"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/walletauth/internal/auth"
	"github.com/patric-chuzhbe/walletauth/internal/db/memorystorage"
	"github.com/patric-chuzhbe/walletauth/internal/db/storage"
	"github.com/patric-chuzhbe/walletauth/internal/hasher"
	"github.com/patric-chuzhbe/walletauth/internal/ipchecker"
	"github.com/patric-chuzhbe/walletauth/internal/ratelimit"
	"github.com/patric-chuzhbe/walletauth/internal/service"
)

const (
	testCookieName = "authToken"
	testOrigin     = "http://localhost:3000"
	testSessionTTL = 30 * 24 * time.Hour
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type initOption func(*initOptions)

type initOptions struct {
	storage  storage.Storage
	rateMax  int
	rateSpan time.Duration
}

func withStorage(db storage.Storage) initOption {
	return func(options *initOptions) {
		options.storage = db
	}
}

func withRateLimit(max int, span time.Duration) initOption {
	return func(options *initOptions) {
		options.rateMax = max
		options.rateSpan = span
	}
}

func newTestAuth() *auth.Auth {
	return auth.New(testCookieName, testKey, testSessionTTL, false)
}

// setupTestRouter starts a server wired like production, with an in-memory
// store and limiter unless overridden. The returned store is nil when a
// custom one was injected.
func setupTestRouter(optionsProto ...initOption) (*httptest.Server, *memorystorage.MemoryStorage) {
	options := &initOptions{
		rateMax:  100,
		rateSpan: 15 * time.Minute,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	var memDB *memorystorage.MemoryStorage
	db := options.storage
	if db == nil {
		var err error
		memDB, err = memorystorage.New()
		if err != nil {
			panic(err)
		}
		db = memDB
	}

	h, err := hasher.New(bcrypt.MinCost, 4)
	if err != nil {
		panic(err)
	}

	theAuth := newTestAuth()

	svc := service.New(db, h, theAuth)

	checker, err := ipchecker.New("")
	if err != nil {
		panic(err)
	}

	router := New(
		svc,
		theAuth,
		ratelimit.NewMemory(options.rateMax, options.rateSpan),
		checker.ClientIPString,
		[]string{testOrigin},
	)

	return httptest.NewServer(router), memDB
}
