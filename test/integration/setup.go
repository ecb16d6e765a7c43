package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	redisContainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sp3dr4/shortin/internal/application"
	redisCache "github.com/sp3dr4/shortin/internal/infrastructure/redis"
	"github.com/sp3dr4/shortin/internal/infrastructure/upstream"
	"github.com/sp3dr4/shortin/internal/pkg/metrics"
)

var (
	sharedContainer *redisContainer.RedisContainer
	sharedClient    *redis.Client
	containerOnce   sync.Once
	cleanupOnce     sync.Once
)

// TestEnvironment holds the test setup
type TestEnvironment struct {
	Client  *redis.Client
	Cache   *redisCache.RedisCache
	API     *FakeLinkAPI
	Service *application.LinkService
}

// FakeLinkAPI is an in-process stand-in for the external link API that counts lookups.
type FakeLinkAPI struct {
	*httptest.Server
	lookups atomic.Int32
}

// Lookups returns how many GET /{code} requests reached the API
func (f *FakeLinkAPI) Lookups() int {
	return int(f.lookups.Load())
}

func newFakeLinkAPI(t *testing.T) *FakeLinkAPI {
	f := &FakeLinkAPI{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		code := strings.TrimPrefix(r.URL.Path, "/")

		switch {
		case r.Method == http.MethodGet && code == "missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"Short URL not found"}`)
		case r.Method == http.MethodGet:
			f.lookups.Add(1)
			_, _ = io.WriteString(w, `{"id":"1","url":"https://example.com","shortCode":"`+code+`","count":0}`)
		case r.Method == http.MethodPut:
			_, _ = io.WriteString(w, `{"id":"1","url":"https://example.org","shortCode":"`+code+`","count":0}`)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

// SetupTestEnvironment starts a Redis container (shared), flushes it, and returns a LinkService
// backed by it and by a fake link API
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	containerOnce.Do(func() {
		ctx := context.Background()

		container, err := redisContainer.Run(ctx,
			"redis:7-alpine",
			testcontainers.WithWaitStrategy(
				wait.ForLog("Ready to accept connections").
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			t.Fatalf("failed to start redis container: %v", err)
		}
		sharedContainer = container

		connStr, err := container.ConnectionString(ctx)
		if err != nil {
			t.Fatalf("failed to get connection string: %v", err)
		}

		opts, err := redis.ParseURL(connStr)
		if err != nil {
			t.Fatalf("failed to parse connection string: %v", err)
		}
		sharedClient = redis.NewClient(opts)
	})

	if sharedClient == nil {
		t.Fatal("redis container is not available")
	}
	if err := sharedClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := newFakeLinkAPI(t)
	cache := redisCache.NewRedisCache(sharedClient, logger)
	client := upstream.NewClient(api.URL, 5*time.Second, logger)
	service := application.NewLinkService(client, cache, time.Minute, metrics.NewNoOpRegistry(), logger)

	return &TestEnvironment{
		Client:  sharedClient,
		Cache:   cache,
		API:     api,
		Service: service,
	}
}

// CleanupSharedResources should be called once at the end of all tests
func CleanupSharedResources() {
	cleanupOnce.Do(func() {
		ctx := context.Background()
		if sharedClient != nil {
			_ = sharedClient.Close()
		}
		if sharedContainer != nil {
			_ = sharedContainer.Terminate(ctx)
		}
	})
}
