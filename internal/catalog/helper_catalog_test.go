package catalog_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/ghibli-proxy/internal/cache"
	"github.com/rohmanhakim/ghibli-proxy/internal/catalog"
	"github.com/rohmanhakim/ghibli-proxy/internal/upstream"
	"github.com/rohmanhakim/ghibli-proxy/pkg/limiter"
	"github.com/rohmanhakim/ghibli-proxy/pkg/retry"
	"github.com/rohmanhakim/ghibli-proxy/pkg/timeutil"
)

var (
	laputa   = uuid.MustParse("2baf70d1-42bb-4437-b551-e5fed5a87abe")
	totoro   = uuid.MustParse("58611129-2dbc-4a81-a72f-77ddfc1b1b49")
	ashitaka = uuid.MustParse("ba924631-068e-4436-b6de-f3283fa848f0")
	satsuki  = uuid.MustParse("986faac6-67e3-4fb8-a9ee-bad077c2e7fe")
	mei      = uuid.MustParse("d5df3c04-f355-4038-833c-83bd3502b6b9")
)

func filmJSON(id uuid.UUID, title string, year int) string {
	return fmt.Sprintf(
		`{"id": %q, "title": %q, "description": "", "release_date": "%d"}`,
		id, title, year,
	)
}

func personJSON(serverURL string, id uuid.UUID, name string, films ...uuid.UUID) string {
	refs := ""
	for i, filmID := range films {
		if i > 0 {
			refs += ", "
		}
		refs += fmt.Sprintf("%q", serverURL+"/films/"+filmID.String())
	}
	return fmt.Sprintf(
		`{"id": %q, "name": %q, "films": [%s], "url": %q}`,
		id, name, refs, serverURL+"/people/"+id.String(),
	)
}

// ghibliServer fakes the partner API. The payloads are swappable
// between requests and each endpoint counts how often it was hit.
type ghibliServer struct {
	*httptest.Server

	mu         sync.Mutex
	filmsBody  string
	peopleBody string

	filmsHits  atomic.Int32
	peopleHits atomic.Int32
	failing    atomic.Bool
}

func newGhibliServer(t *testing.T) *ghibliServer {
	t.Helper()

	server := &ghibliServer{}
	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if server.failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		server.mu.Lock()
		defer server.mu.Unlock()

		switch r.URL.Path {
		case "/films":
			server.filmsHits.Add(1)
			_, _ = w.Write([]byte(server.filmsBody))
		case "/people":
			server.peopleHits.Add(1)
			_, _ = w.Write([]byte(server.peopleBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	server.serveFilms(
		filmJSON(totoro, "My Neighbor Totoro", 1988),
		filmJSON(laputa, "Castle in the Sky", 1986),
	)
	server.servePeople(
		personJSON(server.URL, ashitaka, "Ashitaka", laputa),
		personJSON(server.URL, satsuki, "Satsuki", totoro),
		personJSON(server.URL, mei, "Mei", totoro),
	)
	return server
}

func (s *ghibliServer) serveFilms(records ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filmsBody = "["
	for i, record := range records {
		if i > 0 {
			s.filmsBody += ", "
		}
		s.filmsBody += record
	}
	s.filmsBody += "]"
}

func (s *ghibliServer) servePeople(records ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.peopleBody = "["
	for i, record := range records {
		if i > 0 {
			s.peopleBody += ", "
		}
		s.peopleBody += record
	}
	s.peopleBody += "]"
}

func newTestService(t *testing.T, server *ghibliServer, cacheTTL time.Duration) *catalog.Service {
	t.Helper()
	return newServiceWithRegistry(t, server, cache.NewRegistry(zerolog.Nop()), cacheTTL)
}

func newServiceWithRegistry(
	t *testing.T,
	server *ghibliServer,
	registry *cache.Registry,
	cacheTTL time.Duration,
) *catalog.Service {
	t.Helper()

	fastBackoff := timeutil.NewBackoffParam(time.Millisecond, 2.0, 5*time.Millisecond)
	client := upstream.NewClient(
		upstream.ClientParam{
			BaseURL:    server.URL,
			Timeout:    time.Second,
			RetryParam: retry.NewRetryParam(0, 42, 1, fastBackoff),
		},
		limiter.NewPacer(0, 0, fastBackoff),
		nil,
		zerolog.Nop(),
	)

	service, err := catalog.NewService(registry, client, cacheTTL, zerolog.Nop())
	require.NoError(t, err)
	return service
}

// forceRefresh judges the cache stale against a nanosecond TTL, forcing
// the next request through to the fake partner.
func forceRefresh() cache.RequestOption {
	return cache.WithTTLOverride(time.Nanosecond)
}
