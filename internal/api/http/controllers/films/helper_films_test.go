package films_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/ghibli-proxy/internal/api/http/controllers/films"
	"github.com/rohmanhakim/ghibli-proxy/internal/cache"
	"github.com/rohmanhakim/ghibli-proxy/internal/catalog"
	"github.com/rohmanhakim/ghibli-proxy/internal/upstream"
	"github.com/rohmanhakim/ghibli-proxy/pkg/limiter"
	"github.com/rohmanhakim/ghibli-proxy/pkg/retry"
	"github.com/rohmanhakim/ghibli-proxy/pkg/timeutil"
)

var (
	laputaID   = uuid.MustParse("2baf70d1-42bb-4437-b551-e5fed5a87abe")
	totoroID   = uuid.MustParse("58611129-2dbc-4a81-a72f-77ddfc1b1b49")
	ashitakaID = uuid.MustParse("ba924631-068e-4436-b6de-f3283fa848f0")
	satsukiID  = uuid.MustParse("986faac6-67e3-4fb8-a9ee-bad077c2e7fe")
)

// newTestRouter stands up a gin engine whose film routes are backed by
// a catalog service talking to a fake partner API.
func newTestRouter(t *testing.T) (*gin.Engine, *atomic.Bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var failing atomic.Bool
	partner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch r.URL.Path {
		case "/films":
			fmt.Fprintf(w, `[
				{"id": %q, "title": "Castle in the Sky", "description": "An orphan and a mysterious crystal.", "release_date": "1986"},
				{"id": %q, "title": "My Neighbor Totoro", "description": "", "release_date": "1988"}
			]`, laputaID, totoroID)
		case "/people":
			fmt.Fprintf(w, `[
				{"id": %q, "name": "Ashitaka", "films": [%q], "url": ""},
				{"id": %q, "name": "Satsuki", "films": [%q], "url": ""}
			]`, ashitakaID, "https://example.org/films/"+laputaID.String(),
				satsukiID, "https://example.org/films/"+totoroID.String())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(partner.Close)

	fastBackoff := timeutil.NewBackoffParam(time.Millisecond, 2.0, 5*time.Millisecond)
	client := upstream.NewClient(
		upstream.ClientParam{
			BaseURL:    partner.URL,
			Timeout:    time.Second,
			RetryParam: retry.NewRetryParam(0, 42, 1, fastBackoff),
		},
		limiter.NewPacer(0, 0, fastBackoff),
		nil,
		zerolog.Nop(),
	)

	service, err := catalog.NewService(cache.NewRegistry(zerolog.Nop()), client, time.Minute, zerolog.Nop())
	require.NoError(t, err)

	router := gin.New()
	films.New(service, zerolog.Nop()).RegisterRoutes(router)
	return router, &failing
}

func doRequest(router *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, target, nil)
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	router.ServeHTTP(recorder, request)
	return recorder
}
