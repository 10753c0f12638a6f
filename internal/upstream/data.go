package upstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/rohmanhakim/ghibli-proxy/pkg/retry"
)

// Domain records, already validated. IDs are kept exactly as the
// partner sent them; hyperlink-friendly rendering happens at the HTTP
// boundary, not here.

type Film struct {
	ID          uuid.UUID
	Title       string
	Description string
	ReleaseYear int
}

type Person struct {
	ID   uuid.UUID
	Name string
	URL  string
	// The partner serves these as film URLs which merely contain the
	// film UUID, so we carry both forms.
	Films []FilmRef
}

type FilmRef struct {
	URL string
	ID  uuid.UUID
}

// FetchSink captures structured fetch events.
//
// This sink is observational only and MUST NOT be used to derive
// control-flow decisions.
type FetchSink interface {
	RecordFetch(endpoint string, statusCode int, duration time.Duration, retryCount int)
}

// ClientParam holds the transport knobs for the Ghibli client.
// These parameters are passed from outside (e.g., config) and should
// not be defaulted internally.
type ClientParam struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	RetryParam retry.RetryParam
}
