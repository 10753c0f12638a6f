package upstream

/*
Responsibilities

- Perform HTTP requests against the Ghibli API
- Apply headers, timeouts, retries, and pacing
- Classify failures as partner-linked or not
- Hand validated records to the cache layer as lazy sequences

The client implements no caching. Its operations simply perform
requests; only call them when you know you need to hit the partner's
servers. Cached access goes through the cache orchestrator instead.
*/

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rohmanhakim/ghibli-proxy/internal/cache"
	"github.com/rohmanhakim/ghibli-proxy/pkg/failure"
	"github.com/rohmanhakim/ghibli-proxy/pkg/limiter"
	"github.com/rohmanhakim/ghibli-proxy/pkg/retry"
)

// We only ask for the fields we parse. Spelling them out keeps partner
// payloads small and makes our schema expectations explicit.
var (
	filmFields   = []string{"id", "title", "release_date", "description"}
	personFields = []string{"id", "name", "films", "url"}
)

type Client struct {
	param      ClientParam
	httpClient *http.Client
	pacer      *limiter.Pacer
	fetchSink  FetchSink
	logger     zerolog.Logger
}

func NewClient(
	param ClientParam,
	pacer *limiter.Pacer,
	fetchSink FetchSink,
	logger zerolog.Logger,
) *Client {
	return &Client{
		param: param,
		httpClient: &http.Client{
			Timeout: param.Timeout,
		},
		pacer:     pacer,
		fetchSink: fetchSink,
		logger:    logger.With().Str("component", "upstream").Logger(),
	}
}

// AllFilms returns a lazy sequence of every film in the Studio Ghibli
// filmography. The request happens when the sequence is drained, not
// when AllFilms is called.
//
// In a larger API we would expect to handle pagination here; sequences
// would make that easy to hide from the caller.
func (c *Client) AllFilms(ctx context.Context) iter.Seq2[Film, error] {
	return func(yield func(Film, error) bool) {
		records, err := c.getRecords(ctx, "/films", filmFields)
		if err != nil {
			yield(Film{}, err)
			return
		}
		emitParsed(c.logger, "/films", records, parseFilm, yield)
	}
}

// AllPeople returns a lazy sequence of every person appearing in the
// films, with the film references already resolved to UUIDs.
func (c *Client) AllPeople(ctx context.Context) iter.Seq2[Person, error] {
	return func(yield func(Person, error) bool) {
		records, err := c.getRecords(ctx, "/people", personFields)
		if err != nil {
			yield(Person{}, err)
			return
		}
		emitParsed(c.logger, "/people", records, parsePerson, yield)
	}
}

// FilmsOperation wraps AllFilms as a bindable cache operation.
func (c *Client) FilmsOperation() *cache.Operation[Film] {
	return cache.NewOperation("films", c.AllFilms)
}

// PeopleOperation wraps AllPeople as a bindable cache operation.
func (c *Client) PeopleOperation() *cache.Operation[Person] {
	return cache.NewOperation("people", c.AllPeople)
}

// getRecords fetches one endpoint and decodes the response body as a
// JSON array of raw records, retrying transport-level failures. The
// pacer spaces attempts out so a struggling partner is not hammered.
func (c *Client) getRecords(
	ctx context.Context,
	endpoint string,
	fields []string,
) ([]json.RawMessage, failure.ClassifiedError) {
	startTime := time.Now()
	attempts := 0

	records, err := retry.Retry(ctx, c.param.RetryParam, func() ([]json.RawMessage, failure.ClassifiedError) {
		attempts++
		return c.getRecordsOnce(ctx, endpoint, fields)
	})

	if c.fetchSink != nil {
		statusCode := http.StatusOK
		if err != nil {
			statusCode = statusCodeOf(err)
		}
		c.fetchSink.RecordFetch(endpoint, statusCode, time.Since(startTime), attempts-1)
	}

	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Upstream fetch failed.")
		return nil, err
	}
	return records, nil
}

func (c *Client) getRecordsOnce(
	ctx context.Context,
	endpoint string,
	fields []string,
) ([]json.RawMessage, failure.ClassifiedError) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, &RequestCancelledError{Endpoint: endpoint, Err: err}
	}
	c.pacer.MarkLastRequestAsNow()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(endpoint, fields), nil)
	if err != nil {
		// A malformed base URL is a configuration bug, not the partner's fault.
		return nil, &RequestCancelledError{Endpoint: endpoint, Err: err}
	}
	request.Header.Set("Accept", "application/json")
	if c.param.UserAgent != "" {
		request.Header.Set("User-Agent", c.param.UserAgent)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			// The caller gave up; don't dress that up as partner downtime.
			return nil, &RequestCancelledError{Endpoint: endpoint, Err: ctx.Err()}
		}
		c.pacer.Backoff()
		return nil, &ApiError{
			Endpoint:  endpoint,
			Cause:     ErrCauseConnection,
			Retryable: true,
			Err:       err,
		}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		c.pacer.Backoff()
		return nil, &ApiError{
			Endpoint:   endpoint,
			StatusCode: response.StatusCode,
			Cause:      ErrCauseStatus,
			Retryable:  isStatusRetryable(response.StatusCode),
		}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		c.pacer.Backoff()
		return nil, &ApiError{
			Endpoint:  endpoint,
			Cause:     ErrCauseConnection,
			Retryable: true,
			Err:       err,
		}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		// Undecodable payload: the partner is "up" but unusable.
		// Retrying won't make their response parse.
		c.pacer.Backoff()
		return nil, &ApiError{
			Endpoint:  endpoint,
			Cause:     ErrCauseUndecodable,
			Retryable: false,
			Err:       err,
		}
	}

	c.pacer.ResetBackoff()
	return records, nil
}

func (c *Client) endpointURL(endpoint string, fields []string) string {
	query := url.Values{}
	// Normalize the field list into a comma-separated string; the
	// partner 500s on repeated query keys.
	query.Set("fields", strings.Join(fields, ","))
	return c.param.BaseURL + endpoint + "?" + query.Encode()
}

func isStatusRetryable(statusCode int) bool {
	return statusCode >= http.StatusInternalServerError ||
		statusCode == http.StatusTooManyRequests
}

func statusCodeOf(err error) int {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
