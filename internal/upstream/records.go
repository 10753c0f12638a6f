package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Wire-level records. Decoding is strict: a record with fields we did
// not ask for fails to parse. That is a bit fragile, but it is also how
// we notice unannounced partner changes instead of silently serving
// half-understood data.

type filmRecord struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ReleaseDate json.Number `json:"release_date"`
}

type personRecord struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Films []string `json:"films"`
	URL   string   `json:"url"`
}

func parseFilm(raw json.RawMessage) (Film, error) {
	var record filmRecord
	if err := decodeStrict(raw, &record); err != nil {
		return Film{}, err
	}

	id, err := uuid.Parse(record.ID)
	if err != nil {
		return Film{}, fmt.Errorf("film id: %w", err)
	}
	if record.Title == "" {
		return Film{}, fmt.Errorf("film %s: empty title", record.ID)
	}
	// The partner serves release_date as a quoted year; json.Number
	// accepts it bare as well should they ever fix that.
	year, err := record.ReleaseDate.Int64()
	if err != nil {
		return Film{}, fmt.Errorf("film %s: release_date: %w", record.ID, err)
	}

	return Film{
		ID:          id,
		Title:       record.Title,
		Description: record.Description,
		ReleaseYear: int(year),
	}, nil
}

func parsePerson(raw json.RawMessage) (Person, error) {
	var record personRecord
	if err := decodeStrict(raw, &record); err != nil {
		return Person{}, err
	}

	id, err := uuid.Parse(record.ID)
	if err != nil {
		return Person{}, fmt.Errorf("person id: %w", err)
	}
	if record.Name == "" {
		return Person{}, fmt.Errorf("person %s: empty name", record.ID)
	}

	films := make([]FilmRef, 0, len(record.Films))
	for _, filmURL := range record.Films {
		ref, err := parseFilmRef(filmURL)
		if err != nil {
			return Person{}, fmt.Errorf("person %s: %w", record.ID, err)
		}
		films = append(films, ref)
	}

	return Person{
		ID:    id,
		Name:  record.Name,
		URL:   record.URL,
		Films: films,
	}, nil
}

// parseFilmRef extracts the film UUID from the trailing path segment of
// a film URL. This relies on the partner's URL shape staying put; the
// strict record decoding above is what would tell us if it moved.
func parseFilmRef(filmURL string) (FilmRef, error) {
	idx := strings.LastIndexByte(filmURL, '/')
	if idx < 0 || idx == len(filmURL)-1 {
		return FilmRef{}, fmt.Errorf("film url %q has no id segment", filmURL)
	}

	id, err := uuid.Parse(filmURL[idx+1:])
	if err != nil {
		return FilmRef{}, fmt.Errorf("film url %q: %w", filmURL, err)
	}

	return FilmRef{URL: filmURL, ID: id}, nil
}

func decodeStrict(raw json.RawMessage, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// emitParsed runs every raw record through parse, yielding the good
// ones. Individually bad records are logged and skipped: a partner
// batch with some successes is accepted silently. But if there were
// records and ALL of them failed to parse, that is likely our own
// schema drift, and it surfaces as a partner failure so that callers
// treat the batch as unusable.
func emitParsed[T any](
	logger zerolog.Logger,
	endpoint string,
	records []json.RawMessage,
	parse func(json.RawMessage) (T, error),
	yield func(T, error) bool,
) {
	anySuccess := false
	anyFailure := false

	for _, raw := range records {
		item, err := parse(raw)
		if err != nil {
			// Reasonable minds may disagree on this choice of loglevel
			logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to parse ghibli record.")
			anyFailure = true
			continue
		}

		anySuccess = true
		if !yield(item, nil) {
			return
		}
	}

	if anyFailure && !anySuccess {
		var zero T
		yield(zero, &ApiError{
			Endpoint:  endpoint,
			Cause:     ErrCauseNoRecordParsed,
			Retryable: false,
		})
	}
}
