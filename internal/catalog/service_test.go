package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/ghibli-proxy/internal/cache"
	"github.com/rohmanhakim/ghibli-proxy/internal/catalog"
)

const testTTL = time.Minute

func TestFilmsSortedByReleaseYear(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	films, err := service.Films(context.Background())
	require.NoError(t, err)

	require.Len(t, films, 2)
	assert.Equal(t, "Castle in the Sky", films[0].Title)
	assert.Equal(t, "My Neighbor Totoro", films[1].Title)
}

func TestFilmsServedFromCacheWhileFresh(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	_, err := service.Films(context.Background())
	require.NoError(t, err)
	_, err = service.Films(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), server.filmsHits.Load())
}

func TestFilmByID(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	film, err := service.Film(context.Background(), laputa)
	require.NoError(t, err)
	assert.Equal(t, "Castle in the Sky", film.Title)
	assert.Equal(t, 1986, film.ReleaseYear)
}

func TestFilmByUnknownID(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	_, err := service.Film(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, &catalog.NotFoundError{}))

	var notFound *catalog.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, catalog.KindFilm, notFound.Kind)
}

func TestPersonByID(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	person, err := service.Person(context.Background(), ashitaka)
	require.NoError(t, err)
	assert.Equal(t, "Ashitaka", person.Name)
	require.Len(t, person.Films, 1)
	assert.Equal(t, laputa, person.Films[0].ID)
}

func TestPeopleSortedByName(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	people, err := service.People(context.Background())
	require.NoError(t, err)

	require.Len(t, people, 3)
	assert.Equal(t, "Ashitaka", people[0].Name)
	assert.Equal(t, "Mei", people[1].Name)
	assert.Equal(t, "Satsuki", people[2].Name)
}

func TestPeopleForFilmBeforeAnyRefresh(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	// The lookup is derived from the people cache, and nothing has been
	// fetched yet.
	assert.Nil(t, service.PeopleForFilm(totoro))
}

func TestPeopleForFilm(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	_, err := service.People(context.Background())
	require.NoError(t, err)

	ids := service.PeopleForFilm(totoro)
	require.Len(t, ids, 2)
	assert.Contains(t, ids, satsuki)
	assert.Contains(t, ids, mei)

	assert.Equal(t, []uuid.UUID{ashitaka}, service.PeopleForFilm(laputa))
	assert.Nil(t, service.PeopleForFilm(uuid.New()))
}

func TestPeopleForFilmIsSorted(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	_, err := service.People(context.Background())
	require.NoError(t, err)

	first := service.PeopleForFilm(totoro)
	second := service.PeopleForFilm(totoro)
	assert.Equal(t, first, second)
	assert.True(t, first[0].String() < first[1].String())
}

func TestPeopleForFilmGrowsAcrossRefreshes(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	_, err := service.People(context.Background())
	require.NoError(t, err)
	require.Len(t, service.PeopleForFilm(totoro), 2)

	// The partner starts answering with a reduced cast. The cache is
	// upsert-only, so the refresh adds Ashitaka's new credit without
	// forgetting anyone already known.
	server.servePeople(
		personJSON(server.URL, ashitaka, "Ashitaka", laputa, totoro),
	)
	time.Sleep(time.Millisecond)

	_, err = service.People(context.Background(), forceRefresh())
	require.NoError(t, err)

	assert.Len(t, service.PeopleForFilm(totoro), 3)
	assert.Equal(t, int32(2), server.peopleHits.Load())
}

func TestFilmsStaleFallbackOnPartnerOutage(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)

	_, err := service.Films(context.Background())
	require.NoError(t, err)

	server.failing.Store(true)
	time.Sleep(time.Millisecond)

	films, err := service.Films(context.Background(), forceRefresh())
	require.NoError(t, err)
	assert.Len(t, films, 2)
}

func TestFilmsOutageWithEmptyCachePropagates(t *testing.T) {
	server := newGhibliServer(t)
	server.failing.Store(true)
	service := newTestService(t, server, testTTL)

	_, err := service.Films(context.Background())
	require.Error(t, err)
}

func TestServiceBindingsAreExclusive(t *testing.T) {
	server := newGhibliServer(t)
	service := newTestService(t, server, testTTL)
	_ = service

	// A second service on a fresh registry is fine; the exclusivity is
	// per registry and per operation, and every client carries its own
	// operation handles.
	second := newTestService(t, server, testTTL)
	_, err := second.Films(context.Background())
	require.NoError(t, err)
}

func TestRefreshObserverSeesCatalogTraffic(t *testing.T) {
	server := newGhibliServer(t)

	registry := cache.NewRegistry(zerolog.Nop())
	var outcomes []cache.RefreshOutcome
	registry.SetRefreshObserver(func(operation string, outcome cache.RefreshOutcome) {
		outcomes = append(outcomes, outcome)
	})

	service := newServiceWithRegistry(t, server, registry, testTTL)

	_, err := service.Films(context.Background())
	require.NoError(t, err)
	_, err = service.Films(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []cache.RefreshOutcome{cache.OutcomeRefreshed, cache.OutcomeHit}, outcomes)
}
