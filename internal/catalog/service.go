package catalog

/*
Responsibilities

- Own the binding registry and the two bound operations (films, people)
- Serve catalog reads through the cache orchestrator
- Maintain the derived film-to-people lookup off the people cache

The lookup is rebuilt in full inside the people-store callback. Because
the store is upsert-only, a rebuild can only ever see a superset of the
people it saw last time, so the lookup grows monotonically along with
the cache.
*/

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rohmanhakim/ghibli-proxy/internal/cache"
	"github.com/rohmanhakim/ghibli-proxy/internal/upstream"
	"github.com/rohmanhakim/ghibli-proxy/pkg/setutil"
)

type Service struct {
	registry *cache.Registry
	filmsOp  *cache.Operation[upstream.Film]
	peopleOp *cache.Operation[upstream.Person]
	logger   zerolog.Logger

	lookupMu   sync.RWMutex
	filmPeople map[uuid.UUID]setutil.Set[uuid.UUID]
}

// NewService binds the client's fetch operations against registry and
// returns the catalog service. Binding happens exactly once, here; a
// registry shared with another service must not already carry these
// operations.
func NewService(
	registry *cache.Registry,
	client *upstream.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) (*Service, error) {
	service := &Service{
		registry:   registry,
		filmsOp:    client.FilmsOperation(),
		peopleOp:   client.PeopleOperation(),
		logger:     logger.With().Str("component", "catalog").Logger(),
		filmPeople: make(map[uuid.UUID]setutil.Set[uuid.UUID]),
	}

	_, err := cache.Bind(
		registry,
		service.filmsOp,
		cacheTTL,
		func(film upstream.Film) uuid.UUID { return film.ID },
	)
	if err != nil {
		return nil, err
	}

	_, err = cache.Bind(
		registry,
		service.peopleOp,
		cacheTTL,
		func(person upstream.Person) uuid.UUID { return person.ID },
		service.rebuildFilmPeople,
	)
	if err != nil {
		return nil, err
	}

	return service, nil
}

// Films returns every cached film, refreshing first when stale. The
// result is sorted by release year, then title, so list responses stay
// byte-stable between requests served from the same cache state.
func (s *Service) Films(ctx context.Context, opts ...cache.RequestOption) ([]upstream.Film, error) {
	films, err := cache.RequestThroughCache[uuid.UUID](ctx, s.registry, s.filmsOp, opts...)
	if err != nil {
		return nil, err
	}

	sorted := make([]upstream.Film, 0, len(films))
	for _, film := range films {
		sorted = append(sorted, film)
	}
	slices.SortFunc(sorted, func(a, b upstream.Film) int {
		if a.ReleaseYear != b.ReleaseYear {
			return a.ReleaseYear - b.ReleaseYear
		}
		return strings.Compare(a.Title, b.Title)
	})
	return sorted, nil
}

// People returns every cached person, refreshing first when stale,
// sorted by name.
func (s *Service) People(ctx context.Context, opts ...cache.RequestOption) ([]upstream.Person, error) {
	people, err := cache.RequestThroughCache[uuid.UUID](ctx, s.registry, s.peopleOp, opts...)
	if err != nil {
		return nil, err
	}

	sorted := make([]upstream.Person, 0, len(people))
	for _, person := range people {
		sorted = append(sorted, person)
	}
	slices.SortFunc(sorted, func(a, b upstream.Person) int {
		return strings.Compare(a.Name, b.Name)
	})
	return sorted, nil
}

// Film returns a single film by ID. Fails with NotFoundError when the
// (possibly just refreshed) cache does not know the ID.
func (s *Service) Film(ctx context.Context, id uuid.UUID, opts ...cache.RequestOption) (upstream.Film, error) {
	films, err := cache.RequestThroughCache[uuid.UUID](ctx, s.registry, s.filmsOp, opts...)
	if err != nil {
		return upstream.Film{}, err
	}

	film, found := films[id]
	if !found {
		return upstream.Film{}, &NotFoundError{Kind: KindFilm, ID: id}
	}
	return film, nil
}

// Person returns a single person by ID.
func (s *Service) Person(ctx context.Context, id uuid.UUID, opts ...cache.RequestOption) (upstream.Person, error) {
	people, err := cache.RequestThroughCache[uuid.UUID](ctx, s.registry, s.peopleOp, opts...)
	if err != nil {
		return upstream.Person{}, err
	}

	person, found := people[id]
	if !found {
		return upstream.Person{}, &NotFoundError{Kind: KindPerson, ID: id}
	}
	return person, nil
}

// PeopleForFilm answers from the derived lookup without touching the
// partner. The lookup lags the people cache by definition: it knows
// exactly the people some past refresh has seen. The returned IDs are
// sorted for determinism.
func (s *Service) PeopleForFilm(filmID uuid.UUID) []uuid.UUID {
	s.lookupMu.RLock()
	defer s.lookupMu.RUnlock()

	people, found := s.filmPeople[filmID]
	if !found {
		return nil
	}

	ids := people.Items()
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

// rebuildFilmPeople recomputes the film-to-people lookup from the full
// people store. Runs synchronously inside Update, after the store has
// committed the batch.
func (s *Service) rebuildFilmPeople(store *cache.Store[uuid.UUID, upstream.Person]) {
	rebuilt := make(map[uuid.UUID]setutil.Set[uuid.UUID])
	for _, person := range store.All() {
		for _, ref := range person.Films {
			people, found := rebuilt[ref.ID]
			if !found {
				people = setutil.NewSet[uuid.UUID]()
				rebuilt[ref.ID] = people
			}
			people.Add(person.ID)
		}
	}

	s.lookupMu.Lock()
	defer s.lookupMu.Unlock()

	s.filmPeople = rebuilt
	s.logger.Debug().Int("films", len(rebuilt)).Msg("Rebuilt film-people lookup.")
}
