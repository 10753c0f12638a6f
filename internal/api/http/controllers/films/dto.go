package films

import (
	"github.com/rohmanhakim/ghibli-proxy/internal/catalog"
	"github.com/rohmanhakim/ghibli-proxy/internal/upstream"
	"github.com/rohmanhakim/ghibli-proxy/pkg/ident"
)

// PersonRef is one credited person on a film.
type PersonRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FilmResponse is one film (for GET /api/v1/films and /films/:id).
// IDs are base58-encoded so they read cleanly inside URLs.
type FilmResponse struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ReleaseYear int         `json:"release_year"`
	People      []PersonRef `json:"people"`
}

// FilmListResponse is the films listing envelope.
type FilmListResponse struct {
	Items []FilmResponse `json:"items"`
}

func newFilmResponse(film upstream.Film, service *catalog.Service, names map[string]string) FilmResponse {
	people := []PersonRef{}
	for _, personID := range service.PeopleForFilm(film.ID) {
		encoded := ident.Encode(personID)
		people = append(people, PersonRef{
			ID:   encoded,
			Name: names[encoded],
		})
	}

	return FilmResponse{
		ID:          ident.Encode(film.ID),
		Title:       film.Title,
		Description: film.Description,
		ReleaseYear: film.ReleaseYear,
		People:      people,
	}
}
