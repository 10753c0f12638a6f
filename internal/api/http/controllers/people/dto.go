package people

import (
	"github.com/rohmanhakim/ghibli-proxy/internal/upstream"
	"github.com/rohmanhakim/ghibli-proxy/pkg/ident"
)

// PersonResponse is one person (for GET /api/v1/people and
// /people/:id). Film credits are base58 film IDs, resolvable against
// /api/v1/films/:id.
type PersonResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	URL   string   `json:"url,omitempty"`
	Films []string `json:"films"`
}

// PersonListResponse is the people listing envelope.
type PersonListResponse struct {
	Items []PersonResponse `json:"items"`
}

func newPersonResponse(person upstream.Person) PersonResponse {
	films := []string{}
	for _, ref := range person.Films {
		films = append(films, ident.Encode(ref.ID))
	}

	return PersonResponse{
		ID:    ident.Encode(person.ID),
		Name:  person.Name,
		URL:   person.URL,
		Films: films,
	}
}
