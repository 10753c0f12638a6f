package films

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rohmanhakim/ghibli-proxy/internal/api/http/controllers/respond"
	"github.com/rohmanhakim/ghibli-proxy/internal/catalog"
	"github.com/rohmanhakim/ghibli-proxy/pkg/hashutil"
	"github.com/rohmanhakim/ghibli-proxy/pkg/ident"
)

// Controller serves the film routes. Every response is assembled from
// the catalog service; a film carries its credited people, resolved
// through the derived lookup.
type Controller struct {
	service *catalog.Service
	logger  zerolog.Logger
}

func New(service *catalog.Service, logger zerolog.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger.With().Str("component", "films").Logger(),
	}
}

func (c *Controller) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.GET("/films", c.list)
	api.GET("/films/:id", c.get)
}

func (c *Controller) list(ctx *gin.Context) {
	films, err := c.service.Films(ctx.Request.Context())
	if err != nil {
		respond.Error(ctx, c.logger, err)
		return
	}
	names, err := c.personNames(ctx)
	if err != nil {
		respond.Error(ctx, c.logger, err)
		return
	}

	response := FilmListResponse{Items: []FilmResponse{}}
	for _, film := range films {
		response.Items = append(response.Items, newFilmResponse(film, c.service, names))
	}

	body, err := json.Marshal(response)
	if err != nil {
		respond.Error(ctx, c.logger, err)
		return
	}
	respond.JSONWithETag(ctx, hashutil.ETag(body), body)
}

func (c *Controller) get(ctx *gin.Context) {
	id, err := ident.Decode(ctx.Param("id"))
	if err != nil {
		respond.BadRequest(ctx, "invalid film id")
		return
	}

	film, err := c.service.Film(ctx.Request.Context(), id)
	if err != nil {
		respond.Error(ctx, c.logger, err)
		return
	}
	names, err := c.personNames(ctx)
	if err != nil {
		respond.Error(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, newFilmResponse(film, c.service, names))
}

// personNames refreshes the people cache as a side effect, which is
// what keeps the film-people lookup warm for newFilmResponse.
func (c *Controller) personNames(ctx *gin.Context) (map[string]string, error) {
	people, err := c.service.People(ctx.Request.Context())
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(people))
	for _, person := range people {
		names[ident.Encode(person.ID)] = person.Name
	}
	return names, nil
}
