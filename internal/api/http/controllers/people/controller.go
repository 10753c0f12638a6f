package people

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

type Controller struct {
	service *catalog.Service
	logger  zerolog.Logger
}

func New(service *catalog.Service, logger zerolog.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger.With().Str("component", "people").Logger(),
	}
}

func (c *Controller) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.GET("/people", c.list)
	api.GET("/people/:id", c.get)
}

func (c *Controller) list(ctx *gin.Context) {
	persons, err := c.service.People(ctx.Request.Context())
	if err != nil {
		respond.Error(ctx, c.logger, err)
		return
	}

	response := PersonListResponse{Items: []PersonResponse{}}
	for _, person := range persons {
		response.Items = append(response.Items, newPersonResponse(person))
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
		respond.BadRequest(ctx, "invalid person id")
		return
	}

	person, err := c.service.Person(ctx.Request.Context(), id)
	if err != nil {
		respond.Error(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, newPersonResponse(person))
}
