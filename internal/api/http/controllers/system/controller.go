package system

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rohmanhakim/ghibli-proxy/internal/build"
)

// Controller serves the system routes: health, version, metrics.
type Controller struct{}

func New() *Controller {
	return &Controller{}
}

func (c *Controller) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", c.health)
	r.GET("/version", c.version)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// health reports liveness only. It deliberately does not probe the
// partner: the proxy is healthy while serving from cache even when the
// partner is down.
func (c *Controller) health(ctx *gin.Context) {
	ctx.String(http.StatusOK, "ok")
}

func (c *Controller) version(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"version":    build.Version,
		"commit":     build.Commit,
		"build_time": build.BuildTime,
	})
}
