package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rohmanhakim/ghibli-proxy/internal/api/http/middlewares"
)

// Controller registers its own routes on the router.
type Controller interface {
	RegisterRoutes(r *gin.Engine)
}

type Server struct {
	addr        string
	controllers []Controller
	logger      zerolog.Logger
	srv         *http.Server
}

func NewServer(addr string, logger zerolog.Logger) *Server {
	return &Server{
		addr:   addr,
		logger: logger.With().Str("component", "http").Logger(),
	}
}

func (s *Server) AddController(c ...Controller) {
	s.controllers = append(s.controllers, c...)
}

// Start builds the router, serves until ctx is cancelled, then shuts
// down gracefully, letting in-flight requests finish.
func (s *Server) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	// Read-only API, so the CORS surface is small: any origin may GET.
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Accept", "If-None-Match"},
	}))
	r.Use(middlewares.RequestLogger(s.logger))
	r.Use(middlewares.PrometheusMetrics)
	for _, c := range s.controllers {
		c.RegisterRoutes(r)
	}

	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()
	s.logger.Info().Str("addr", s.addr).Msg("HTTP server listening.")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
