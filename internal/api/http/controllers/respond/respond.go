// Package respond holds the error translation shared by all
// controllers, so the status mapping lives in exactly one place.
package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rohmanhakim/ghibli-proxy/internal/catalog"
	"github.com/rohmanhakim/ghibli-proxy/pkg/failure"
)

// Error maps a catalog failure onto an HTTP status:
//   - unknown ID                        -> 404
//   - partner down with nothing cached  -> 503
//   - anything else                     -> 500
//
// A partner outage with a warm cache never reaches this function; the
// cache layer swallows it and serves stale data.
func Error(ctx *gin.Context, logger zerolog.Logger, err error) {
	var notFound *catalog.NotFoundError
	if errors.As(err, &notFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}

	if failure.IsPartnerUnavailable(err) {
		logger.Warn().Err(err).Msg("Partner unavailable and no cache to fall back on.")
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream unavailable"})
		return
	}

	logger.Error().Err(err).Msg("Request failed.")
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// BadRequest reports a malformed client input, typically an ID that is
// not valid base58.
func BadRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// JSONWithETag writes body as JSON with a content-derived ETag, or a
// 304 when the client already holds the current representation.
func JSONWithETag(ctx *gin.Context, etag string, body []byte) {
	ctx.Header("ETag", etag)
	if match := ctx.GetHeader("If-None-Match"); match != "" && match == etag {
		ctx.Status(http.StatusNotModified)
		return
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
