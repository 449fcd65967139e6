// Package api exposes the dashboard's REST surface over the pump data-access
// facade.
package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"github.com/vishnu-krishna/pump-master/internal/mw"
	"github.com/vishnu-krishna/pump-master/internal/notify"
	"github.com/vishnu-krishna/pump-master/internal/pump"
	"github.com/vishnu-krishna/pump-master/internal/remote"
	"github.com/vishnu-krishna/pump-master/internal/session"
	"github.com/vishnu-krishna/pump-master/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	pumps    *pump.Service
	sessions *session.Provider
	subs     notify.SubscriptionStore
	webpush  *webpush.Options
	cache    *mw.ResponseCache
}

// NewHandler creates a new API handler. subs and webpushOptions may be nil
// when push notifications are not configured.
func NewHandler(pumps *pump.Service, sessions *session.Provider, subs notify.SubscriptionStore, webpushOptions *webpush.Options, cache *mw.ResponseCache) *Handler {
	return &Handler{
		pumps:    pumps,
		sessions: sessions,
		subs:     subs,
		webpush:  webpushOptions,
		cache:    cache,
	}
}

// flushCache drops cached GET responses after a mutation.
func (h *Handler) flushCache() {
	if h.cache != nil {
		h.cache.Flush()
	}
}

// respondError maps data-layer failures onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	var statusErr *remote.StatusError
	switch {
	case errors.Is(err, remote.ErrAuthExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "session expired, log in again"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "pump not found"})
	case errors.Is(err, store.ErrInvalidBounds):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.As(err, &statusErr):
		c.JSON(statusErr.Code, gin.H{"message": statusErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}
