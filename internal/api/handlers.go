package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"notification-orchestrator/internal/logging"
	"notification-orchestrator/internal/models"
	"notification-orchestrator/internal/services"
	"notification-orchestrator/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type Handler struct {
	svc    *services.Service
	logger *logging.Logger
}

func NewHandler(svc *services.Service, logger *logging.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// GetFeeds serves a freshly orchestrated set of feeds. It never fails: any
// orchestration problem yields empty feeds.
func (h *Handler) GetFeeds(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Feeds(c.Request.Context()))
}

func (h *Handler) ListNotifications(c *gin.Context) {
	notifications, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	h.logger.Debugf("Listed %d notifications", len(notifications))
	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) GetNotification(c *gin.Context) {
	id := c.Param("id")
	n, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to get notification")
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) CreateNotification(c *gin.Context) {
	var n models.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		h.logger.Errorf("Invalid request body for notification: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	stored, err := h.svc.Ingest(c.Request.Context(), n.Stored())
	if err != nil {
		h.fail(c, err, "Failed to create notification")
		return
	}
	c.JSON(http.StatusCreated, stored)
}

func (h *Handler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to mark notification read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	if err := h.svc.MarkAllRead(c.Request.Context()); err != nil {
		h.fail(c, err, "Failed to mark notifications read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Dismiss(c *gin.Context) {
	if err := h.svc.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to dismiss notification")
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscribe upgrades to a websocket and registers the client for published
// feeds. The current feeds are always the first message it receives.
func (h *Handler) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	id, err := h.svc.Subscribe(c.Request.Context(), conn)
	if err != nil {
		h.logger.Errorf("Websocket subscribe failed: %v", err)
		if errors.Is(err, services.ErrTooManySubscribers) {
			msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many subscribers")
			_ = conn.WriteMessage(websocket.CloseMessage, msg)
		}
		_ = conn.Close()
		return
	}
	defer h.svc.WebSockets().RemoveConnection(id)

	// Clients never send anything meaningful; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidNotification):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("%s: %v", msg, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
