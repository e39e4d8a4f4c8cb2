package eventstore

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"notifstore/internal/access"
	"notifstore/internal/logger"
	"notifstore/internal/model"
	apperrors "notifstore/pkg/errors"
)

type Handler struct {
	Service Service
	Logger  logger.Logger
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(apperrors.ToHTTPStatus(err), apperrors.ToErrorResponse(err))
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1/notifications")
	{
		events := v1.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.GetEvents)
			events.DELETE("", h.DeleteEvents)
			events.GET("/:id", h.GetEvent)
			events.PUT("/:id", h.UpdateEvent)
			events.POST("/:id/status", h.RecordDeliveryStatus)
		}
	}
}

type createEventRequest struct {
	EventID string                  `json:"event_id,omitempty"`
	Event   model.NotificationEvent `json:"event" binding:"required"`
}

type updateEventRequest struct {
	Event model.NotificationEvent `json:"event" binding:"required"`
}

type recordStatusRequest struct {
	StatusList []model.ChannelStatus `json:"status_list" binding:"required"`
}

var reservedParams = map[string]bool{
	"event_id":      true,
	"event_id_list": true,
	"from_index":    true,
	"max_items":     true,
	"sort_field":    true,
	"sort_order":    true,
	"query":         true,
	"text_query":    true,
}

// CreateEvent godoc
// @Summary      Record a notification event
// @Tags         notification-events
// @Accept       json
// @Produce      json
// @Param        event  body      createEventRequest  true  "Event to record"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]interface{}
// @Router       /notifications/events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, apperrors.ErrValidation.WithMessage("%s", err.Error()))
		return
	}

	id, err := h.Service.Create(c.Request.Context(), access.UserFromContext(c), CreateEventRequest{
		EventID: req.EventID,
		Event:   req.Event,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": id})
}

// GetEvents godoc
// @Summary      Search notification events
// @Description  List, filter and sort events, or fetch specific ids via event_id_list
// @Tags         notification-events
// @Produce      json
// @Success      200  {object}  model.EventSearchResult
// @Failure      400  {object}  map[string]interface{}
// @Router       /notifications/events [get]
func (h *Handler) GetEvents(c *gin.Context) {
	q := GetEventsQuery{
		Filters:   filterParams(c),
		Query:     c.Query("query"),
		TextQuery: c.Query("text_query"),
		SortField: c.Query("sort_field"),
		SortOrder: c.Query("sort_order"),
		FromIndex: intParam(c, "from_index", 0),
		MaxItems:  intParam(c, "max_items", 0),
	}

	result, err := h.Service.Get(c.Request.Context(), access.UserFromContext(c), idListParam(c), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetEvent godoc
// @Summary      Get one notification event
// @Tags         notification-events
// @Produce      json
// @Param        id   path      string  true  "Event id"
// @Success      200  {object}  model.EventSearchResult
// @Failure      404  {object}  map[string]interface{}
// @Router       /notifications/events/{id} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	result, err := h.Service.Get(c.Request.Context(), access.UserFromContext(c),
		[]string{c.Param("id")}, GetEventsQuery{})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateEvent godoc
// @Summary      Replace a notification event
// @Tags         notification-events
// @Accept       json
// @Produce      json
// @Param        id     path      string              true  "Event id"
// @Param        event  body      updateEventRequest  true  "New event payload"
// @Success      200    {object}  map[string]string
// @Failure      404    {object}  map[string]interface{}
// @Router       /notifications/events/{id} [put]
func (h *Handler) UpdateEvent(c *gin.Context) {
	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, apperrors.ErrValidation.WithMessage("%s", err.Error()))
		return
	}

	id, err := h.Service.Update(c.Request.Context(), access.UserFromContext(c), c.Param("id"), req.Event)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": id})
}

// RecordDeliveryStatus godoc
// @Summary      Record delivery outcomes for an event
// @Description  Merge per-channel delivery statuses into an existing event
// @Tags         notification-events
// @Accept       json
// @Produce      json
// @Param        id      path      string               true  "Event id"
// @Param        status  body      recordStatusRequest  true  "Channel statuses"
// @Success      200     {object}  map[string]string
// @Failure      404     {object}  map[string]interface{}
// @Router       /notifications/events/{id}/status [post]
func (h *Handler) RecordDeliveryStatus(c *gin.Context) {
	var req recordStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, apperrors.ErrValidation.WithMessage("%s", err.Error()))
		return
	}

	id := c.Param("id")
	if err := h.Service.RecordDeliveryStatus(c.Request.Context(), access.UserFromContext(c), id, req.StatusList); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": id})
}

// DeleteEvents godoc
// @Summary      Delete notification events in bulk
// @Description  Delete every event named in event_id_list; fails without deleting anything if any id is missing
// @Tags         notification-events
// @Produce      json
// @Param        event_id_list  query     string  true  "Comma-separated event ids"
// @Success      200            {object}  map[string]interface{}
// @Failure      404            {object}  map[string]interface{}
// @Router       /notifications/events [delete]
func (h *Handler) DeleteEvents(c *gin.Context) {
	ids := idListParam(c)
	if len(ids) == 0 {
		h.handleError(c, apperrors.ErrValidation.WithMessage("event_id_list is required"))
		return
	}

	statuses, err := h.Service.Delete(c.Request.Context(), access.UserFromContext(c), ids)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delete_response_list": statuses})
}

func idListParam(c *gin.Context) []string {
	raw := c.Query("event_id_list")
	if raw == "" {
		raw = c.Query("event_id")
	}
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func filterParams(c *gin.Context) map[string]string {
	filters := make(map[string]string)
	for name, values := range c.Request.URL.Query() {
		if reservedParams[name] || len(values) == 0 {
			continue
		}
		filters[name] = values[0]
	}
	return filters
}

func intParam(c *gin.Context, name string, fallback int64) int64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
