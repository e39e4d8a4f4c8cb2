package configstore

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

type BaseHandler struct {
	Logger logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := apperrors.ToHTTPStatus(err)
	response := apperrors.ToErrorResponse(err)

	c.JSON(status, response)
}

type Handler struct {
	BaseHandler
	Service Service
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: BaseHandler{Logger: log},
		Service:     service,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1/notifications")
	{
		configs := v1.Group("/configs")
		{
			configs.POST("", h.CreateConfig)
			configs.GET("", h.GetConfigs)
			configs.DELETE("", h.DeleteConfigs)
			configs.GET("/:id", h.GetConfig)
			configs.PUT("/:id", h.UpdateConfig)
			configs.DELETE("/:id", h.DeleteConfig)
		}
		v1.GET("/channels/:feature", h.GetFeatureChannelList)
	}
}

type createConfigRequest struct {
	ConfigID string                   `json:"config_id,omitempty"`
	Config   model.NotificationConfig `json:"config" binding:"required"`
}

type updateConfigRequest struct {
	Config model.NotificationConfig `json:"config" binding:"required"`
}

// query parameter names that are not filter fields
var reservedParams = map[string]bool{
	"config_id":      true,
	"config_id_list": true,
	"from_index":     true,
	"max_items":      true,
	"sort_field":     true,
	"sort_order":     true,
	"query":          true,
	"text_query":     true,
}

// CreateConfig godoc
// @Summary      Create a notification config
// @Description  Store a new notification config, optionally under a caller-chosen id
// @Tags         notification-configs
// @Accept       json
// @Produce      json
// @Param        config  body      createConfigRequest  true  "Config to create"
// @Success      200     {object}  map[string]string
// @Failure      400     {object}  map[string]interface{}
// @Failure      409     {object}  map[string]interface{}
// @Router       /notifications/configs [post]
func (h *Handler) CreateConfig(c *gin.Context) {
	var req createConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, apperrors.ErrValidation.WithMessage("%s", err.Error()))
		return
	}

	id, err := h.Service.Create(c.Request.Context(), access.UserFromContext(c), CreateConfigRequest{
		ConfigID: req.ConfigID,
		Config:   req.Config,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config_id": id})
}

// GetConfigs godoc
// @Summary      Search notification configs
// @Description  List, filter and sort configs, or fetch specific ids via config_id_list
// @Tags         notification-configs
// @Produce      json
// @Success      200  {object}  model.ConfigSearchResult
// @Failure      400  {object}  map[string]interface{}
// @Router       /notifications/configs [get]
func (h *Handler) GetConfigs(c *gin.Context) {
	ids := idListParam(c)
	q := GetConfigsQuery{
		Filters:   filterParams(c),
		Query:     c.Query("query"),
		TextQuery: c.Query("text_query"),
		SortField: c.Query("sort_field"),
		SortOrder: c.Query("sort_order"),
		FromIndex: intParam(c, "from_index", 0),
		MaxItems:  intParam(c, "max_items", 0),
	}

	result, err := h.Service.Get(c.Request.Context(), access.UserFromContext(c), ids, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetConfig godoc
// @Summary      Get one notification config
// @Tags         notification-configs
// @Produce      json
// @Param        id   path      string  true  "Config id"
// @Success      200  {object}  model.ConfigSearchResult
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /notifications/configs/{id} [get]
func (h *Handler) GetConfig(c *gin.Context) {
	result, err := h.Service.Get(c.Request.Context(), access.UserFromContext(c),
		[]string{c.Param("id")}, GetConfigsQuery{})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateConfig godoc
// @Summary      Update a notification config
// @Description  Replace the config payload; the config type is immutable
// @Tags         notification-configs
// @Accept       json
// @Produce      json
// @Param        id      path      string               true  "Config id"
// @Param        config  body      updateConfigRequest  true  "New config payload"
// @Success      200     {object}  map[string]string
// @Failure      404     {object}  map[string]interface{}
// @Failure      409     {object}  map[string]interface{}
// @Router       /notifications/configs/{id} [put]
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, apperrors.ErrValidation.WithMessage("%s", err.Error()))
		return
	}

	id, err := h.Service.Update(c.Request.Context(), access.UserFromContext(c), c.Param("id"), req.Config)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config_id": id})
}

// DeleteConfig godoc
// @Summary      Delete one notification config
// @Tags         notification-configs
// @Produce      json
// @Param        id   path      string  true  "Config id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /notifications/configs/{id} [delete]
func (h *Handler) DeleteConfig(c *gin.Context) {
	id := c.Param("id")
	if err := h.Service.Delete(c.Request.Context(), access.UserFromContext(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delete_response_list": gin.H{id: "OK"}})
}

// DeleteConfigs godoc
// @Summary      Delete notification configs in bulk
// @Description  Delete every config named in config_id_list; fails without deleting anything if any id is missing
// @Tags         notification-configs
// @Produce      json
// @Param        config_id_list  query     string  true  "Comma-separated config ids"
// @Success      200             {object}  map[string]interface{}
// @Failure      404             {object}  map[string]interface{}
// @Router       /notifications/configs [delete]
func (h *Handler) DeleteConfigs(c *gin.Context) {
	ids := idListParam(c)
	if len(ids) == 0 {
		h.HandleError(c, apperrors.ErrValidation.WithMessage("config_id_list is required"))
		return
	}

	statuses, err := h.Service.DeleteBulk(c.Request.Context(), access.UserFromContext(c), ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delete_response_list": statuses})
}

// GetFeatureChannelList godoc
// @Summary      List delivery channels for a feature
// @Tags         notification-configs
// @Produce      json
// @Param        feature  path      string  true  "Feature name"
// @Success      200      {object}  model.ChannelList
// @Failure      403      {object}  map[string]interface{}
// @Router       /notifications/channels/{feature} [get]
func (h *Handler) GetFeatureChannelList(c *gin.Context) {
	channels, err := h.Service.GetFeatureChannelList(c.Request.Context(),
		access.UserFromContext(c), c.Param("feature"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

func idListParam(c *gin.Context) []string {
	raw := c.Query("config_id_list")
	if raw == "" {
		raw = c.Query("config_id")
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
