package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"matka/internal/repository"
	"matka/internal/service"
)

const switchPrefix = "feature."

type SystemSettingsHandler struct {
	Repo     repository.SystemSettingRepository
	Settings *service.SystemSettingsService
	Admin    gin.HandlerFunc
}

func (h *SystemSettingsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/admin/system-settings")
	if h.Admin != nil {
		g.Use(h.Admin)
	}
	g.GET("", h.list)
	g.GET("/switches", h.listSwitches)
	g.GET("/switches/:name", h.getSwitch)
	g.PUT("/switches/:name", h.putSwitch)
}

// @Summary List system settings
// @Tags admin-settings
// @Security BearerAuth
// @Param prefix query string false "key prefix"
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/system-settings [get]
func (h *SystemSettingsHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 200)
	offset := intQuery(c, "offset", 0)
	var prefix *string
	if v := strings.TrimSpace(c.Query("prefix")); v != "" {
		prefix = &v
	}
	params := repository.ListSystemSettingsParams{
		Limit:   limit,
		Offset:  offset,
		Prefix:  prefix,
		OrderBy: "key",
		Asc:     boolPtr(true),
	}
	items, err := h.Repo.ListSystemSettings(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountSystemSettings(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary List feature switches
// @Tags admin-settings
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/system-settings/switches [get]
func (h *SystemSettingsHandler) listSwitches(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	prefix := switchPrefix
	items, err := h.Repo.ListSystemSettings(c.Request.Context(), repository.ListSystemSettingsParams{
		Limit:   200,
		Prefix:  &prefix,
		OrderBy: "key",
		Asc:     boolPtr(true),
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		enabled := false
		_ = json.Unmarshal(it.Value, &enabled)
		out = append(out, map[string]any{
			"name":       strings.TrimPrefix(it.Key, switchPrefix),
			"key":        it.Key,
			"enabled":    enabled,
			"updated_at": it.UpdatedAt,
		})
	}
	Ok(c, out, nil)
}

// @Summary Get feature switch
// @Tags admin-settings
// @Security BearerAuth
// @Param name path string true "switch name without the feature. prefix"
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/system-settings/switches/{name} [get]
func (h *SystemSettingsHandler) getSwitch(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "settings service unavailable", nil)
		return
	}
	name, key, ok := switchKey(c)
	if !ok {
		return
	}
	fallback := service.DefaultFeatureSwitches()[key]
	Ok(c, map[string]any{
		"name":    name,
		"key":     key,
		"enabled": h.Settings.IsEnabled(c.Request.Context(), key, fallback),
	}, nil)
}

type putSwitchRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// @Summary Set feature switch
// @Tags admin-settings
// @Security BearerAuth
// @Param name path string true "switch name without the feature. prefix"
// @Param body body putSwitchRequest true "switch value"
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/system-settings/switches/{name} [put]
func (h *SystemSettingsHandler) putSwitch(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "settings service unavailable", nil)
		return
	}
	name, key, ok := switchKey(c)
	if !ok {
		return
	}
	var req putSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Settings.SetEnabled(c.Request.Context(), key, *req.Enabled); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{
		"name":    name,
		"key":     key,
		"enabled": *req.Enabled,
	}, nil)
}

// switchKey only admits the switches the service knows about.
func switchKey(c *gin.Context) (string, string, bool) {
	name := strings.TrimSpace(c.Param("name"))
	key := switchPrefix + name
	if _, known := service.DefaultFeatureSwitches()[key]; name == "" || !known {
		Error(c, http.StatusNotFound, "unknown switch", nil)
		return "", "", false
	}
	return name, key, true
}
