package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"matka/internal/service"
	"matka/internal/settlement"
)

type RatingHandler struct {
	Service *service.RatingService
	Admin   gin.HandlerFunc
}

func (h *RatingHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/ratings", h.listPublic)
	r.GET("/api/v1/ratings/types", h.types)

	g := r.Group("/api/v1/admin/ratings")
	if h.Admin != nil {
		g.Use(h.Admin)
	}
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
}

type ratingRequest struct {
	Name     string           `json:"name"`
	Type     string           `json:"type"`
	ConvertA *decimal.Decimal `json:"convert_a"`
	ConvertB *decimal.Decimal `json:"convert_b"`
	IsActive *bool            `json:"is_active"`
}

func (r ratingRequest) input() service.RatingInput {
	return service.RatingInput{
		Name:     r.Name,
		Type:     r.Type,
		ConvertA: r.ConvertA,
		ConvertB: r.ConvertB,
		IsActive: r.IsActive,
	}
}

// @Summary List active ratings
// @Tags ratings
// @Success 200 {object} apiResponse
// @Router /api/v1/ratings [get]
func (h *RatingHandler) listPublic(c *gin.Context) {
	h.listWith(c, true)
}

// @Summary List rating types
// @Tags ratings
// @Success 200 {object} apiResponse
// @Router /api/v1/ratings/types [get]
func (h *RatingHandler) types(c *gin.Context) {
	Ok(c, settlement.RatingTypeNames(), nil)
}

// @Summary List ratings
// @Tags admin-ratings
// @Security BearerAuth
// @Param active_only query bool false "only active ratings"
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/ratings [get]
func (h *RatingHandler) list(c *gin.Context) {
	h.listWith(c, boolQueryDefault(c, "active_only", false))
}

func (h *RatingHandler) listWith(c *gin.Context, activeOnly bool) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "rating service unavailable", nil)
		return
	}
	items, err := h.Service.List(c.Request.Context(), activeOnly)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary Create rating
// @Tags admin-ratings
// @Security BearerAuth
// @Param body body ratingRequest true "rating"
// @Success 201 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/admin/ratings [post]
func (h *RatingHandler) create(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "rating service unavailable", nil)
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.Create(c.Request.Context(), req.input())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, item)
}

// @Summary Get rating
// @Tags admin-ratings
// @Security BearerAuth
// @Param id path string true "rating id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/admin/ratings/{id} [get]
func (h *RatingHandler) get(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "rating service unavailable", nil)
		return
	}
	item, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Update rating
// @Tags admin-ratings
// @Security BearerAuth
// @Param id path string true "rating id"
// @Param body body ratingRequest true "fields to change"
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/ratings/{id} [patch]
func (h *RatingHandler) update(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "rating service unavailable", nil)
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, item, nil)
}
