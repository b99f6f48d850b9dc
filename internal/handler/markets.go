package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"matka/internal/middleware"
	"matka/internal/service"
)

type MarketHandler struct {
	Service *service.MarketService
	Admin   gin.HandlerFunc
}

func (h *MarketHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/markets", h.listPublic)

	g := r.Group("/api/v1/admin/markets")
	if h.Admin != nil {
		g.Use(h.Admin)
	}
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.POST("/:id/declare", h.declare)
	g.POST("/:id/reconcile", h.reconcile)
	g.GET("/:id/settlements", h.settlements)
}

type marketRequest struct {
	Name       string    `json:"name"`
	OpenPanna  *string   `json:"open_panna"`
	Jodi       *string   `json:"jodi"`
	ClosePanna *string   `json:"close_panna"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	IsActive   *bool     `json:"is_active"`
}

func (r marketRequest) input(actor string) service.MarketInput {
	return service.MarketInput{
		Name:       r.Name,
		OpenPanna:  r.OpenPanna,
		Jodi:       r.Jodi,
		ClosePanna: r.ClosePanna,
		StartAt:    r.StartAt,
		EndAt:      r.EndAt,
		IsActive:   r.IsActive,
		Actor:      actor,
	}
}

// @Summary List active markets
// @Tags markets
// @Success 200 {object} apiResponse
// @Router /api/v1/markets [get]
func (h *MarketHandler) listPublic(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "market service unavailable", nil)
		return
	}
	items, err := h.Service.List(c.Request.Context(), true)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary List markets
// @Tags admin-markets
// @Security BearerAuth
// @Param active_only query bool false "only active markets"
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/markets [get]
func (h *MarketHandler) list(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "market service unavailable", nil)
		return
	}
	items, err := h.Service.List(c.Request.Context(), boolQueryDefault(c, "active_only", false))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary Create market
// @Tags admin-markets
// @Security BearerAuth
// @Param body body marketRequest true "market"
// @Success 201 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/admin/markets [post]
func (h *MarketHandler) create(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "market service unavailable", nil)
		return
	}
	var req marketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	m, err := h.Service.Create(c.Request.Context(), req.input(middleware.SubjectFrom(c)))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, m)
}

// @Summary Get market
// @Tags admin-markets
// @Security BearerAuth
// @Param id path string true "market id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/admin/markets/{id} [get]
func (h *MarketHandler) get(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "market service unavailable", nil)
		return
	}
	m, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, m, nil)
}

// @Summary Update market
// @Description Result values of a declared market can only be corrected while none of its bets is settled.
// @Tags admin-markets
// @Security BearerAuth
// @Param id path string true "market id"
// @Param body body marketRequest true "fields to change"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/admin/markets/{id} [patch]
func (h *MarketHandler) update(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "market service unavailable", nil)
		return
	}
	var req marketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	m, err := h.Service.Update(c.Request.Context(), c.Param("id"), req.input(middleware.SubjectFrom(c)))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, m, nil)
}

// @Summary Declare market and settle its bets
// @Description Flips the declared flag and queues settlement. Returns before bets are settled.
// @Tags admin-markets
// @Security BearerAuth
// @Param id path string true "market id"
// @Success 202 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/admin/markets/{id}/declare [post]
func (h *MarketHandler) declare(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "market service unavailable", nil)
		return
	}
	m, err := h.Service.DeclareAndSettle(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Accepted(c, m, map[string]any{"settlement": "queued"})
}

// @Summary Re-run settlement for a declared market
// @Tags admin-markets
// @Security BearerAuth
// @Param id path string true "market id"
// @Success 202 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/admin/markets/{id}/reconcile [post]
func (h *MarketHandler) reconcile(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "market service unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if err := h.Service.Resettle(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Accepted(c, map[string]any{"market_id": id}, map[string]any{"settlement": "queued"})
}

// @Summary List settlement runs of a market
// @Tags admin-markets
// @Security BearerAuth
// @Param id path string true "market id"
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/markets/{id}/settlements [get]
func (h *MarketHandler) settlements(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "market service unavailable", nil)
		return
	}
	runs, err := h.Service.ListRuns(c.Request.Context(), c.Param("id"), intQuery(c, "limit", 50))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, runs, map[string]any{"total": len(runs)})
}
