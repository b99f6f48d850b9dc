package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"matka/internal/middleware"
	"matka/internal/repository"
	"matka/internal/service"
)

type CustomerHandler struct {
	Customers *service.CustomerService
	Betting   *service.BettingService
	JWT       middleware.JWT
	// Customer guards the routes a signed-in customer (or an admin) may call.
	Customer gin.HandlerFunc
}

func (h *CustomerHandler) Register(r *gin.Engine) {
	pub := r.Group("/api/v1/customer")
	pub.POST("/signup", h.signup)
	pub.POST("/login", h.login)

	g := r.Group("/api/v1/customer")
	if h.Customer != nil {
		g.Use(h.Customer)
	}
	g.POST("/betting", h.placeBet)
	g.GET("/profile/:id", h.profile)
	g.GET("/balance/:id", h.balance)
	g.GET("/betting/history/:id", h.history)
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type placeBetRequest struct {
	CustomerID   string          `json:"customer_id" binding:"required"`
	MarketID     string          `json:"market_id" binding:"required"`
	RatingID     string          `json:"rating_id" binding:"required"`
	ChosenNumber string          `json:"choosen_number" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
}

// @Summary Customer signup
// @Tags customers
// @Param body body signupRequest true "signup"
// @Success 201 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/customer/signup [post]
func (h *CustomerHandler) signup(c *gin.Context) {
	if h.Customers == nil {
		Error(c, http.StatusInternalServerError, "customer service unavailable", nil)
		return
	}
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	cust, err := h.Customers.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, cust)
}

// @Summary Customer login
// @Tags customers
// @Param body body loginRequest true "credentials"
// @Success 200 {object} apiResponse
// @Failure 401 {object} apiResponse
// @Router /api/v1/customer/login [post]
func (h *CustomerHandler) login(c *gin.Context) {
	if h.Customers == nil {
		Error(c, http.StatusInternalServerError, "customer service unavailable", nil)
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	cust, err := h.Customers.Authenticate(c.Request.Context(), req.Mobile, req.Password)
	if err != nil {
		Error(c, http.StatusUnauthorized, "invalid mobile or password", nil)
		return
	}
	tok, exp, err := h.JWT.Sign(cust.ID, middleware.RoleCustomer)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to sign token", nil)
		return
	}
	Ok(c, map[string]any{
		"customer":   cust,
		"token":      tok,
		"expires_at": exp.UTC().Format(time.RFC3339),
	}, nil)
}

// @Summary Place a bet
// @Tags customers
// @Security BearerAuth
// @Param body body placeBetRequest true "bet"
// @Success 201 {object} apiResponse
// @Failure 403 {object} apiResponse
// @Router /api/v1/customer/betting [post]
func (h *CustomerHandler) placeBet(c *gin.Context) {
	if h.Betting == nil {
		Error(c, http.StatusInternalServerError, "betting service unavailable", nil)
		return
	}
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if !middleware.CanActFor(c, req.CustomerID) {
		Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	bet, err := h.Betting.Place(c.Request.Context(), service.PlaceBetInput{
		CustomerID:   req.CustomerID,
		MarketID:     req.MarketID,
		RatingID:     req.RatingID,
		ChosenNumber: req.ChosenNumber,
		Amount:       req.Amount,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, bet)
}

// @Summary Customer profile
// @Tags customers
// @Security BearerAuth
// @Param id path string true "customer id"
// @Success 200 {object} apiResponse
// @Router /api/v1/customer/profile/{id} [get]
func (h *CustomerHandler) profile(c *gin.Context) {
	id, ok := h.customerParam(c)
	if !ok {
		return
	}
	cust, err := h.Customers.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, cust, nil)
}

// @Summary Customer balance
// @Tags customers
// @Security BearerAuth
// @Param id path string true "customer id"
// @Success 200 {object} apiResponse
// @Router /api/v1/customer/balance/{id} [get]
func (h *CustomerHandler) balance(c *gin.Context) {
	id, ok := h.customerParam(c)
	if !ok {
		return
	}
	amount, err := h.Customers.Balance(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, map[string]any{"customer_id": id, "balance_amount": amount}, nil)
}

// @Summary Customer bet history
// @Tags customers
// @Security BearerAuth
// @Param id path string true "customer id"
// @Param market_id query string false "market filter"
// @Param result query string false "Pending, win or loss"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/customer/betting/history/{id} [get]
func (h *CustomerHandler) history(c *gin.Context) {
	id, ok := h.customerParam(c)
	if !ok {
		return
	}
	params := repository.ListBetHistoryParams{
		Limit:      intQuery(c, "limit", 50),
		Offset:     intQuery(c, "offset", 0),
		CustomerID: id,
	}
	if v := strings.TrimSpace(c.Query("market_id")); v != "" {
		params.MarketID = &v
	}
	if v := strings.TrimSpace(c.Query("result")); v != "" {
		params.Result = &v
	}
	rows, err := h.Customers.History(c.Request.Context(), params)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, rows, map[string]any{"limit": params.Limit, "offset": params.Offset})
}

func (h *CustomerHandler) customerParam(c *gin.Context) (string, bool) {
	if h.Customers == nil {
		Error(c, http.StatusInternalServerError, "customer service unavailable", nil)
		return "", false
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "invalid customer id", nil)
		return "", false
	}
	if !middleware.CanActFor(c, id) {
		Error(c, http.StatusForbidden, "forbidden", nil)
		return "", false
	}
	return id, true
}
