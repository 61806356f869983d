package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/securepay/gateway/internal/errors"
	"github.com/securepay/gateway/internal/flow"
	"github.com/securepay/gateway/internal/intent"
	"github.com/securepay/gateway/internal/ledger"
	"github.com/securepay/gateway/internal/market"
	"github.com/securepay/gateway/internal/middleware"
	"github.com/securepay/gateway/internal/models"
	"github.com/securepay/gateway/internal/services"
	"github.com/securepay/gateway/internal/session"
)

type Handler struct {
	views    *services.ViewService
	flows    *flow.Manager
	sessions *session.Store
	ledger   *ledger.Client
}

func NewHandler(views *services.ViewService, flows *flow.Manager, sessions *session.Store, ledgerClient *ledger.Client) *Handler {
	return &Handler{
		views:    views,
		flows:    flows,
		sessions: sessions,
		ledger:   ledgerClient,
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	c.JSON(appErr.HTTPStatus, models.ErrorResponse{
		Success:   false,
		Error:     appErr.Message,
		Details:   appErr.Details,
		Code:      string(appErr.Code),
		RequestID: c.GetString("request_id"),
	})
}

func activeUser(c *gin.Context) int64 {
	return c.GetInt64(middleware.ActiveUserKey)
}

// HealthCheck godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "securepay-gateway",
	})
}

// =============================================================================
// Session and user directory
// =============================================================================

// ListUsers godoc
// @Summary      List users
// @Description  Refresh and return the user roster (login panel and admin table)
// @Tags         Users
// @Produce      json
// @Success      200  {array}   models.User
// @Router       /api/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.sessions.LoadRoster(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type loginRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// Login godoc
// @Summary      Log in as a locally-selected user
// @Tags         Session
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.TokenResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/session [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	if _, err := h.sessions.LoadRoster(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	user, ok := h.sessions.FindUser(req.UserID)
	if !ok {
		h.respondError(c, apperrors.NewNotFoundError("user"))
		return
	}

	token, err := h.sessions.IssueToken(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TokenResponse{Success: true, Token: token, User: &user})
}

// CreateUser godoc
// @Summary      Create a wallet user and log in
// @Tags         Users
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.TokenResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.NewValidationError("Please enter a name for the new user."))
		return
	}

	user, err := h.ledger.CreateUser(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.sessions.IssueToken(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.TokenResponse{Success: true, Token: token, User: user})
}

// DeleteUser godoc
// @Summary      Delete a user (admin)
// @Tags         Users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.NewValidationError("invalid user id"))
		return
	}
	if id == activeUser(c) {
		h.respondError(c, apperrors.NewValidationError(
			"Cannot delete the currently logged-in user. Please log out first."))
		return
	}

	if err := h.ledger.DeleteUser(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "User deleted."})
}

// =============================================================================
// Account views
// =============================================================================

// Dashboard godoc
// @Summary      Full account dashboard
// @Description  Balance, reconciled ledger, quick-pay contacts and chain state
// @Tags         Views
// @Produce      json
// @Success      200  {object}  services.DashboardView
// @Router       /api/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	view, err := h.views.Dashboard(c.Request.Context(), activeUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Profile godoc
// @Summary      Condensed profile view
// @Tags         Views
// @Produce      json
// @Success      200  {object}  services.ProfileView
// @Router       /api/profile [get]
func (h *Handler) Profile(c *gin.Context) {
	view, err := h.views.Profile(c.Request.Context(), activeUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// History godoc
// @Summary      Direct history with one counterparty
// @Tags         Views
// @Produce      json
// @Param        counterpartyId  path  int  true  "Counterparty user id"
// @Success      200  {object}  services.HistoryView
// @Router       /api/history/{counterpartyId} [get]
func (h *Handler) History(c *gin.Context) {
	counterpartyID, err := strconv.ParseInt(c.Param("counterpartyId"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.NewValidationError("invalid counterparty id"))
		return
	}

	view, err := h.views.History(c.Request.Context(), activeUser(c), counterpartyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// =============================================================================
// Payment flow
// =============================================================================

// PaymentIntent godoc
// @Summary      Resolve the payment-surface opening context
// @Tags         Payments
// @Produce      json
// @Param        recipientId  query  string  false  "Pre-selected recipient"
// @Param        action       query  string  false  "Optional action flag (scan)"
// @Success      200  {object}  intent.Resolution
// @Router       /api/payments/intent [get]
func (h *Handler) PaymentIntent(c *gin.Context) {
	res, err := intent.Resolve(c.Query("recipientId"), c.Query("action"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type scanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type scanResult struct {
	Success    bool  `json:"success"`
	ReceiverID int64 `json:"receiverId"`
}

// ResolveScan godoc
// @Summary      Resolve a decoded QR payload into a recipient
// @Description  Rejects payloads without the SecurePay tag; the scan surface stays open for another attempt
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  scanResult
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/payments/scan [post]
func (h *Handler) ResolveScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.NewValidationError("missing scan payload"))
		return
	}

	receiverID, err := intent.ParseScan(req.Payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scanResult{Success: true, ReceiverID: receiverID})
}

type receiveCode struct {
	Payload string `json:"payload"`
	UserID  int64  `json:"userId"`
	Name    string `json:"name"`
}

// ReceiveCode godoc
// @Summary      Receive-surface code text for the active user
// @Tags         Payments
// @Produce      json
// @Success      200  {object}  receiveCode
// @Router       /api/receive [get]
func (h *Handler) ReceiveCode(c *gin.Context) {
	userID := activeUser(c)
	name := ""
	if user, ok := h.sessions.FindUser(userID); ok {
		name = user.Name
	}
	c.JSON(http.StatusOK, receiveCode{
		Payload: intent.QRPayload(userID),
		UserID:  userID,
		Name:    name,
	})
}

// StartPayment godoc
// @Summary      Validate a draft and obtain its risk assessment
// @Description  Leaves the flow in review; submission happens only on explicit confirmation
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  flow.Review
// @Failure      400  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/payments [post]
func (h *Handler) StartPayment(c *gin.Context) {
	var draft models.TransferDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		h.respondError(c, apperrors.NewValidationError("Please enter valid amounts and Recipient ID."))
		return
	}

	review, err := h.flows.Start(c.Request.Context(), activeUser(c), &draft)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// ConfirmPayment godoc
// @Summary      Explicitly confirm and submit the reviewed draft
// @Tags         Payments
// @Produce      json
// @Success      200  {object}  flow.Receipt
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/payments/confirm [post]
func (h *Handler) ConfirmPayment(c *gin.Context) {
	receipt, err := h.flows.Confirm(c.Request.Context(), activeUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// CancelPayment godoc
// @Summary      Abandon the flow at the review step
// @Tags         Payments
// @Produce      json
// @Success      200  {object}  models.SuccessResponse
// @Router       /api/payments [delete]
func (h *Handler) CancelPayment(c *gin.Context) {
	if err := h.flows.Cancel(activeUser(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Payment cancelled."})
}

// =============================================================================
// Admin: mining and chain state
// =============================================================================

// Mine godoc
// @Summary      Mine pending transactions
// @Description  A no-content ledger reply means nothing was pending; the feed is untouched
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  services.MineResult
// @Router       /api/admin/mine [post]
func (h *Handler) Mine(c *gin.Context) {
	result, err := h.views.Mine(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Blockchain godoc
// @Summary      Chain state passthrough
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  object
// @Router       /api/admin/blockchain [get]
func (h *Handler) Blockchain(c *gin.Context) {
	chain, err := h.views.Blockchain(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", chain)
}

// =============================================================================
// Market data
// =============================================================================

// StockPrice godoc
// @Summary      Price quote for a symbol
// @Description  The upstream answers raw text: a number or an error string
// @Tags         Market
// @Produce      json
// @Param        symbol  path  string  true  "Ticker symbol"
// @Success      200  {object}  market.Quote
// @Router       /api/stocks/price/{symbol} [get]
func (h *Handler) StockPrice(c *gin.Context) {
	symbol := c.Param("symbol")
	raw, err := h.ledger.StockPrice(c.Request.Context(), symbol)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, market.ParseQuote(symbol, raw))
}

// StockSearch godoc
// @Summary      Symbol search
// @Tags         Market
// @Produce      json
// @Param        keyword  path  string  true  "Search keyword"
// @Success      200  {array}  market.Match
// @Router       /api/stocks/search/{keyword} [get]
func (h *Handler) StockSearch(c *gin.Context) {
	raw, err := h.ledger.StockSearch(c.Request.Context(), c.Param("keyword"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	matches, err := market.ParseSearch(raw)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

// StockSeries godoc
// @Summary      Daily price series for the chart
// @Description  Reduced to a chronological labeled series of adjusted closes
// @Tags         Market
// @Produce      json
// @Param        symbol  path  string  true  "Ticker symbol"
// @Success      200  {array}  market.Point
// @Router       /api/stocks/series/{symbol} [get]
func (h *Handler) StockSeries(c *gin.Context) {
	raw, err := h.ledger.StockSeries(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	points, err := market.ParseSeries(raw)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}
