package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"fundsledger/internal/gateway/identity"
	"fundsledger/internal/service"
	"fundsledger/pkg/apperror"
	"fundsledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// maxWebhookBody bounds the notification payload read before verification.
// Larger bodies are refused with 413 rather than truncated.
const maxWebhookBody = 64 << 10

// Handler serves the HTTP API on top of the services.
type Handler struct {
	funds    *service.FundsService
	checkout *service.CheckoutService
	accounts *service.AccountService
	logger   *slog.Logger
}

func NewHandler(funds *service.FundsService, checkout *service.CheckoutService, accounts *service.AccountService, logger *slog.Logger) *Handler {
	return &Handler{
		funds:    funds,
		checkout: checkout,
		accounts: accounts,
		logger:   logger,
	}
}

// ============================================================
// Account
// ============================================================

type RegisterRequest struct {
	UID      string `json:"uid" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Country  string `json:"country" binding:"required"`
}

// Register creates the profile and zero-balance account.
// POST /api/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Invalid registration data")
		return
	}

	_, err := h.accounts.Register(c.Request.Context(), service.RegisterRequest{
		UID:      req.UID,
		FullName: req.FullName,
		Email:    req.Email,
		Country:  req.Country,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Created(c, "User profile created successfully!", nil)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login proxies a password sign-in to the identity provider.
// POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Email and password are required")
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Code:    response.CodeSuccess,
		Message: "Login successful",
		Data:    session,
	})
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword always answers 200 so callers cannot enumerate accounts.
// POST /api/forgot-password
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		response.ParamError(c, "Email is required")
		return
	}

	h.accounts.ForgotPassword(c.Request.Context(), req.Email)

	c.JSON(http.StatusOK, response.Response{
		Code:    response.CodeSuccess,
		Message: "If an account exists for this email, a reset link has been sent.",
	})
}

// GetUser returns the caller's profile.
// GET /api/user
func (h *Handler) GetUser(c *gin.Context) {
	account, err := h.accounts.Profile(c.Request.Context(), subjectOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, account)
}

// ============================================================
// Funds
// ============================================================

// GetFunds returns the caller's balance.
// GET /api/funds
func (h *Handler) GetFunds(c *gin.Context) {
	balance, err := h.funds.GetBalance(c.Request.Context(), subjectOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"funds": balance})
}

type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// DeductFunds spends credits from the caller's balance.
// POST /api/funds/deduct
func (h *Handler) DeductFunds(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount == nil {
		response.ParamError(c, "Invalid or missing amount")
		return
	}

	balance, err := h.funds.Deduct(c.Request.Context(), subjectOf(c), *req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"balance": balance})
}

// ============================================================
// Payments
// ============================================================

// CreateCheckoutSession starts a hosted checkout for the caller.
// POST /api/payments/create-checkout-session
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount == nil {
		response.ParamError(c, "Invalid or missing amount")
		return
	}

	checkout, err := h.checkout.CreateCheckout(c.Request.Context(), subjectOf(c), *req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"url": checkout.URL})
}

// StripeWebhook consumes checkout completion notifications. A non-2xx answer
// makes the gateway redeliver.
// POST /api/stripe-webhook
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(c.Request.Context(), "payment notification too large",
				slog.Int64("limit", tooLarge.Limit))
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooLarge, "Webhook Error: payload too large")
			return
		}
		response.ParamError(c, "Webhook Error: unreadable body")
		return
	}

	outcome, err := h.checkout.OnCheckoutCompleted(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if apperror.Is(err, apperror.Unauthenticated) {
			response.ParamError(c, apperror.Message(err))
			return
		}
		response.ServerError(c, "Funds not updated.")
		return
	}

	h.logger.InfoContext(c.Request.Context(), "payment notification handled",
		slog.String("state", string(outcome.State)),
		slog.String("event_id", outcome.EventID),
		slog.String("session_id", outcome.SessionID))
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if apperror.KindOf(err) == apperror.Internal {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
	}
	response.Fail(c, err)
}

func subjectOf(c *gin.Context) string {
	subjectID, _ := identity.SubjectFromContext(c.Request.Context())
	return subjectID
}
