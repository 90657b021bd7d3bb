package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"p2p_transfer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errSignUp          = "failed to register user"
	errSignIn          = "failed to sign in"
	errLoadAccount     = "failed to load account"
	errLoadAudit       = "failed to audit ledger"
	errFund            = "failed to fund account"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err, "request_id", c.GetString(ctxRequestID)}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// AccountResponse is the caller's own profile.
type AccountResponse struct {
	ID       int             `json:"id" example:"1"`
	Username string          `json:"username" example:"alice"`
	Balance  decimal.Decimal `json:"balance" swaggertype:"string" example:"70"`
	APIToken string          `json:"api_token"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Current account
// @Tags         account
// @Produce      json
// @Success      200  {object}  AccountResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/account [get]
// @Security     BearerAuth
func (h *Handler) getAccount(c *gin.Context) {
	uid := userID(c)
	u, err := h.services.FindByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadAccount, "account_load_failed", err, "user_id", uid)
		return
	}
	c.JSON(http.StatusOK, AccountResponse{
		ID:       u.ID,
		Username: u.Username,
		Balance:  u.Balance,
		APIToken: u.APIToken,
	})
}

// FundRequest is the payload of POST /api/v1/account/fund.
type FundRequest struct {
	Amount json.RawMessage `json:"amount" binding:"required" swaggertype:"string" example:"100"`
}

// @Summary      Fund own account
// @Description  Credits money from outside the system. Only registered when accounts.allow_funding is set.
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      FundRequest  true  "Amount"
// @Success      200   {object}  AccountResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/account/fund [post]
// @Security     BearerAuth
func (h *Handler) fundAccount(c *gin.Context) {
	var req FundRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	uid := userID(c)
	u, err := h.services.Fund(c.Request.Context(), uid, amountString(req.Amount))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, errFund, "account_fund_failed", err, "user_id", uid)
		}
		return
	}
	h.log.Infow("account_funded", "user_id", uid, "balance", u.Balance.StringFixed(2))
	c.JSON(http.StatusOK, AccountResponse{
		ID:       u.ID,
		Username: u.Username,
		Balance:  u.Balance,
		APIToken: u.APIToken,
	})
}

// @Summary      Audit own ledger
// @Description  Rebuilds the balance from the transfer history and compares it with the stored one.
// @Tags         account
// @Produce      json
// @Success      200  {object}  models.AuditReport
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/audit [get]
// @Security     BearerAuth
func (h *Handler) getAudit(c *gin.Context) {
	uid := userID(c)
	report, err := h.services.Audit(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadAudit, "audit_failed", err, "user_id", uid)
		return
	}
	c.JSON(http.StatusOK, report)
}
