package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"p2p_transfer/internal/models"
	"p2p_transfer/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errTransfer    = "transfer failed, nothing was changed"
	errHistory     = "failed to load transfers"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// TransferRequest is the payload of POST /api/v1/transfers.
// Amount may be sent as a JSON string or number.
type TransferRequest struct {
	ToUserID int             `json:"to_user_id" binding:"required" example:"2"`
	Amount   json.RawMessage `json:"amount" binding:"required" swaggertype:"string" example:"30.50"`
}

// amountString turns the raw amount into the text the service parses.
// Numbers keep their literal digits so no float rounding sneaks in.
func amountString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// transferStatus maps a transfer outcome to its HTTP status and public message.
func transferStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrSelfTransfer):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrRecipientNotFound), errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, errTransfer
	}
}

// @Summary      Send money
// @Description  Moves amount from the caller to to_user_id. Either both balances change and a record is written, or nothing changes.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        body  body      TransferRequest  true  "Transfer payload"
// @Success      200   {object}  models.TransferRecord
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/transfers [post]
// @Security     BearerAuth
func (h *Handler) createTransfer(c *gin.Context) {
	var req TransferRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	uid := userID(c)

	rec, err := h.services.Transfer(c.Request.Context(), uid, req.ToUserID, amountString(req.Amount))
	if err != nil {
		code, msg := transferStatus(err)
		if code == http.StatusInternalServerError {
			h.logAndJSONError(c, code, msg, "transfer_failed", err, "from", uid, "to", req.ToUserID)
			return
		}
		c.JSON(code, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List own transfers
// @Description  Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive. post_balance is always derived from the full history.
// @Tags         transfers
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Success      200   {object}  map[string]interface{}  "count, current_balance, records"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/transfers [get]
// @Security     BearerAuth
func (h *Handler) listTransfers(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	uid := userID(c)
	st, err := h.services.History(c.Request.Context(), uid, window)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errHistory, "transfers_list_failed", err,
			"user_id", uid, "from", window.From, "to", window.To)
		return
	}
	records := st.Records
	if records == nil {
		records = []models.LedgerEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":           len(records),
		"current_balance": st.CurrentBalance,
		"records":         records,
	})
}

// parseWindow reads the optional from/to query bounds and writes a 400 when they are invalid.
func parseWindow(c *gin.Context) (service.Window, bool) {
	var (
		w   service.Window
		err error
	)
	// Parse 'from' (optional)
	if qs := c.Query("from"); qs != "" {
		w.From, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return w, false
		}
	}
	// Parse 'to' (optional). If only a date is provided, make it end-of-day inclusive.
	if qs := c.Query("to"); qs != "" {
		w.To, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return w, false
		}
		if isDateOnly(qs) {
			w.To = w.To.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if !w.From.IsZero() && !w.To.IsZero() && w.From.After(w.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return w, false
	}
	return w, true
}

func parseQueryTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
