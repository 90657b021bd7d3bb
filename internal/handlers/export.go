package handlers

import (
	"errors"
	"net/http"
	"time"

	"p2p_transfer/internal/models"
	"p2p_transfer/internal/service"

	"github.com/gin-gonic/gin"
)

const errExport = "failed to export records"

// ExportRecord is one ledger entry in the export format. Amounts are plain JSON numbers.
type ExportRecord struct {
	ID           int       `json:"id"`
	Time         time.Time `json:"time"`
	Amount       float64   `json:"amount"`
	FromUser     int       `json:"from_user"`
	ToUser       int       `json:"to_user"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	PostBalance  float64   `json:"post_balance"`
}

// ExportStatement is the body of GET /api/records and of every websocket frame.
type ExportStatement struct {
	Username       string         `json:"username"`
	UserID         int            `json:"user_id"`
	InitBalance    float64        `json:"init_balance"`
	CurrentBalance float64        `json:"current_balance"`
	Records        []ExportRecord `json:"records"`
}

func newExportStatement(st models.Statement) ExportStatement {
	out := ExportStatement{
		Username:       st.User.Username,
		UserID:         st.User.ID,
		InitBalance:    st.InitBalance.InexactFloat64(),
		CurrentBalance: st.CurrentBalance.InexactFloat64(),
		Records:        make([]ExportRecord, 0, len(st.Records)),
	}
	for _, e := range st.Records {
		out.Records = append(out.Records, ExportRecord{
			ID:           e.ID,
			Time:         e.CreatedAt,
			Amount:       e.Amount.InexactFloat64(),
			FromUser:     e.FromUser,
			ToUser:       e.ToUser,
			FromUsername: e.FromUsername,
			ToUsername:   e.ToUsername,
			PostBalance:  e.PostBalance.InexactFloat64(),
		})
	}
	return out
}

// @Summary      Export records
// @Description  Full derived ledger of the user owning the API token. Read-only; calling it twice gives the same result.
// @Tags         export
// @Produce      json
// @Param        token  query     string  true  "API token from sign-in"
// @Success      200    {object}  ExportStatement
// @Failure      403    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/records [get]
func (h *Handler) exportRecords(c *gin.Context) {
	st, err := h.services.Export(c.Request.Context(), c.Query("token"))
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errExport, "export_failed", err)
		return
	}
	c.JSON(http.StatusOK, newExportStatement(st))
}
