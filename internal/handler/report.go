package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ticketry/ticket-platform/internal/repository"
)

// ReportHandler serves the CSV exports used by event staff: the full
// confirmed-ticket dump, period-scoped variants and the per-day
// financial summary.  All routes sit behind admin authentication.
type ReportHandler struct {
	Tickets *repository.TicketRepo
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(tickets *repository.TicketRepo) *ReportHandler {
	if tickets == nil {
		panic("nil repository passed to NewReportHandler")
	}
	return &ReportHandler{Tickets: tickets}
}

// TicketsCSV handles GET /v1/reports/csv: every confirmed ticket,
// newest first.
func (h *ReportHandler) TicketsCSV(c echo.Context) error {
	return h.ticketsCSV(c, time.Time{}, "all")
}

// TicketsCSVPeriod handles GET /v1/reports/csv/:period with period
// one of today, week, month or all.
func (h *ReportHandler) TicketsCSVPeriod(c echo.Context) error {
	period := c.Param("period")
	since, ok := periodStart(period, time.Now().UTC())
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "unknown period"})
	}
	return h.ticketsCSV(c, since, period)
}

func (h *ReportHandler) ticketsCSV(c echo.Context, since time.Time, label string) error {
	rows, err := h.Tickets.ListConfirmedSince(c.Request().Context(), since)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to build report"})
	}
	if len(rows) == 0 && label != "all" {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "no sales found for period " + label})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"ticket_id", "transaction_id", "purchase_date", "purchase_time",
		"participant", "email", "phone", "tier", "quantity", "unit_price",
		"status", "event", "event_date",
	})
	for _, r := range rows {
		created := r.CreatedAt.UTC()
		_ = w.Write([]string{
			strconv.FormatUint(r.TicketID, 10),
			r.TransactionID,
			created.Format("2006-01-02"),
			created.Format("15:04:05"),
			r.Name,
			r.Email,
			r.Phone,
			strings.ToUpper(string(r.Tier)),
			strconv.FormatUint(uint64(r.Quantity), 10),
			r.UnitPrice.StringFixed(2),
			r.Status,
			r.EventName,
			r.EventStartsAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to write report"})
	}
	return sendCSV(c, fmt.Sprintf("tickets_%s_%s.csv", label, time.Now().UTC().Format("2006-01-02")), buf.Bytes())
}

// FinancialCSV handles GET /v1/reports/financial-csv: revenue grouped
// by day and tier, with the transaction identifiers of each group for
// reconciliation against the payment provider.
func (h *ReportHandler) FinancialCSV(c echo.Context) error {
	rows, err := h.Tickets.FinancialSummary(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to build report"})
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"sale_date", "tier", "tickets", "revenue", "average_paid", "transaction_ids"})
	for _, r := range rows {
		_ = w.Write([]string{
			r.Date,
			strings.ToUpper(string(r.Tier)),
			strconv.FormatInt(r.Tickets, 10),
			r.Revenue.StringFixed(2),
			r.AveragePaid.StringFixed(2),
			strings.Join(r.Transactions, " "),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to write report"})
	}
	return sendCSV(c, fmt.Sprintf("financial_%s.csv", time.Now().UTC().Format("2006-01-02")), buf.Bytes())
}

// sendCSV writes a download response with a UTF-8 BOM so spreadsheet
// tools detect the encoding.
func sendCSV(c echo.Context, filename string, body []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	out := append([]byte{0xEF, 0xBB, 0xBF}, body...)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", out)
}

// periodStart resolves a report period name to its lower time bound.
// The zero time means unbounded.
func periodStart(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	case "week":
		return now.Add(-7 * 24 * time.Hour), true
	case "month":
		return now.Add(-30 * 24 * time.Hour), true
	case "all", "":
		return time.Time{}, true
	}
	return time.Time{}, false
}
