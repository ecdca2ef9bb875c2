package http

import (
	"net/http"
	"strconv"
	"time"

	"presupuesto/internal/core"
	"presupuesto/internal/reports"
)

type reportRow struct {
	Bucket  int    `json:"bucket"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

func toReportRows(rows []reports.Row) []reportRow {
	out := make([]reportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, reportRow{
			Bucket:  r.Bucket,
			Income:  core.FormatCents(r.Income.Cents),
			Expense: core.FormatCents(r.Expense.Cents),
			Net:     core.FormatCents(r.Net()),
		})
	}
	return out
}

func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateWindow(w, r)
	if !ok {
		return
	}

	report, err := s.reports.Weekly(r.Context(), userIDFrom(r), start, end)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, struct {
		Start string      `json:"start"`
		End   string      `json:"end"`
		Weeks []reportRow `json:"weeks"`
	}{
		Start: report.Start.Format(core.DateLayout),
		End:   report.End.Format(core.DateLayout),
		Weeks: toReportRows(report.Rows),
	})
}

func reportYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			respondError(w, r, http.StatusUnprocessableEntity, "invalid year")
			return 0, false
		}
		year = y
	}
	return year, true
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, ok := reportYear(w, r)
	if !ok {
		return
	}

	report, err := s.reports.Monthly(r.Context(), userIDFrom(r), year)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, struct {
		Year   int         `json:"year"`
		Months []reportRow `json:"months"`
	}{
		Year:   report.Year,
		Months: toReportRows(report.Rows),
	})
}

func (s *Server) handleExportMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		respondError(w, r, http.StatusServiceUnavailable, "spreadsheet export not configured")
		return
	}

	year, ok := reportYear(w, r)
	if !ok {
		return
	}

	report, err := s.reports.Monthly(r.Context(), userIDFrom(r), year)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	if err := s.exporter.ExportMonthly(r.Context(), report); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"status": "exported", "year": year})
}
