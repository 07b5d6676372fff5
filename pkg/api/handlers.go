package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/vsroc/pkg/plot"
)

// Handlers serves the reports written by the JSON renderer.
type Handlers struct {
	reportDir string
	started   time.Time
}

// NewHandlers creates handlers over reportDir.
func NewHandlers(reportDir string) *Handlers {
	return &Handlers{reportDir: reportDir, started: time.Now()}
}

// ReportPage is one page of report names.
type ReportPage struct {
	Reports []string `json:"reports"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().Format(time.RFC3339),
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"report_dir": h.reportDir,
	}
	WriteSuccessResponse(w, "Service is healthy", health)
}

// ListReports lists report names, paginated.
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	names, err := plot.ListReports(h.reportDir)
	if err != nil {
		log.Error().Err(err).Str("report_dir", h.reportDir).Msg("Failed to list reports")
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to list reports", err)
		return
	}

	page, limit := paginationParams(r)
	from := (page - 1) * limit
	if from > len(names) {
		from = len(names)
	}
	to := from + limit
	if to > len(names) {
		to = len(names)
	}

	WriteSuccessResponse(w, "Reports retrieved successfully", ReportPage{
		Reports: names[from:to],
		Total:   len(names),
		Page:    page,
		Limit:   limit,
	})
}

// GetReport returns a report without its point data.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	WriteSuccessResponse(w, "Report retrieved successfully", rep.Overview())
}

// GetCurve returns one curve of a report with its points.
func (h *Handlers) GetCurve(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.loadReport(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 || index >= len(rep.Curves) {
		WriteErrorResponse(w, http.StatusNotFound, "Curve not found",
			fmt.Errorf("report %q has %d curve(s)", rep.Title, len(rep.Curves)))
		return
	}
	WriteSuccessResponse(w, "Curve retrieved successfully", rep.Curves[index])
}

func (h *Handlers) loadReport(w http.ResponseWriter, r *http.Request) (*plot.Report, bool) {
	name := mux.Vars(r)["name"]
	if name == "" || strings.HasPrefix(name, ".") || filepath.Base(name) != name {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid report name", nil)
		return nil, false
	}

	rep, err := plot.LoadReport(filepath.Join(h.reportDir, name+plot.ReportExt))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			WriteErrorResponse(w, http.StatusNotFound, "Report not found", nil)
			return nil, false
		}
		log.Error().Err(err).Str("report", name).Msg("Failed to load report")
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to load report", err)
		return nil, false
	}
	return rep, true
}
