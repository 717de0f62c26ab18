package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/scholarsrs/internal/errors"
	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
)

const defaultReportPage = 25

type reportList struct {
	Reports []models.Report `json:"reports"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	filter, err := parseReportFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Debug("listing reports: limit=%d, offset=%d", filter.Limit, filter.Offset)

	reports, total, err := s.ReportService.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	writeJSON(w, r, http.StatusOK, reportList{
		Reports: reports,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid report id"))
		return
	}

	report, err := s.ReportService.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func parseReportFilter(r *http.Request) (models.ReportFilter, error) {
	q := r.URL.Query()
	filter := models.ReportFilter{Limit: defaultReportPage}

	var err error
	if filter.MinAccuracy, err = queryInt(q.Get("min_accuracy"), 0); err != nil {
		return filter, errors.NewBadRequestError("invalid min_accuracy")
	}
	if filter.Limit, err = queryInt(q.Get("limit"), defaultReportPage); err != nil {
		return filter, errors.NewBadRequestError("invalid limit")
	}
	if filter.Offset, err = queryInt(q.Get("offset"), 0); err != nil {
		return filter, errors.NewBadRequestError("invalid offset")
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.NewBadRequestError("since must be an RFC3339 timestamp")
		}
		filter.Since = &since
	}
	return filter, nil
}
