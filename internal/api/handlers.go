package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vytor/scholarsrs/internal/errors"
	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/services"
)

// maxBodyBytes bounds request bodies; study material is pasted text.
const maxBodyBytes = 1 << 20

// Pinger reports whether the report archive is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	DB            Pinger
	StudyService  services.StudyService
	ReportService services.ReportService
	RateLimiter   *RateLimiter
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}
