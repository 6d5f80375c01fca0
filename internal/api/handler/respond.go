package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"creativerse/internal/common"
	"creativerse/internal/platform/metrics"

	"github.com/rs/zerolog/hlog"
)

// maxJSONBody bounds request bodies for the JSON endpoints.
const maxJSONBody = 1 << 20

// Responder writes domain errors and counts them by code. Handlers embed it.
type Responder struct {
	metrics *metrics.Metrics
}

func NewResponder(m *metrics.Metrics) Responder {
	return Responder{metrics: m}
}

// fail writes err as a domain error response. Internal failures are logged with the request id.
func (rs Responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := common.CodeFromError(err)
	rs.metrics.IncDomainError(code)
	if common.HTTPStatusFromError(err) >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("code", code).Msg("request failed")
	}
	common.RespondWithDomainError(w, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large: %w", common.ErrValidation)
		}
		return fmt.Errorf("invalid request payload: %s: %w", err.Error(), common.ErrValidation)
	}
	return nil
}

// queryInt reads an optional integer query parameter. Missing means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, common.ErrValidation)
	}
	return v, nil
}
