// Package httputil holds the JSON envelope and error mapping shared by all module handlers.
package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/appa/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// StatusFor maps an error kind to an HTTP status code
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindEntityNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument, domain.KindInvalidTargetAllocation:
		return http.StatusBadRequest
	case domain.KindInsufficientFunds, domain.KindInsufficientQuantity:
		return http.StatusConflict
	case domain.KindNoDataForPeriod, domain.KindNoPriceFound, domain.KindInsufficientData,
		domain.KindDivisionByZero, domain.KindEmptyPortfolio:
		return http.StatusUnprocessableEntity
	case domain.KindDataUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteData wraps data in the {"data", "metadata"} envelope
func WriteData(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	WriteJSON(w, log, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// WriteError writes a classified error. The root cause is kept for diagnostics.
func WriteError(w http.ResponseWriter, log zerolog.Logger, err error) {
	WriteErrorData(w, log, err, nil)
}

// WriteErrorData writes a classified error alongside partial data, if any
func WriteErrorData(w http.ResponseWriter, log zerolog.Logger, err error, data interface{}) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("kind", string(kind)).Msg("Request failed")
	} else {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("Request rejected")
	}

	body := map[string]interface{}{
		"error": err.Error(),
		"kind":  kind,
		"cause": domain.RootCause(err),
	}
	if data != nil {
		body["data"] = data
	}
	WriteJSON(w, log, status, body)
}

// DecodeJSON decodes the request body into dest, rejecting unknown fields
func DecodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return domain.Errorf(domain.KindInvalidArgument, err, "invalid request body")
	}
	return nil
}

// Int64Param parses a positive integer URL parameter such as {id}
func Int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, domain.Errorf(domain.KindInvalidArgument, err, "invalid %s %q", name, raw)
	}
	return v, nil
}
