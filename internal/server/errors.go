package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/internal/pipeline"
)

// Client-visible messages.
const (
	msgUnknownEffect = "Unknown reverb type"
	msgAsset         = "Impulse response unavailable"
	msgTooLarge      = "Upload too large"
	msgTimeout       = "Processing timed out"
	msgInternal      = "Internal error"
)

var (
	errMissingFile = errors.New("server: missing form file \"file\"")
	errBadForm     = errors.New("server: malformed multipart form")
	errBadParam    = errors.New("server: invalid parameter")
	errBadMessage  = errors.New("server: invalid websocket message")
	errTooLarge    = errors.New("server: upload too large")
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// classify maps a processing error to an HTTP status and a message that is
// safe to show to clients.
func classify(err error) (int, string) {
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, reverb.ErrUnknownEffect):
		return http.StatusBadRequest, msgUnknownEffect
	case errors.As(err, &maxErr), errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, reverb.ErrAssetLoad), errors.Is(err, reverb.ErrNoImpulse),
		errors.Is(err, reverb.ErrImpulseRate), errors.Is(err, reverb.ErrEmptyImpulse),
		errors.Is(err, reverb.ErrImpulseChannels):
		return http.StatusInternalServerError, msgAsset
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, msgTimeout
	case errors.Is(err, errMissingFile), errors.Is(err, errBadForm),
		errors.Is(err, errBadParam), errors.Is(err, errBadMessage),
		errors.Is(err, pipeline.ErrNoSource),
		errors.Is(err, codec.ErrUnsupportedFormat), errors.Is(err, codec.ErrInvalidFile),
		errors.Is(err, codec.ErrTooManyChannels),
		errors.Is(err, reverb.ErrInvalidDistance), errors.Is(err, reverb.ErrNotMono),
		errors.Is(err, core.ErrInvalidSampleRate), errors.Is(err, core.ErrChannelCount),
		errors.Is(err, core.ErrChannelLength):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err and sends the classified JSON error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)

	log := loggerFrom(r.Context()).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Warn("request rejected")
	}

	writeJSON(w, status, errorResponse{Error: msg})
}
