package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/internal/pipeline"
)

type healthResponse struct {
	Status  string   `json:"status"`
	Effects []string `json:"effects"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	kinds := reverb.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Effects: names})
}

// handleApply serves POST /apply_reverb/ with multipart fields "file",
// "reverb_type" and optional "d1", "d2" and "d" in metres. The rendered WAV
// is returned as an attachment.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	if r.ContentLength > s.cfg.MaxUploadBytes {
		writeError(w, r, fmt.Errorf("%w: %d bytes", errTooLarge, r.ContentLength))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if !errors.As(err, &maxErr) {
			err = fmt.Errorf("%w: %w", errBadForm, err)
		}
		writeError(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	kind, err := reverb.ParseKind(r.FormValue("reverb_type"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	params, err := parseParams(r.FormValue)
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errMissingFile, err))
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	res, err := s.proc.Process(ctx, pipeline.Job{
		Kind:   kind,
		Params: params,
		Name:   header.Filename,
		Source: file,
		Log:    loggerFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.sendFile(w, r, res)
}

// sendFile reads the rendered file and releases it before writing the reply.
func (s *Server) sendFile(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	data, err := os.ReadFile(res.Path)
	s.release(res)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Name}))
	http.ServeContent(w, r, res.Name, time.Time{}, bytes.NewReader(data))
}

// release removes a rendered file unless outputs are kept.
func (s *Server) release(res *pipeline.Result) {
	if s.cfg.KeepOutputs {
		return
	}
	if err := os.Remove(res.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.WithError(err).WithField("path", res.Path).Warn("remove output")
	}
}

// parseParams reads d1, d2 and d, falling back to reverb.DefaultParams.
func parseParams(get func(string) string) (reverb.Params, error) {
	p := reverb.DefaultParams()

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"d1", &p.D1},
		{"d2", &p.D2},
		{"d", &p.D},
	} {
		v := strings.TrimSpace(get(f.name))
		if v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return reverb.Params{}, fmt.Errorf("%w: %s=%q", errBadParam, f.name, v)
		}
		*f.dst = x
	}

	return p, p.Validate()
}
