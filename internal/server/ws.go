package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/internal/pipeline"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const wsWriteTimeout = 30 * time.Second

// WSRequest is the text message that precedes each binary audio upload on
// the /ws endpoint.
type WSRequest struct {
	ReverbType string   `json:"reverb_type"`
	Filename   string   `json:"filename"`
	D1         *float64 `json:"d1,omitempty"`
	D2         *float64 `json:"d2,omitempty"`
	D          *float64 `json:"d,omitempty"`
}

// WSResult is sent as a text message before the binary WAV reply.
type WSResult struct {
	Status     string  `json:"status"`
	Name       string  `json:"name"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Frames     int     `json:"frames"`
	Peak       float64 `json:"peak"`
	RMS        float64 `json:"rms"`
	Bytes      int     `json:"bytes"`
}

// WSError reports a failed job. The connection stays open.
type WSError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (req WSRequest) params() (reverb.Params, error) {
	p := reverb.DefaultParams()
	if req.D1 != nil {
		p.D1 = *req.D1
	}
	if req.D2 != nil {
		p.D2 = *req.D2
	}
	if req.D != nil {
		p.D = *req.D
	}
	return p, p.Validate()
}

// handleWebSocket processes any number of jobs per connection. Each job is
// a WSRequest text message followed by one binary message holding the audio
// file. The reply is a WSResult text message plus the WAV as a binary
// message, or a single WSError.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, handshakeHeader(w.Header()))
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.cfg.MaxUploadBytes)

	for job := 1; ; job++ {
		jlog := log.WithField("job", job)

		req, payload, err := readJob(conn)
		switch {
		case err == nil:
		case errors.Is(err, errBadMessage):
			if werr := s.wsFail(conn, jlog, err); werr != nil {
				return
			}
			continue
		case errors.Is(err, websocket.ErrReadLimit):
			jlog.Warn("websocket upload too large")
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseMessageTooBig, msgTooLarge),
				time.Now().Add(time.Second))
			return
		default:
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				jlog.WithError(err).Debug("websocket read ended")
			}
			return
		}

		if err := s.wsJob(r.Context(), conn, jlog, req, payload); err != nil {
			jlog.WithError(err).Debug("websocket write failed")
			return
		}
	}
}

// handshakeHeader copies the middleware headers into the 101 response,
// which the upgrader writes itself on the hijacked connection.
func handshakeHeader(h http.Header) http.Header {
	out := http.Header{}
	for _, k := range []string{RequestIDHeader, "Access-Control-Allow-Origin", "Access-Control-Expose-Headers"} {
		if v := h.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// readJob reads one control message and its audio payload.
func readJob(conn *websocket.Conn) (WSRequest, []byte, error) {
	var req WSRequest

	mt, data, err := conn.ReadMessage()
	if err != nil {
		return req, nil, err
	}
	if mt != websocket.TextMessage {
		return req, nil, fmt.Errorf("%w: expected a JSON control message", errBadMessage)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, nil, fmt.Errorf("%w: %w", errBadMessage, err)
	}

	mt, payload, err := conn.ReadMessage()
	if err != nil {
		return req, nil, err
	}
	if mt != websocket.BinaryMessage {
		return req, nil, fmt.Errorf("%w: expected binary audio data", errBadMessage)
	}

	return req, payload, nil
}

// wsJob runs one job and writes its reply. Only write errors are returned.
func (s *Server) wsJob(ctx context.Context, conn *websocket.Conn, log logrus.FieldLogger, req WSRequest, payload []byte) error {
	kind, err := reverb.ParseKind(req.ReverbType)
	if err != nil {
		return s.wsFail(conn, log, err)
	}
	params, err := req.params()
	if err != nil {
		return s.wsFail(conn, log, err)
	}

	name := req.Filename
	if name == "" {
		name = "upload.wav"
	}
	log = log.WithField("reverb_type", kind.String())

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	res, err := s.proc.Process(ctx, pipeline.Job{
		Kind:   kind,
		Params: params,
		Name:   name,
		Source: bytes.NewReader(payload),
		Log:    log,
	})
	if err != nil {
		return s.wsFail(conn, log, err)
	}
	wav, err := os.ReadFile(res.Path)
	s.release(res)
	if err != nil {
		return s.wsFail(conn, log, err)
	}

	if err := writeText(conn, WSResult{
		Status:     "ok",
		Name:       res.Name,
		SampleRate: res.Signal.SampleRate,
		Channels:   res.Stats.Channels,
		Frames:     res.Stats.Frames,
		Peak:       res.Stats.Peak,
		RMS:        res.Stats.RMS,
		Bytes:      len(wav),
	}); err != nil {
		return err
	}

	log.WithField("bytes", len(wav)).Debug("websocket reply sent")
	return writeBinary(conn, wav)
}

func (s *Server) wsFail(conn *websocket.Conn, log logrus.FieldLogger, err error) error {
	status, msg := classify(err)
	log.WithError(err).WithField("status", status).Warn("websocket job failed")
	return writeText(conn, WSError{Error: msg, Status: status})
}

func writeText(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func writeBinary(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}
