package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/internal/pipeline"
	"github.com/cwbudde/algo-reverb/internal/testutil"
	"github.com/gorilla/websocket"
)

type stubIRs struct {
	ir  *reverb.ImpulseResponse
	err error
}

func (s stubIRs) Load(int) (*reverb.ImpulseResponse, error) { return s.ir, s.err }

type fixture struct {
	srv    *Server
	http   *httptest.Server
	outDir string
}

func newFixture(t *testing.T, cfg Config, irs pipeline.ImpulseSource) *fixture {
	t.Helper()

	out := t.TempDir()
	proc := pipeline.New(pipeline.Config{OutDir: out}, irs, nil)
	s := New(cfg, proc, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &fixture{srv: s, http: ts, outDir: out}
}

func (f *fixture) outputs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.outDir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func wavBytes(t *testing.T, sig core.Signal) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	if err := codec.WriteWAVFile(path, sig); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func testInput(t *testing.T) []byte {
	return wavBytes(t, core.Mono(8000, testutil.DeterministicSine(300, 8000, 0.5, 4000)))
}

// multipartBody builds a form with the given fields and, when filename is
// not empty, a "file" part.
func multipartBody(t *testing.T, fields map[string]string, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func postApply(t *testing.T, url string, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/apply_reverb/", contentType, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, r io.Reader) string {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e.Error
}

func TestApplyReverb(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	body, ct := multipartBody(t, map[string]string{"reverb_type": "schroeder", "d": "5"}, "voice.wav", testInput(t))
	resp := postApply(t, f.http.URL, body, ct)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got %d want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "audio/wav" {
		t.Fatalf("content type got %q", got)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, `filename=voice_schroeder_reverb.wav`) {
		t.Fatalf("content disposition got %q", got)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Fatal("missing request id")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	sig, err := codec.Decode(bytes.NewReader(data), codec.FormatWAV)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sig.SampleRate != 8000 || !sig.IsMono() || sig.Len() != 4000 {
		t.Fatalf("got %d Hz %d ch %d frames", sig.SampleRate, sig.NumChannels(), sig.Len())
	}
	testutil.RequirePeak(t, sig.Channels[0], reverb.Headroom, 1e-4)

	if n := f.outputs(t); n != 0 {
		t.Fatalf("expected output to be removed, found %d files", n)
	}
}

func TestApplyKeepOutputs(t *testing.T) {
	f := newFixture(t, Config{KeepOutputs: true}, nil)

	body, ct := multipartBody(t, map[string]string{"reverb_type": "comb"}, "a.wav", testInput(t))
	resp := postApply(t, f.http.URL, body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got %d want 200", resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	if n := f.outputs(t); n != 1 {
		t.Fatalf("got %d output files want 1", n)
	}
}

func TestApplyImpulseStereo(t *testing.T) {
	irs := stubIRs{ir: &reverb.ImpulseResponse{
		SampleRate: 8000,
		Left:       testutil.RoomResponse(1, 8000, 0.1, 400),
		Right:      testutil.RoomResponse(2, 8000, 0.1, 400),
	}}
	f := newFixture(t, Config{}, irs)

	body, ct := multipartBody(t, map[string]string{"reverb_type": "rir"}, "a.wav", testInput(t))
	resp := postApply(t, f.http.URL, body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got %d want 200", resp.StatusCode)
	}

	data, _ := io.ReadAll(resp.Body)
	sig, err := codec.Decode(bytes.NewReader(data), codec.FormatWAV)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sig.NumChannels() != 2 || sig.Len() != 4000 {
		t.Fatalf("got %d ch %d frames want stereo 4000", sig.NumChannels(), sig.Len())
	}
}

func TestApplyErrors(t *testing.T) {
	assetFail := stubIRs{err: &reverb.AssetLoadError{Path: "rir/rir.wav", Err: os.ErrNotExist}}

	tests := []struct {
		name     string
		cfg      Config
		irs      pipeline.ImpulseSource
		fields   map[string]string
		filename string
		data     func(t *testing.T) []byte
		want     int
		wantMsg  string
	}{
		{
			name:     "unknown reverb type",
			fields:   map[string]string{"reverb_type": "foo"},
			filename: "a.wav",
			data:     testInput,
			want:     http.StatusBadRequest,
			wantMsg:  "Unknown reverb type",
		},
		{
			name:    "missing file",
			fields:  map[string]string{"reverb_type": "comb"},
			want:    http.StatusBadRequest,
			wantMsg: "missing form file",
		},
		{
			name:     "bad distance",
			fields:   map[string]string{"reverb_type": "comb", "d": "ten"},
			filename: "a.wav",
			data:     testInput,
			want:     http.StatusBadRequest,
			wantMsg:  "invalid parameter",
		},
		{
			name:     "negative distance",
			fields:   map[string]string{"reverb_type": "simple", "d1": "-1"},
			filename: "a.wav",
			data:     testInput,
			want:     http.StatusBadRequest,
			wantMsg:  "distance",
		},
		{
			name:     "corrupt audio",
			fields:   map[string]string{"reverb_type": "comb"},
			filename: "a.wav",
			data:     func(*testing.T) []byte { return []byte("not a wav") },
			want:     http.StatusBadRequest,
			wantMsg:  "invalid or corrupt",
		},
		{
			name:     "unsupported extension",
			fields:   map[string]string{"reverb_type": "comb"},
			filename: "a.flac",
			data:     testInput,
			want:     http.StatusBadRequest,
			wantMsg:  "unsupported",
		},
		{
			name:     "asset failure",
			irs:      assetFail,
			fields:   map[string]string{"reverb_type": "rir"},
			filename: "a.wav",
			data:     testInput,
			want:     http.StatusInternalServerError,
			wantMsg:  "Impulse response unavailable",
		},
		{
			name:     "oversize upload",
			cfg:      Config{MaxUploadBytes: 1024},
			fields:   map[string]string{"reverb_type": "comb"},
			filename: "a.wav",
			data:     testInput,
			want:     http.StatusRequestEntityTooLarge,
			wantMsg:  "Upload too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.cfg, tt.irs)

			var data []byte
			if tt.data != nil {
				data = tt.data(t)
			}
			body, ct := multipartBody(t, tt.fields, tt.filename, data)
			resp := postApply(t, f.http.URL, body, ct)

			if resp.StatusCode != tt.want {
				t.Fatalf("status got %d want %d", resp.StatusCode, tt.want)
			}
			if got := resp.Header.Get("Content-Type"); got != "application/json" {
				t.Fatalf("content type got %q want application/json", got)
			}
			if msg := decodeError(t, resp.Body); !strings.Contains(msg, tt.wantMsg) {
				t.Fatalf("error got %q want it to contain %q", msg, tt.wantMsg)
			}
			if n := f.outputs(t); n != 0 {
				t.Fatalf("expected no output files, found %d", n)
			}
		})
	}
}

func TestApplyMethodNotAllowed(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	resp, err := http.Get(f.http.URL + "/apply_reverb/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status got %d want 405", resp.StatusCode)
	}
}

func TestPreflight(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/apply_reverb/", nil)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status got %d want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin")
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Fatalf("allow methods got %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestRequestIDPropagated(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id got %q want abc-123", got)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status got %d want 200", rec.Code)
	}
	var h healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	want := []string{"simple", "comb", "allpass", "schroeder", "rir"}
	if h.Status != "ok" || fmt.Sprint(h.Effects) != fmt.Sprint(want) {
		t.Fatalf("got %+v want effects %v", h, want)
	}
}

func TestConfigDefaults(t *testing.T) {
	s := New(Config{}, pipeline.New(pipeline.Config{}, nil, nil), nil)
	cfg := s.Config()

	if cfg.Addr != DefaultAddr || cfg.MaxUploadBytes != DefaultMaxUploadBytes || cfg.RequestTimeout != DefaultRequestTimeout {
		t.Fatalf("got %+v", cfg)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown effect", fmt.Errorf("wrap: %w", reverb.ErrUnknownEffect), http.StatusBadRequest},
		{"asset", &reverb.AssetLoadError{Path: "x", Err: os.ErrNotExist}, http.StatusInternalServerError},
		{"no impulse", reverb.ErrNoImpulse, http.StatusInternalServerError},
		{"decode", codec.ErrInvalidFile, http.StatusBadRequest},
		{"channels", codec.ErrTooManyChannels, http.StatusBadRequest},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := classify(tt.err)
			if got != tt.want {
				t.Fatalf("got %d want %d", got, tt.want)
			}
			if got == http.StatusInternalServerError && strings.Contains(msg, "boom") {
				t.Fatalf("internal error leaked: %q", msg)
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		form    map[string]string
		want    reverb.Params
		wantErr error
	}{
		{name: "defaults", form: nil, want: reverb.DefaultParams()},
		{name: "override", form: map[string]string{"d1": "1.5", "d2": " 4 ", "d": "20"}, want: reverb.Params{D1: 1.5, D2: 4, D: 20}},
		{name: "not a number", form: map[string]string{"d": "x"}, wantErr: errBadParam},
		{name: "negative", form: map[string]string{"d2": "-3"}, wantErr: reverb.ErrInvalidDistance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(func(k string) string { return tt.form[k] })
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
		})
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, pipeline.New(pipeline.Config{}, nil, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

func TestWebSocketRoundTrip(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(f.http.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Fatal("missing request id on upgrade")
	}

	d := 3.0
	if err := conn.WriteJSON(WSRequest{ReverbType: "allpass", Filename: "take.wav", D: &d}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, testInput(t)); err != nil {
		t.Fatal(err)
	}

	var res WSResult
	if err := conn.ReadJSON(&res); err != nil {
		t.Fatalf("read result: %v", err)
	}
	if res.Status != "ok" || res.Name != "take_allpass_reverb.wav" || res.Frames != 4000 || res.Channels != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if mt != websocket.BinaryMessage || len(data) != res.Bytes {
		t.Fatalf("got type %d len %d want binary len %d", mt, len(data), res.Bytes)
	}
	sig, err := codec.Decode(bytes.NewReader(data), codec.FormatWAV)
	if err != nil {
		t.Fatalf("decode wav: %v", err)
	}
	if sig.Len() != 4000 {
		t.Fatalf("frames got %d want 4000", sig.Len())
	}

	if n := f.outputs(t); n != 0 {
		t.Fatalf("expected output to be removed, found %d files", n)
	}
}

func TestWebSocketHandshakeHeaders(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	tests := []struct {
		name   string
		sent   string
		wantID string
	}{
		{name: "client id echoed", sent: "ws-42", wantID: "ws-42"},
		{name: "generated id", sent: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.sent != "" {
				h.Set(RequestIDHeader, tt.sent)
			}

			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(f.http.URL), h)
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			defer conn.Close()

			if resp.StatusCode != http.StatusSwitchingProtocols {
				t.Fatalf("status got %d want 101", resp.StatusCode)
			}
			id := resp.Header.Get(RequestIDHeader)
			if id == "" || (tt.wantID != "" && id != tt.wantID) {
				t.Fatalf("request id got %q want %q", id, tt.wantID)
			}
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
				t.Fatalf("CORS origin got %q want *", got)
			}
		})
	}
}

func TestHandshakeHeader(t *testing.T) {
	src := http.Header{}
	src.Set(RequestIDHeader, "abc")
	src.Set("Access-Control-Allow-Origin", "*")
	src.Set("Content-Type", "text/plain")

	got := handshakeHeader(src)
	if got.Get(RequestIDHeader) != "abc" || got.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("got %v", got)
	}
	if got.Get("Content-Type") != "" {
		t.Fatalf("unexpected header copied: %v", got)
	}
}

func TestWebSocketErrorsKeepConnection(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(f.http.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readError := func(t *testing.T) WSError {
		t.Helper()
		var e WSError
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("read error: %v", err)
		}
		return e
	}

	// Unknown type: control plus payload, one error reply.
	if err := conn.WriteJSON(WSRequest{ReverbType: "foo"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, testInput(t)); err != nil {
		t.Fatal(err)
	}
	if e := readError(t); e.Status != http.StatusBadRequest || e.Error != "Unknown reverb type" {
		t.Fatalf("got %+v", e)
	}

	// Binary without a control message.
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if e := readError(t); e.Status != http.StatusBadRequest {
		t.Fatalf("got %+v", e)
	}

	// The connection still processes a valid job.
	if err := conn.WriteJSON(WSRequest{ReverbType: "comb", Filename: "a.wav"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, testInput(t)); err != nil {
		t.Fatal(err)
	}
	var res WSResult
	if err := conn.ReadJSON(&res); err != nil || res.Status != "ok" {
		t.Fatalf("got %+v err=%v", res, err)
	}
}
