// Package pipeline runs one reverb job end to end: decode the upload, mix it
// to mono, apply the effect and write the result as 16-bit WAV.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	timestats "github.com/cwbudde/algo-reverb/stats/time"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNoSource is returned for a job without input data.
var ErrNoSource = errors.New("pipeline: job has no source")

// ImpulseSource provides the impulse response for the "rir" effect at a
// given sample rate.
type ImpulseSource interface {
	Load(sampleRate int) (*reverb.ImpulseResponse, error)
}

// Config holds processing settings shared by every job.
type Config struct {
	LeadIn   reverb.LeadIn
	CombMode reverb.CombMode
	// OutDir receives rendered files. Empty means os.TempDir().
	OutDir string
}

// Job describes one processing request.
type Job struct {
	Kind   reverb.Kind
	Params reverb.Params
	// Name is the client's file name. It picks the decoder when Format is
	// FormatUnknown and names the output.
	Name   string
	Format codec.Format
	Source io.ReadSeeker
	// Log overrides the processor logger, typically with request fields.
	Log logrus.FieldLogger
}

// Result is a rendered job.
type Result struct {
	// Path is the WAV file written to Config.OutDir.
	Path string
	// Name is the suggested download name, "<base>_<kind>_reverb.wav".
	Name   string
	Signal core.Signal
	Stats  timestats.Summary
}

// Processor executes jobs. It is safe for concurrent use.
type Processor struct {
	cfg Config
	irs ImpulseSource
	log logrus.FieldLogger
}

// New returns a Processor. irs may be nil when the "rir" effect is not
// needed; log may be nil to discard messages.
func New(cfg Config, irs ImpulseSource, log logrus.FieldLogger) *Processor {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Processor{cfg: cfg, irs: irs, log: log}
}

// Config returns the processor settings.
func (p *Processor) Config() Config { return p.cfg }

// OutputName returns "<base>_<kind>_reverb.wav" for an upload called name.
func OutputName(name string, kind reverb.Kind) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "audio"
	}
	return fmt.Sprintf("%s_%s_reverb.wav", base, kind)
}

// Process runs job. The context is checked between stages; the DSP itself
// is not interruptible.
func (p *Processor) Process(ctx context.Context, job Job) (*Result, error) {
	if job.Source == nil {
		return nil, ErrNoSource
	}

	log := job.Log
	if log == nil {
		log = p.log
	}
	log = log.WithFields(logrus.Fields{"reverb_type": job.Kind.String(), "file": job.Name})

	format := job.Format
	if format == codec.FormatUnknown {
		f, err := codec.FormatFromName(job.Name)
		if err != nil {
			return nil, err
		}
		format = f
	}

	sig, err := codec.Decode(job.Source, format)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"format":      format.String(),
		"sample_rate": sig.SampleRate,
		"channels":    sig.NumChannels(),
		"frames":      sig.Len(),
	}).Debug("input decoded")

	mono, err := codec.Downmix(sig)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ir *reverb.ImpulseResponse
	if job.Kind.NeedsImpulse() {
		if p.irs == nil {
			return nil, reverb.ErrNoImpulse
		}
		if ir, err = p.irs.Load(mono.SampleRate); err != nil {
			return nil, err
		}
	}

	out, err := reverb.Apply(job.Kind, mono, job.Params, ir,
		reverb.WithLogger(log),
		reverb.WithLeadIn(p.cfg.LeadIn),
		reverb.WithCombMode(p.cfg.CombMode),
	)
	if err != nil {
		return nil, err
	}

	stats := timestats.Summarize(out.Channels...)
	log.WithFields(logrus.Fields{
		"frames":   stats.Frames,
		"channels": stats.Channels,
		"peak":     stats.Peak,
		"rms":      stats.RMS,
		"clipped":  stats.Clipped,
	}).Info("reverb applied")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Name:   OutputName(job.Name, job.Kind),
		Signal: out,
		Stats:  stats,
	}

	dir := p.cfg.OutDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: output dir: %w", err)
	}

	res.Path = filepath.Join(dir, uuid.NewString()+"_"+res.Name)
	if err := codec.WriteWAVFile(res.Path, out); err != nil {
		_ = os.Remove(res.Path)
		return nil, err
	}
	log.WithField("path", res.Path).Debug("output written")

	return res, nil
}
