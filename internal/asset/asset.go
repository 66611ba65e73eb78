// Package asset loads the stereo room impulse response used by the "rir"
// effect, converts it to the requested sample rate and caches the result.
package asset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/dsp/resample"
	"github.com/cwbudde/algo-reverb/measure/ir"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultRelPath is the impulse response location relative to the install root.
var DefaultRelPath = filepath.Join("rir", "rir.wav")

// DefaultPath returns DefaultRelPath resolved against the directory of the
// running executable. It falls back to the relative path when the
// executable cannot be located.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultRelPath
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Join(filepath.Dir(exe), DefaultRelPath)
}

// Loader decodes an impulse response file once and hands out read-only
// copies converted to each requested sample rate. A failed load is not
// cached, so a later call retries. Loader is safe for concurrent use.
type Loader struct {
	// Path of the IR file. Empty means DefaultPath().
	Path string
	// TargetRate is used when Load is called with a non-positive rate.
	// Zero keeps the file's own rate.
	TargetRate int
	// Log receives load and analysis messages. Nil discards them.
	Log logrus.FieldLogger
	// Quality selects the resampler used on rate mismatch.
	Quality resample.Quality

	mu     sync.Mutex
	source *reverb.ImpulseResponse
	byRate map[int]*reverb.ImpulseResponse
}

// NewLoader returns a Loader for path using the default resampling quality.
func NewLoader(path string, log logrus.FieldLogger) *Loader {
	return &Loader{Path: path, Log: log, Quality: resample.QualityBalanced}
}

// ResolvedPath returns the file the loader reads.
func (l *Loader) ResolvedPath() string {
	if l.Path == "" {
		return DefaultPath()
	}
	return l.Path
}

// Load returns the impulse response at sampleRate. Failures are returned as
// *reverb.AssetLoadError.
func (l *Loader) Load(sampleRate int) (*reverb.ImpulseResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.ResolvedPath()

	if sampleRate <= 0 {
		sampleRate = l.TargetRate
	}
	if cached, ok := l.byRate[sampleRate]; ok {
		return cached, nil
	}

	if l.source == nil {
		src, err := decode(path)
		if err != nil {
			return nil, &reverb.AssetLoadError{Path: path, Err: err}
		}
		l.source = src
	}
	if sampleRate <= 0 {
		sampleRate = l.source.SampleRate
	}
	if cached, ok := l.byRate[sampleRate]; ok {
		return cached, nil
	}

	out, err := convert(l.source, sampleRate, l.Quality)
	if err != nil {
		return nil, &reverb.AssetLoadError{Path: path, Err: err}
	}

	l.report(path, l.source.SampleRate, out)

	if l.byRate == nil {
		l.byRate = make(map[int]*reverb.ImpulseResponse)
	}
	l.byRate[sampleRate] = out

	return out, nil
}

// Reset drops the decoded file and every cached rate.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.source = nil
	l.byRate = nil
}

func (l *Loader) logger() logrus.FieldLogger {
	if l.Log == nil {
		log := logrus.New()
		log.SetOutput(io.Discard)
		return log
	}
	return l.Log
}

func (l *Loader) report(path string, fileRate int, resp *reverb.ImpulseResponse) {
	log := l.logger().WithFields(logrus.Fields{
		"path":        path,
		"file_rate":   fileRate,
		"sample_rate": resp.SampleRate,
		"samples":     resp.Len(),
	})

	left, right, err := Analyze(resp)
	if err != nil {
		log.WithError(err).Warn("impulse response loaded, analysis failed")
		return
	}

	log.WithFields(logrus.Fields{
		"rt60_s": left.RT60,
		"edt_s":  left.EDT,
		"c80_db": left.C80,
		"d50":    left.D50,
		"rt60_r": right.RT60,
	}).Info("impulse response loaded")
}

// Analyze returns room-acoustic metrics for both channels of resp.
func Analyze(resp *reverb.ImpulseResponse) (left, right ir.Metrics, err error) {
	if resp == nil {
		return ir.Metrics{}, ir.Metrics{}, reverb.ErrNoImpulse
	}
	return ir.NewAnalyzer(float64(resp.SampleRate)).AnalyzeStereo(resp.Left, resp.Right)
}

func decode(path string) (*reverb.ImpulseResponse, error) {
	sig, err := codec.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	resp, err := fromSignal(sig)
	if err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}

	return resp, nil
}

// fromSignal duplicates a mono file into both channels.
func fromSignal(sig core.Signal) (*reverb.ImpulseResponse, error) {
	switch sig.NumChannels() {
	case 1:
		left := sig.Channels[0]
		right := make([]float64, len(left))
		copy(right, left)
		return &reverb.ImpulseResponse{SampleRate: sig.SampleRate, Left: left, Right: right}, nil
	case 2:
		return &reverb.ImpulseResponse{SampleRate: sig.SampleRate, Left: sig.Channels[0], Right: sig.Channels[1]}, nil
	default:
		return nil, fmt.Errorf("%w: %d channels", reverb.ErrImpulseChannels, sig.NumChannels())
	}
}

func convert(src *reverb.ImpulseResponse, rate int, q resample.Quality) (*reverb.ImpulseResponse, error) {
	if src.SampleRate == rate {
		return src, nil
	}

	out := &reverb.ImpulseResponse{SampleRate: rate}

	var g errgroup.Group
	g.Go(func() (err error) {
		out.Left, err = resample.Convert(src.Left, src.SampleRate, rate, resample.WithQuality(q))
		return err
	})
	g.Go(func() (err error) {
		out.Right, err = resample.Convert(src.Right, src.SampleRate, rate, resample.WithQuality(q))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resample %d -> %d Hz: %w", src.SampleRate, rate, err)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	return out, nil
}

// IsNotExist reports whether err is an asset failure caused by a missing file.
func IsNotExist(err error) bool {
	var ae *reverb.AssetLoadError
	return errors.As(err, &ae) && errors.Is(ae.Err, os.ErrNotExist)
}
