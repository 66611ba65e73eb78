package reverb

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// LeadIn selects what the delay-based filters emit before the first delayed
// sample is available.
type LeadIn int

const (
	// LeadInSilent outputs zeros for every index below the delay.
	LeadInSilent LeadIn = iota
	// LeadInZeroState treats samples before the start as zero, so the
	// difference equation runs from index 0.
	LeadInZeroState
)

func (l LeadIn) String() string {
	switch l {
	case LeadInSilent:
		return "silent"
	case LeadInZeroState:
		return "zero-state"
	default:
		return fmt.Sprintf("LeadIn(%d)", int(l))
	}
}

// ParseLeadIn parses "silent" or "zero-state".
func ParseLeadIn(s string) (LeadIn, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "":
		return LeadInSilent, nil
	case "zero-state", "zerostate", "zero":
		return LeadInZeroState, nil
	default:
		return 0, fmt.Errorf("%w: lead-in %q", ErrInvalidOption, s)
	}
}

// CombMode selects how the Schroeder comb bank is combined.
type CombMode int

const (
	// CombsRetainLast computes every comb but passes only the last one on.
	CombsRetainLast CombMode = iota
	// CombsSum passes the sum of all comb outputs on.
	CombsSum
)

func (m CombMode) String() string {
	switch m {
	case CombsRetainLast:
		return "last"
	case CombsSum:
		return "sum"
	default:
		return fmt.Sprintf("CombMode(%d)", int(m))
	}
}

// ParseCombMode parses "last" or "sum".
func ParseCombMode(s string) (CombMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last", "":
		return CombsRetainLast, nil
	case "sum":
		return CombsSum, nil
	default:
		return 0, fmt.Errorf("%w: comb mode %q", ErrInvalidOption, s)
	}
}

type config struct {
	log      logrus.FieldLogger
	leadIn   LeadIn
	combMode CombMode
}

// Option configures an effect.
type Option func(*config)

// WithLogger routes per-stage debug records to log.
func WithLogger(log logrus.FieldLogger) Option {
	return func(cfg *config) {
		if log != nil {
			cfg.log = log
		}
	}
}

// WithLeadIn sets the lead-in policy of the delay-based filters.
func WithLeadIn(l LeadIn) Option {
	return func(cfg *config) {
		cfg.leadIn = l
	}
}

// WithCombMode sets how Schroeder combines its comb bank.
func WithCombMode(m CombMode) Option {
	return func(cfg *config) {
		cfg.combMode = m
	}
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func newConfig(opts []Option) *config {
	cfg := &config{log: discardLogger}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *config) stage(name string, distance float64, delay, samples int) {
	c.log.WithFields(logrus.Fields{
		"stage":         name,
		"distance_m":    distance,
		"delay_samples": delay,
		"samples":       samples,
	}).Debug("reverb stage")
}
