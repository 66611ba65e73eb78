// Command reverbd serves the reverb effects over HTTP and WebSocket.
//
// Usage:
//
//	reverbd [flags]
//
// Endpoints:
//
//	POST /apply_reverb/  multipart "file", "reverb_type" and optional "d1", "d2", "d"
//	GET  /ws             JSON control message + binary audio per job
//	GET  /healthz        liveness and the list of effects
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/internal/asset"
	"github.com/cwbudde/algo-reverb/internal/pipeline"
	"github.com/cwbudde/algo-reverb/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type options struct {
	server   server.Config
	pipeline pipeline.Config
	rir      string
	level    string
	format   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		o           options
		maxUploadMB int64
		leadIn      string
		combs       string
	)

	fs := flag.NewFlagSet("reverbd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.server.Addr, "addr", server.DefaultAddr, "listen address")
	fs.StringVar(&o.rir, "rir", "", "impulse response file (default <install root>/"+asset.DefaultRelPath+")")
	fs.StringVar(&o.pipeline.OutDir, "out-dir", "output", "directory for rendered files")
	fs.Int64Var(&maxUploadMB, "max-upload-mb", server.DefaultMaxUploadBytes>>20, "maximum upload size in MiB")
	fs.DurationVar(&o.server.RequestTimeout, "timeout", server.DefaultRequestTimeout, "per-request processing timeout")
	fs.BoolVar(&o.server.KeepOutputs, "keep", true, "keep rendered files in -out-dir after sending them")
	fs.StringVar(&leadIn, "lead-in", reverb.LeadInSilent.String(), "filter lead-in: silent or zero-state")
	fs.StringVar(&combs, "schroeder-combs", reverb.CombsRetainLast.String(), "schroeder comb bank: last or sum")
	fs.StringVar(&o.level, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&o.format, "log-format", "text", "log format: text or json")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if maxUploadMB <= 0 {
		return o, fmt.Errorf("-max-upload-mb must be > 0, got %d", maxUploadMB)
	}
	o.server.MaxUploadBytes = maxUploadMB << 20

	var err error
	if o.pipeline.LeadIn, err = reverb.ParseLeadIn(leadIn); err != nil {
		return o, err
	}
	if o.pipeline.CombMode, err = reverb.ParseCombMode(combs); err != nil {
		return o, err
	}

	return o, nil
}

func newLogger(w io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)

	switch format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return log, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	log, err := newLogger(stderr, o.level, o.format)
	if err != nil {
		return err
	}

	loader := asset.NewLoader(o.rir, log.WithField("component", "asset"))
	if _, err := loader.Load(0); err != nil {
		// Requests for the other effects still work; "rir" answers 500
		// until the file appears.
		log.WithError(err).Warn("impulse response not available")
	}

	proc := pipeline.New(o.pipeline, loader, log)
	srv := server.New(o.server, proc, log)

	log.WithFields(logrus.Fields{
		"out_dir":          o.pipeline.OutDir,
		"rir":              loader.ResolvedPath(),
		"lead_in":          o.pipeline.LeadIn.String(),
		"schroeder_combs":  o.pipeline.CombMode.String(),
		"max_upload_bytes": srv.Config().MaxUploadBytes,
	}).Info("reverbd starting")

	return srv.ListenAndServe(ctx)
}
