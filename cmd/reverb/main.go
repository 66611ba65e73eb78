// Command reverb applies a reverb effect to an audio file offline.
//
// Usage:
//
//	reverb [flags] input [output]
//
// The output defaults to "<input>_<type>_reverb.wav" next to the input and
// is always 16-bit PCM WAV.
//
// Examples:
//
//	reverb -type comb -d 15 voice.wav
//	reverb -type simple -d1 1 -d2 6 take.aiff out.wav
//	reverb -type rir -rir halls/church.wav drums.mp3
//	reverb -ir-info -rir halls/church.wav
//	reverb -list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/internal/asset"
	"github.com/cwbudde/algo-reverb/internal/pipeline"
	"github.com/cwbudde/algo-reverb/measure/ir"
	"github.com/sirupsen/logrus"
)

var errUsage = errors.New("usage: reverb [flags] input [output]")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	def := reverb.DefaultParams()

	fs := flag.NewFlagSet("reverb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	kindName := fs.String("type", reverb.KindSchroeder.String(), "effect: simple, comb, allpass, schroeder or rir")
	d1 := fs.Float64("d1", def.D1, "simple: source-to-listener distance in metres")
	d2 := fs.Float64("d2", def.D2, "simple: wall distance in metres")
	d := fs.Float64("d", def.D, "comb, allpass, schroeder: distance in metres")
	rirPath := fs.String("rir", "", "impulse response file (default <install root>/"+asset.DefaultRelPath+")")
	leadIn := fs.String("lead-in", reverb.LeadInSilent.String(), "filter lead-in: silent or zero-state")
	combs := fs.String("schroeder-combs", reverb.CombsRetainLast.String(), "schroeder comb bank: last or sum")
	irInfo := fs.Bool("ir-info", false, "print impulse response metrics and exit")
	list := fs.Bool("list", false, "list available effects and exit")
	verbose := fs.Bool("v", false, "log processing stages")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: reverb [flags] input [output]\n\n")
		fmt.Fprintf(stderr, "Applies a reverb effect and writes 16-bit WAV.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *list {
		for _, k := range reverb.Kinds() {
			fmt.Fprintln(stdout, k)
		}
		return nil
	}

	loader := asset.NewLoader(*rirPath, log)

	if *irInfo {
		return printIRInfo(stdout, loader)
	}

	kind, err := reverb.ParseKind(*kindName)
	if err != nil {
		return err
	}
	lead, err := reverb.ParseLeadIn(*leadIn)
	if err != nil {
		return err
	}
	mode, err := reverb.ParseCombMode(*combs)
	if err != nil {
		return err
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return errUsage
	}
	in := fs.Arg(0)
	out := fs.Arg(1)
	if out == "" {
		out = filepath.Join(filepath.Dir(in), pipeline.OutputName(in, kind))
	}

	return apply(in, out, pipeline.Config{
		LeadIn:   lead,
		CombMode: mode,
		OutDir:   filepath.Dir(out),
	}, pipeline.Job{
		Kind:   kind,
		Params: reverb.Params{D1: *d1, D2: *d2, D: *d},
		Name:   in,
	}, loader, log, stdout)
}

func apply(in, out string, cfg pipeline.Config, job pipeline.Job, irs pipeline.ImpulseSource, log *logrus.Logger, stdout io.Writer) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()
	job.Source = f

	res, err := pipeline.New(cfg, irs, log).Process(context.Background(), job)
	if err != nil {
		return err
	}
	if err := os.Rename(res.Path, out); err != nil {
		_ = os.Remove(res.Path)
		return err
	}

	fmt.Fprintf(stdout, "%s: %s, %d Hz, %d ch, %d frames, peak %.3f\n",
		out, job.Kind, res.Signal.SampleRate, res.Stats.Channels, res.Stats.Frames, res.Stats.Peak)
	return nil
}

func printIRInfo(w io.Writer, loader *asset.Loader) error {
	resp, err := loader.Load(0)
	if err != nil {
		return err
	}
	left, right, err := asset.Analyze(resp)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %d Hz, %d samples (%.3f s)\n\n",
		loader.ResolvedPath(), resp.SampleRate, resp.Len(), float64(resp.Len())/float64(resp.SampleRate))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Channel\tRT60 (s)\tEDT (s)\tT20 (s)\tT30 (s)\tC50 (dB)\tC80 (dB)\tD50\tD80\tTs (ms)\t\n")
	for _, row := range []struct {
		name string
		m    ir.Metrics
	}{
		{"left", left},
		{"right", right},
	} {
		m := row.m
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.2f\t%.2f\t%.3f\t%.3f\t%.1f\t\n",
			row.name, m.RT60, m.EDT, m.T20, m.T30, m.C50, m.C80, m.D50, m.D80, m.CenterTime*1000)
	}
	return tw.Flush()
}
