// Package mash wraps the external mash sketching engine: query sketching,
// pairwise distance computation, and distance error bounds. The engine is
// invoked behind the Runner interface so the classification pipeline can be
// exercised in tests without mash on PATH.
package mash

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/avansant/cladecall/internal/schema"
)

// SketchOptions configures a mash sketch invocation.
type SketchOptions struct {
	KmerSize   int
	SketchSize int
	// Reads enables read-mode sketching (-r) with the given minimal k-mer
	// coverage (-m). Read mode makes mash estimate the genome size from
	// k-mer coverage; assembly mode does not.
	Reads           bool
	MinKmerCoverage int
}

// Runner is the mash collaborator contract. All calls are synchronous and
// one-shot; retry policy belongs to the caller.
type Runner interface {
	// Sketch writes a sketch of the input files to outPath. The returned
	// genome size estimate is only populated in read mode; it is 0 for
	// assemblies.
	Sketch(ctx context.Context, outPath string, inputs []string, opts SketchOptions) (genomeSize float64, err error)

	// Dist computes distances between every reference in refSketch and the
	// query sketch, in reference sketch order.
	Dist(ctx context.Context, refSketch, querySketch string) ([]schema.DistanceRecord, error)

	// Bounds returns the distance error bound for the given k-mer size and
	// confidence level, looked up for sketchSize at the smallest tabulated
	// distance above minDistance.
	Bounds(ctx context.Context, kmerSize int, confidence float64, sketchSize int, minDistance float64) (float64, error)
}

// ExecRunner runs mash as a subprocess.
type ExecRunner struct {
	// Binary is the mash executable; defaults to "mash" when empty.
	Binary string
	Logger *zap.Logger
}

func (r *ExecRunner) binary() string {
	if r.Binary == "" {
		return "mash"
	}
	return r.Binary
}

// CheckInstalled verifies that the mash binary is on PATH.
func (r *ExecRunner) CheckInstalled() error {
	if _, err := exec.LookPath(r.binary()); err != nil {
		return fmt.Errorf("mash: %s not found on PATH: %w", r.binary(), schema.ErrDependencyUnavailable)
	}
	return nil
}

// run executes one mash subcommand, relays its stderr through the logger and
// returns stdout and stderr.
func (r *ExecRunner) run(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	r.Logger.Info("running mash", zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, r.binary(), args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stderr = errBuf.String()
	for _, line := range strings.Split(stderr, "\n") {
		if line != "" {
			r.Logger.Info(line, zap.String("tool", "mash "+args[0]))
		}
	}
	if runErr != nil {
		return "", stderr, fmt.Errorf("mash %s: %v: %w", args[0], runErr, schema.ErrDependencyUnavailable)
	}
	return outBuf.String(), stderr, nil
}

// Sketch implements Runner.
func (r *ExecRunner) Sketch(ctx context.Context, outPath string, inputs []string, opts SketchOptions) (float64, error) {
	args := []string{"sketch"}
	if opts.Reads {
		args = append(args, "-r", "-m", strconv.Itoa(opts.MinKmerCoverage))
	}
	args = append(args, "-o", outPath,
		"-k", strconv.Itoa(opts.KmerSize),
		"-s", strconv.Itoa(opts.SketchSize))
	args = append(args, inputs...)

	_, stderr, err := r.run(ctx, args...)
	if strings.Contains(stderr, "ERROR: Did not find fasta records in") {
		return 0, fmt.Errorf("mash sketch: no sequence records in %v: %w", inputs, schema.ErrMalformedInput)
	}
	if err != nil {
		return 0, err
	}

	if !opts.Reads {
		return 0, nil
	}
	size, ok := parseGenomeSize(stderr)
	if !ok {
		return 0, fmt.Errorf("mash sketch: estimated genome size not found in stderr: %w", schema.ErrMalformedInput)
	}
	return size, nil
}

// parseGenomeSize extracts the "Estimated genome size" value mash prints to
// stderr when sketching reads.
func parseGenomeSize(stderr string) (float64, bool) {
	for _, line := range strings.Split(stderr, "\n") {
		if !strings.Contains(line, "Estimated genome size") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		size, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			continue
		}
		return size, true
	}
	return 0, false
}

// Dist implements Runner.
func (r *ExecRunner) Dist(ctx context.Context, refSketch, querySketch string) ([]schema.DistanceRecord, error) {
	stdout, _, err := r.run(ctx, "dist", refSketch, querySketch)
	if err != nil {
		return nil, err
	}
	return ParseDist(stdout)
}

// ParseDist parses mash dist output: one tab-separated row per reference with
// columns reference, query, distance, p-value, matching-hashes.
func ParseDist(text string) ([]schema.DistanceRecord, error) {
	var records []schema.DistanceRecord
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("mash dist: row %d has %d columns, want at least 3: %w",
				i+1, len(fields), schema.ErrMalformedInput)
		}
		d, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("mash dist: row %d distance %q: %w", i+1, fields[2], schema.ErrMalformedInput)
		}
		records = append(records, schema.DistanceRecord{ReferenceID: fields[0], Distance: d})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("mash dist: empty output: %w", schema.ErrMalformedInput)
	}
	return records, nil
}

// Bounds implements Runner.
func (r *ExecRunner) Bounds(ctx context.Context, kmerSize int, confidence float64, sketchSize int, minDistance float64) (float64, error) {
	stdout, _, err := r.run(ctx, "bounds",
		"-k", strconv.Itoa(kmerSize),
		"-p", strconv.FormatFloat(confidence, 'g', -1, 64))
	if err != nil {
		return 0, err
	}
	return ParseBounds(stdout, sketchSize, minDistance)
}

// ParseBounds extracts one error bound from mash bounds output. The output
// holds two tab-separated tables, "Mash distance" and "Screen distance",
// each keyed by sketch size with one column per tabulated distance. The
// bound is read from the Mash distance table, at the row for sketchSize and
// the first distance column strictly greater than minDistance.
func ParseBounds(text string, sketchSize int, minDistance float64) (float64, error) {
	lines := strings.Split(text, "\n")

	start, end := -1, -1
	for i, line := range lines {
		if strings.Contains(line, "Mash distance") && start == -1 {
			start = i + 1
		}
		if strings.Contains(line, "Screen distance") && end == -1 {
			end = i
		}
	}
	if start == -1 || end == -1 || start >= end {
		return 0, fmt.Errorf("mash bounds: distance table not found: %w", schema.ErrMalformedInput)
	}

	header := strings.Split(lines[start], "\t")
	if len(header) < 2 || header[0] != "Sketch" {
		return 0, fmt.Errorf("mash bounds: unexpected table header %q: %w", lines[start], schema.ErrMalformedInput)
	}

	col := -1
	for i, name := range header[1:] {
		d, err := strconv.ParseFloat(name, 64)
		if err != nil {
			return 0, fmt.Errorf("mash bounds: distance column %q: %w", name, schema.ErrMalformedInput)
		}
		if d > minDistance {
			col = i + 1
			break
		}
	}
	if col == -1 {
		return 0, fmt.Errorf("mash bounds: no tabulated distance above %v: %w", minDistance, schema.ErrMalformedInput)
	}

	for _, line := range lines[start+1 : end] {
		fields := strings.Split(line, "\t")
		if len(fields) <= col || fields[0] != strconv.Itoa(sketchSize) {
			continue
		}
		bound, err := strconv.ParseFloat(fields[col], 64)
		if err != nil || math.IsInf(bound, 0) {
			return 0, fmt.Errorf("mash bounds: no finite bound (%q) for sketch size %d: %w",
				fields[col], sketchSize, schema.ErrMalformedInput)
		}
		return bound, nil
	}
	return 0, fmt.Errorf("mash bounds: no row for sketch size %d: %w", sketchSize, schema.ErrMalformedInput)
}
