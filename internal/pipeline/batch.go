package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/keagan/vidfeatures/internal/features"
	"github.com/keagan/vidfeatures/internal/frames"
	"github.com/keagan/vidfeatures/internal/logging"
	"github.com/keagan/vidfeatures/pkg/util"
	"github.com/rs/zerolog"
)

// Batch runs an Extractor over every matching video in a directory
type Batch struct {
	logger    zerolog.Logger
	extractor Extractor
	rule      util.MatchRule
	out       io.Writer
}

// NewBatch creates a batch driver writing records and error lines to out
func NewBatch(logger zerolog.Logger, extractor Extractor, rule util.MatchRule, out io.Writer) *Batch {
	return &Batch{
		logger:    logging.WithComponent(logger, "batch"),
		extractor: extractor,
		rule:      rule,
		out:       out,
	}
}

// Run processes each matching file once, in name order. A failing file is
// reported and skipped; only listing errors and cancellation end the run early.
func (b *Batch) Run(ctx context.Context, dir string) (*Report, error) {
	report := &Report{}

	if !util.DirExists(dir) {
		b.logger.Warn().Str("dir", dir).Msg("input folder not found")
		fmt.Fprintf(b.out, "Folder not found: %s\n", dir)
		return report, nil
	}

	paths, err := util.ListMatching(dir, b.rule)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	if len(paths) == 0 {
		b.logger.Warn().
			Str("dir", dir).
			Str("prefix", b.rule.Prefix).
			Str("extension", b.rule.Extension).
			Msg("no matching videos")
		fmt.Fprintln(b.out, "No sample videos found.")
		return report, nil
	}

	b.logger.Info().Str("dir", dir).Int("videos", len(paths)).Msg("starting batch")

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		name := filepath.Base(path)
		fmt.Fprintf(b.out, "\nProcessing: %s\n", name)

		record, err := b.extractOne(ctx, path)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			b.logger.Warn().Str("video", name).Msg("batch interrupted")
			return report, err
		}
		if err == nil {
			var data []byte
			data, err = record.JSON()
			if err == nil {
				fmt.Fprintln(b.out, string(data))
				report.Results = append(report.Results, Result{Name: name, Path: path, Record: record})
				continue
			}
		}

		b.logger.Error().Err(err).Str("video", name).Str("kind", frames.Kind(err)).Msg("video failed")
		fmt.Fprintf(b.out, "Error processing %s: %v\n", name, err)
		report.Failures = append(report.Failures, Failure{Name: name, Path: path, Err: err})
	}

	b.logger.Info().
		Int("processed", len(report.Results)).
		Int("failed", len(report.Failures)).
		Msg("batch complete")

	return report, nil
}

// extractOne is the per-video fault boundary; a panic becomes that video's error
func (b *Batch) extractOne(ctx context.Context, path string) (record features.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.extractor.Extract(ctx, path)
}
