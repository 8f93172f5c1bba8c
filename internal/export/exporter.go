package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"cdjexport/internal/config"
	"cdjexport/internal/fileutil"
	"cdjexport/internal/logging"
	"cdjexport/internal/preflight"
	"cdjexport/internal/services"
)

// Options controls copy behaviour.
type Options struct {
	Overwrite           bool
	Verify              bool
	PreserveTimes       bool
	CheckFreeSpace      bool
	DryRun              bool
	SupportedExtensions []string
}

// OptionsFromConfig reads copy behaviour from the export and device sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Overwrite:           cfg.Export.OverwriteExisting,
		Verify:              cfg.Export.VerifyCopies,
		PreserveTimes:       cfg.Export.PreserveTimes,
		CheckFreeSpace:      cfg.Export.CheckFreeSpace,
		SupportedExtensions: slices.Clone(cfg.Device.SupportedExtensions),
	}
}

// Exporter creates the device layout and copies planned files.
type Exporter struct {
	opts     Options
	logger   *slog.Logger
	progress ProgressFactory
}

// ExporterOption customizes an Exporter.
type ExporterOption func(*Exporter)

// WithProgress draws copy progress through factory.
func WithProgress(factory ProgressFactory) ExporterOption {
	return func(e *Exporter) {
		e.progress = factory
	}
}

// NewExporter builds an Exporter.
func NewExporter(opts Options, logger *slog.Logger, options ...ExporterOption) *Exporter {
	e := &Exporter{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "exporter"),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

type action int

const (
	actionCopy action = iota
	actionSkip
	actionFail
)

type decision struct {
	action action
	reason string
	size   int64
	err    error
}

// decide works out what Run would do with entry given the current state of
// the disk.
func (e *Exporter) decide(entry Entry) decision {
	source := entry.Track.Path
	if strings.TrimSpace(source) == "" {
		return decision{action: actionFail, reason: ReasonNoSource}
	}
	if !e.supported(source) {
		return decision{action: actionSkip, reason: ReasonUnsupported}
	}
	info, err := os.Stat(source)
	if err != nil || !info.Mode().IsRegular() {
		if err == nil {
			err = fmt.Errorf("%s is not a regular file", source)
		}
		return decision{action: actionFail, reason: ReasonSourceMissing, err: err}
	}
	if !e.opts.Overwrite {
		if _, err := os.Lstat(entry.Destination); err == nil {
			return decision{action: actionSkip, reason: ReasonExists}
		}
	}
	return decision{action: actionCopy, size: info.Size()}
}

func (e *Exporter) supported(path string) bool {
	if len(e.opts.SupportedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(e.opts.SupportedExtensions, ext)
}

// Prepare creates the layout and checks the destination. Every error it
// returns is fatal and wraps ErrDestinationUnwritable. A dry run only checks
// that the root exists.
func (e *Exporter) Prepare(plan *Plan) error {
	root := plan.Layout.Root
	info, err := os.Stat(root)
	if err != nil {
		return unwritable("stat root", fmt.Sprintf("destination %s is not accessible", root), err)
	}
	if !info.IsDir() {
		return unwritable("stat root", fmt.Sprintf("destination %s is not a directory", root), nil)
	}
	if e.opts.DryRun {
		return nil
	}

	for _, dir := range plan.Layout.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return unwritable("create layout", fmt.Sprintf("create %s", dir), err)
		}
	}
	if r := preflight.CheckDirectoryAccess("Destination", plan.Layout.Target); !r.Passed {
		return unwritable("check access", r.Detail, nil)
	}

	if e.opts.CheckFreeSpace {
		var need uint64
		for _, entry := range plan.Entries {
			if d := e.decide(entry); d.action == actionCopy {
				need += uint64(d.size)
			}
		}
		if need > 0 {
			if r := preflight.CheckFreeSpace("Destination", plan.Layout.Target, need); !r.Passed {
				return unwritable("check free space", r.Detail, nil)
			}
		}
	}
	return nil
}

func unwritable(operation, message string, err error) error {
	return services.Wrap(services.ErrDestinationUnwritable, "export", operation, message, err)
}

// Run copies the planned files in order. Per-file failures are recorded in
// the report. A cancelled context stops the run between files; the report
// then covers the files handled so far and the context error is returned.
func (e *Exporter) Run(ctx context.Context, plan *Plan) (*Report, error) {
	started := time.Now()
	logger := logging.WithContext(ctx, e.logger)
	report := &Report{
		Playlist:    plan.Playlist,
		Destination: plan.Layout.Target,
		DryRun:      e.opts.DryRun,
	}

	decisions := make([]decision, len(plan.Entries))
	var total int64
	for i, entry := range plan.Entries {
		decisions[i] = e.decide(entry)
		if decisions[i].action == actionCopy {
			total += decisions[i].size
		}
	}

	var progress Progress = nopProgress{}
	if e.progress != nil && !e.opts.DryRun && total > 0 {
		progress = e.progress(total)
	}
	defer func() { _ = progress.Finish() }()

	logger.Info("export started",
		logging.String("destination", plan.Layout.Target),
		logging.Int("tracks", len(plan.Entries)),
		logging.Int64("bytes_planned", total),
		logging.Bool("dry_run", e.opts.DryRun),
	)

	for i, entry := range plan.Entries {
		if err := ctx.Err(); err != nil {
			report.Interrupted = true
			report.Duration = time.Since(started)
			logging.WarnWithContext(logger, "export interrupted", "export_interrupted",
				logging.Int("handled", i),
				logging.Int("remaining", len(plan.Entries)-i),
				logging.String(logging.FieldErrorHint, "re-run the export; finished files are skipped"),
				logging.String(logging.FieldImpact, "playlist is incomplete on the device"),
			)
			return report, fmt.Errorf("export interrupted: %w", err)
		}

		res := FileResult{
			Position:    entry.Position,
			Title:       entry.Track.Title,
			Source:      entry.Track.Path,
			FileName:    entry.FileName,
			Destination: entry.Destination,
		}
		d := decisions[i]
		// The disk may have changed since planning when an earlier entry
		// failed or a file was written meanwhile.
		if d.action == actionCopy {
			d = e.decide(entry)
		}
		// Partial copies left by a killed run are never reused.
		if !e.opts.DryRun && d.action != actionFail {
			if err := fileutil.RemovePart(entry.Destination); err != nil {
				logger.Debug("stale partial copy not removed",
					logging.String("file_name", entry.FileName),
					logging.Error(err),
				)
			}
		}

		switch d.action {
		case actionSkip:
			res.Status = StatusSkipped
			res.Reason = d.reason
			logger.Debug("track skipped", logging.Args(append(
				logging.DecisionAttrs("track_copy", "skipped", d.reason),
				logging.String("file_name", entry.FileName),
			)...)...)
		case actionFail:
			res.Status = StatusFailed
			res.Reason = d.reason
			res.Err = services.Wrap(services.ErrFileCopyFailed, "export", "copy", fmt.Sprintf("%s: %s", entry.Track.Path, d.reason), d.err)
			e.logCopyFailure(logger, entry, res.Err)
		case actionCopy:
			if e.opts.DryRun {
				res.Status = StatusPlanned
				res.Bytes = d.size
				break
			}
			progress.Describe(fmt.Sprintf("[%d/%d] %s", i+1, len(plan.Entries), entry.FileName))
			n, err := fileutil.CopyAtomic(entry.Track.Path, entry.Destination, fileutil.CopyOptions{
				Verify:        e.opts.Verify,
				PreserveTimes: e.opts.PreserveTimes,
				Progress:      progress,
			})
			if err != nil {
				res.Status = StatusFailed
				res.Reason = err.Error()
				res.Err = services.Wrap(services.ErrFileCopyFailed, "export", "copy", entry.Track.Path, err)
				e.logCopyFailure(logger, entry, res.Err)
				break
			}
			res.Status = StatusCopied
			res.Bytes = n
			logger.Debug("track copied", logging.Args(append(
				logging.DecisionAttrs("track_copy", "copied", "new_file"),
				logging.String("file_name", entry.FileName),
				logging.Int64("bytes", n),
			)...)...)
		}
		report.add(res)
	}

	report.Duration = time.Since(started)
	logger.Info("export finished",
		logging.Int("copied", report.Copied),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
		logging.Int64("bytes", report.Bytes),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}

func (e *Exporter) logCopyFailure(logger *slog.Logger, entry Entry, err error) {
	hint := "check the source file and the USB stick"
	if errors.Is(err, os.ErrNotExist) {
		hint = "relocate the missing file in rekordbox"
	}
	logging.WarnWithContext(logger, "track copy failed", "track_copy_failed",
		logging.Int("position", entry.Position),
		logging.String("source", entry.Track.Path),
		logging.String("file_name", entry.FileName),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "track is missing from the device"),
	)
}
