package export

import (
	"context"
	"log/slog"

	"cdjexport/internal/config"
	"cdjexport/internal/library"
	"cdjexport/internal/logging"
	"cdjexport/internal/naming"
	"cdjexport/internal/romaji"
	"cdjexport/internal/services"
)

// Request describes one export.
type Request struct {
	Playlist    string
	Destination string
	DryRun      bool
	// Force overwrites existing destination files.
	Force bool
}

// Service runs complete exports: lock, resolve, plan, prepare, copy.
type Service struct {
	cfg      *config.Config
	source   library.Source
	namer    *naming.Namer
	logger   *slog.Logger
	base     *slog.Logger
	progress ProgressFactory
}

// NewService wires a Service from configuration.
func NewService(cfg *config.Config, source library.Source, translit romaji.Transliterator, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		source: source,
		namer:  naming.NewNamer(translit, naming.RulesFromConfig(cfg.Device), logger),
		logger: logging.NewComponentLogger(logger, "export"),
		base:   logger,
	}
}

// SetProgress enables byte progress output for subsequent exports.
func (s *Service) SetProgress(factory ProgressFactory) {
	s.progress = factory
}

// Export runs req. The report is returned whenever copying started, even
// when the run was interrupted.
func (s *Service) Export(ctx context.Context, req Request) (*Report, error) {
	ctx = services.WithPlaylist(ctx, req.Playlist)

	lock, err := AcquireLock(s.cfg.LockPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.logger.Warn("release export lock failed", logging.Error(err))
		}
	}()

	stageCtx := services.WithStage(ctx, "resolve")
	playlist, err := s.source.Playlist(stageCtx, req.Playlist)
	if err != nil {
		return nil, err
	}
	logging.WithContext(stageCtx, s.logger).Info("playlist resolved",
		logging.String("folder", playlist.Folder),
		logging.Int("tracks", len(playlist.Tracks)),
	)

	plan, err := NewPlanner(s.namer, s.cfg.Device).Plan(req.Destination, playlist)
	if err != nil {
		return nil, err
	}

	opts := OptionsFromConfig(s.cfg)
	opts.DryRun = req.DryRun
	if req.Force {
		opts.Overwrite = true
	}
	var exporterOpts []ExporterOption
	if s.progress != nil {
		exporterOpts = append(exporterOpts, WithProgress(s.progress))
	}
	exporter := NewExporter(opts, s.base, exporterOpts...)

	if err := exporter.Prepare(plan); err != nil {
		return nil, err
	}
	return exporter.Run(services.WithStage(ctx, "copy"), plan)
}
