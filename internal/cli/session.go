package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/roach88/h2prov/internal/config"
	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/logger"
	"github.com/roach88/h2prov/internal/observability"
	"github.com/roach88/h2prov/internal/provenance"
	"github.com/roach88/h2prov/internal/source"
	"github.com/roach88/h2prov/internal/store"
)

// session holds what one command run needs: configuration, logger,
// metrics and the open store.
type session struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *observability.Metrics
	store   *store.Store
	opts    *RootOptions
}

// openSession loads configuration and opens the database. Failures are
// reported through f and returned as ExitErrors.
func openSession(opts *RootOptions, f *OutputFormatter) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, f.CommandError(ErrCodeConfig, "failed to load config", err)
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(cfg.Log.Mode, level)
	if err != nil {
		return nil, f.CommandError(ErrCodeConfig, "failed to build logger", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		log.Sync()
		return nil, f.CommandError(ErrCodeDatabase, "failed to open database", err)
	}
	f.VerboseLog("Opened database %s", opts.Database)

	return &session{
		cfg:     cfg,
		log:     log,
		metrics: observability.NewMetrics(),
		store:   st,
		opts:    opts,
	}, nil
}

// Close writes the metrics file, if requested, and releases the store.
func (s *session) Close() error {
	defer s.log.Sync()
	return errors.Join(
		s.metrics.WriteTextfile(s.opts.MetricsFile),
		s.store.Close(),
	)
}

func (s *session) loader(bounds config.Bounds) *provenance.Loader {
	return provenance.NewLoader(s.store,
		provenance.WithLimits(s.cfg.Fetch.Limits()),
		provenance.WithBounds(bounds.Options()),
		provenance.WithLogger(s.log),
		provenance.WithMetrics(s.metrics))
}

// load builds the provenance graph of rootID in dir within the configured
// find-all bounds.
func (s *session) load(ctx context.Context, rootID string, dir source.Direction) (*provenance.Provenance, error) {
	return s.loader(s.cfg.Traversal.FindAll).Load(ctx, rootID, dir)
}

// parseStepType accepts a process step type in any case.
func parseStepType(s string) (domain.ProcessStepType, error) {
	t := domain.ProcessStepType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", domain.NewValidationError("unknown process step type " + strings.TrimSpace(s))
	}
	return t, nil
}
