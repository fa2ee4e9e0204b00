// Package scheduler drives the periodic credential refresh sweep. On a cron
// schedule it walks every stored tenant pair and routes each one through the
// connector's read path, whose renewal buffer refreshes tokens that are close
// to expiry. Interactive requests then rarely pay the refresh round trip.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"hubspot-connector/internal/common/errors"
	"hubspot-connector/internal/common/logging"
	"hubspot-connector/internal/connector"
)

const (
	// maxConcurrentRefreshes bounds how many tenant pairs a single sweep
	// touches at once, keeping the sweep from flooding the provider.
	maxConcurrentRefreshes = 4

	// sweepTimeout caps a single sweep run end to end.
	sweepTimeout = 5 * time.Minute
)

// CredentialSource yields the current credentials for a tenant pair,
// refreshing stale tokens as a side effect of the read.
// *connector.Service satisfies it.
type CredentialSource interface {
	GetCredentials(ctx context.Context, userID, orgID string) (*connector.Credentials, error)
}

// PairLister enumerates the tenant pairs that currently hold credentials.
// connector.Store satisfies it.
type PairLister interface {
	ListCredentialPairs(ctx context.Context) ([]connector.TenantPair, error)
}

// Sweeper runs the refresh sweep on a six-field cron schedule.
type Sweeper struct {
	source CredentialSource
	store  PairLister
	cron   *cron.Cron
	logger logging.Logger
}

// New creates a sweeper over the given credential source and store. A nil
// logger falls back to the global one.
func New(source CredentialSource, store PairLister, logger logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	return &Sweeper{
		source: source,
		store:  store,
		cron:   cron.New(cron.WithParser(parser)),
		logger: logger,
	}
}

// Start registers the sweep under schedule and starts the scheduler.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return errors.ConfigError("invalid refresh sweep schedule: " + err.Error())
	}

	s.cron.Start()
	s.logger.Info("credential refresh sweep scheduled",
		logging.Field{"schedule", schedule})
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("credential refresh sweep stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if err := s.Sweep(ctx); err != nil {
		s.logger.Error("credential refresh sweep failed", err)
	}
}

// Sweep walks every stored credential pair once. Pairs that fail to refresh
// are logged and skipped; a broken tenant must not starve the rest of the
// sweep.
func (s *Sweeper) Sweep(ctx context.Context) error {
	start := time.Now()

	pairs, err := s.store.ListCredentialPairs(ctx)
	if err != nil {
		return errors.InternalError("failed to list credential pairs", err)
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentRefreshes)
	for _, pair := range pairs {
		pair := pair // Capture for goroutine
		g.Go(func() error {
			if _, err := s.source.GetCredentials(ctx, pair.UserID, pair.OrgID); err != nil {
				s.logger.Warn("refresh sweep skipped pair",
					logging.Field{"user_id", pair.UserID},
					logging.Field{"org_id", pair.OrgID},
					logging.Field{"error", err.Error()})
			}
			return nil
		})
	}
	// Workers log failures per pair and never return an error.
	_ = g.Wait()

	s.logger.Debug("credential refresh sweep complete",
		logging.Field{"pairs", len(pairs)},
		logging.Field{"duration_ms", time.Since(start).Milliseconds()})
	return nil
}
