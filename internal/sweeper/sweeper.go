// Package sweeper reclaims expired infos on a fixed wall-clock interval
// and cascades deletion to their notification subscriptions.
package sweeper

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/logger"
)

var (
	infosReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_infos_reclaimed_total",
		Help: "Expired infos deleted by the sweeper",
	})
	subscriptionsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_subscriptions_reclaimed_total",
		Help: "Orphaned subscription sets deleted by the sweeper",
	})
	sweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_errors_total",
		Help: "Per-record failures encountered while sweeping",
	})
)

// InfoStore is the slice of the info store the sweeper needs.
type InfoStore interface {
	Expired(ctx context.Context, now time.Time) ([]domain.Info, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// SubscriptionStore is the slice of the subscription store the sweeper
// needs.
type SubscriptionStore interface {
	DeleteByInfo(ctx context.Context, infoID primitive.ObjectID) error
	InfoIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// Sweeper deletes expired infos and keeps the subscription store free
// of references to infos that no longer exist.
type Sweeper struct {
	infos    InfoStore
	subs     SubscriptionStore
	interval time.Duration

	now func() time.Time
}

func New(infos InfoStore, subs SubscriptionStore, interval time.Duration) *Sweeper {
	return &Sweeper{
		infos:    infos,
		subs:     subs,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs one sweep immediately, then one per interval until ctx is
// cancelled. Blocks; run it in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one reclamation pass. Per-record failures are logged
// and skipped; they never abort the rest of the pass. Deletions are
// idempotent, so an overlapping pass is harmless.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.now().UTC()

	expired, err := s.infos.Expired(ctx, now)
	if err != nil {
		sweepErrors.Inc()
		logger.Log.Errorw("sweep: failed to query expired infos", "error", err)
		return
	}

	removed := 0
	for _, info := range expired {
		if err := s.infos.Delete(ctx, info.ID); err != nil {
			sweepErrors.Inc()
			logger.Log.Errorw("sweep: failed to delete expired info", "infoID", info.ID.Hex(), "error", err)
			continue
		}
		removed++
		infosReclaimed.Inc()

		if err := s.subs.DeleteByInfo(ctx, info.ID); err != nil {
			// Left-over rows are caught by the orphan scan below or by
			// the next pass.
			sweepErrors.Inc()
			logger.Log.Errorw("sweep: failed to delete subscriptions", "infoID", info.ID.Hex(), "error", err)
		}
	}

	orphans := s.reclaimOrphans(ctx)

	logger.Log.Infow("sweep done", "expired", len(expired), "removed", removed, "orphanedSubs", orphans)
}

// reclaimOrphans deletes subscription sets whose info no longer exists.
// This is the compensating cleanup for cascades interrupted between the
// info deletion and the subscription deletion.
func (s *Sweeper) reclaimOrphans(ctx context.Context) int {
	ids, err := s.subs.InfoIDs(ctx)
	if err != nil {
		sweepErrors.Inc()
		logger.Log.Errorw("sweep: failed to list subscribed info IDs", "error", err)
		return 0
	}

	reclaimed := 0
	for _, id := range ids {
		exists, err := s.infos.Exists(ctx, id)
		if err != nil {
			sweepErrors.Inc()
			logger.Log.Errorw("sweep: failed to check info existence", "infoID", id.Hex(), "error", err)
			continue
		}
		if exists {
			continue
		}
		if err := s.subs.DeleteByInfo(ctx, id); err != nil {
			sweepErrors.Inc()
			logger.Log.Errorw("sweep: failed to delete orphaned subscriptions", "infoID", id.Hex(), "error", err)
			continue
		}
		reclaimed++
		subscriptionsReclaimed.Inc()
	}
	return reclaimed
}
