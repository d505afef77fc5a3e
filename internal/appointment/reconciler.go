package appointment

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconciler periodically sweeps lapsed reservations. It is safe to run
// one per replica: the conditional write inside Expire guarantees each
// reservation is resolved at most once, and duplicate attempts fail
// silently.
type Reconciler struct {
	svc      *Service
	interval time.Duration
	log      *zap.Logger
}

func NewReconciler(svc *Service, interval time.Duration, log *zap.Logger) *Reconciler {
	return &Reconciler{
		svc:      svc,
		interval: interval,
		log:      log,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("expiry reconciler stopping")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	expired, err := r.svc.ExpireLapsed(sweepCtx)
	if err != nil {
		r.log.Error("expiry sweep failed", zap.Error(err))
		return
	}

	if expired > 0 {
		r.log.Info("expiry sweep complete",
			zap.Int("expired", expired),
			zap.Duration("took", time.Since(start)))
	} else {
		r.log.Debug("expiry sweep complete, nothing to do",
			zap.Duration("took", time.Since(start)))
	}
}
