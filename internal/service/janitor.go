package service

import (
	"context"
	"log"
	"time"

	"github.com/closehq/close-api/internal/model"
)

// sweepInterval matches the original client's cleanup cadence
const sweepInterval = 5 * time.Minute

// NotificationSweeper removes stale relay records
type NotificationSweeper interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// Janitor runs the periodic server-side sweeps: expired photos and relay
// notifications older than an hour. The original left both to whichever
// client happened to be connected; here they run regardless.
type Janitor struct {
	photos        *PhotoService
	notifications NotificationSweeper
	interval      time.Duration
}

func NewJanitor(photos *PhotoService, notifications NotificationSweeper) *Janitor {
	return &Janitor{
		photos:        photos,
		notifications: notifications,
		interval:      sweepInterval,
	}
}

// Run sweeps immediately and then on every tick until the context is done
func (j *Janitor) Run(ctx context.Context) {
	log.Printf("[janitor] started, interval=%s", j.interval)
	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[janitor] stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	now := time.Now()

	if j.photos != nil {
		if n, err := j.photos.SweepExpired(ctx, now); err != nil {
			log.Printf("[janitor] photo sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("[janitor] swept %d expired photos", n)
		}
	}

	if j.notifications != nil {
		cutoff := now.Add(-model.NotificationTTL)
		if n, err := j.notifications.DeleteOlderThan(cutoff); err != nil {
			log.Printf("[janitor] notification sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("[janitor] swept %d stale notifications", n)
		}
	}
}
