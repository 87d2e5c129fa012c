package service

import (
	"context"
	"testing"
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
)

type fakeSweeper struct {
	cutoff  time.Time
	deleted int64
}

func (f *fakeSweeper) DeleteOlderThan(cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, nil
}

func TestJanitorSweep(t *testing.T) {
	photoSvc, repo, storage, _, room, _ := newTestPhotoService()

	expired := &model.Photo{
		ID:        uuid.New(),
		RoomID:    room.ID,
		ObjectKey: "k/expired",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	repo.photos[expired.ID] = expired
	storage.objects[expired.ObjectKey] = []byte{1}

	sweeper := &fakeSweeper{deleted: 2}
	j := NewJanitor(photoSvc, sweeper)

	before := time.Now()
	j.sweep(context.Background())

	if _, ok := repo.photos[expired.ID]; ok {
		t.Error("expired photo survived the sweep")
	}

	// relay records older than an hour are dropped
	wantCutoff := before.Add(-model.NotificationTTL)
	if sweeper.cutoff.Before(wantCutoff.Add(-time.Second)) || sweeper.cutoff.After(time.Now().Add(-model.NotificationTTL).Add(time.Second)) {
		t.Errorf("cutoff = %v, want about %v", sweeper.cutoff, wantCutoff)
	}
}

func TestJanitorRunStopsOnContextCancel(t *testing.T) {
	j := NewJanitor(nil, &fakeSweeper{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop on cancel")
	}
}
